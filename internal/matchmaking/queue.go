// Package matchmaking pairs waiting players by rule compatibility.
package matchmaking

import (
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/pong/internal/models"
)

var (
	// ErrAlreadyQueued is returned when a user enqueues while already waiting.
	ErrAlreadyQueued = errors.New("already queued")
	// ErrAlreadyInGame is returned when a user enqueues while part of a room.
	ErrAlreadyInGame = errors.New("already in game")
)

// Entry is one waiting player.
type Entry struct {
	Session    models.PlayerSession
	Rule       models.RulePreference
	EnqueuedAt time.Time
}

// Pair is the result of a successful match. Blue is always the earlier arrival.
type Pair struct {
	Blue Entry
	Red  Entry
}

// class is the compatibility bucket an entry waits in.
type class bool

func classOf(rule models.RulePreference) class {
	return class(rule.IsRankGame)
}

// Queue holds waiting players bucketed by compatibility class. Matching is evaluated
// synchronously on every Enqueue, FIFO within a bucket.
type Queue struct {
	mu      sync.Mutex
	buckets map[class][]Entry
	queued  map[int64]class // userID -> bucket the user waits in
	now     func() time.Time
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		buckets: make(map[class][]Entry),
		queued:  make(map[int64]class),
		now:     time.Now,
	}
}

// Enqueue adds the session to its rule's bucket. When a compatible player is already
// waiting, both entries are removed and returned as a Pair; otherwise Enqueue returns
// nil and the session waits.
func (q *Queue) Enqueue(session models.PlayerSession, rule models.RulePreference) (*Pair, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if session.InRoom() {
		return nil, ErrAlreadyInGame
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.queued[session.UserID]; ok {
		return nil, ErrAlreadyQueued
	}

	c := classOf(rule)
	entry := Entry{Session: session, Rule: rule, EnqueuedAt: q.now()}

	// A bucket never holds two entries after a call returns, but scan anyway so a
	// future looser compatibility rule keeps FIFO order.
	bucket := q.buckets[c]
	for i, waiting := range bucket {
		if !waiting.Rule.CompatibleWith(rule) {
			continue
		}
		q.buckets[c] = append(bucket[:i:i], bucket[i+1:]...)
		delete(q.queued, waiting.Session.UserID)
		return &Pair{Blue: waiting, Red: entry}, nil
	}

	q.buckets[c] = append(bucket, entry)
	q.queued[session.UserID] = c
	return nil, nil
}

// Requeue puts back an entry whose match could not be started, keeping its original
// arrival time so it is not sent to the back of the line. Like Enqueue it pairs the
// entry with a compatible waiting player when there is one; the earlier arrival plays blue.
func (q *Queue) Requeue(e Entry) (*Pair, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.queued[e.Session.UserID]; ok {
		return nil, ErrAlreadyQueued
	}
	c := classOf(e.Rule)
	bucket := q.buckets[c]
	for i, waiting := range bucket {
		if !waiting.Rule.CompatibleWith(e.Rule) {
			continue
		}
		q.buckets[c] = append(bucket[:i:i], bucket[i+1:]...)
		delete(q.queued, waiting.Session.UserID)
		if e.EnqueuedAt.Before(waiting.EnqueuedAt) {
			return &Pair{Blue: e, Red: waiting}, nil
		}
		return &Pair{Blue: waiting, Red: e}, nil
	}

	i := 0
	for i < len(bucket) && !e.EnqueuedAt.Before(bucket[i].EnqueuedAt) {
		i++
	}
	bucket = append(bucket, Entry{})
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = e
	q.buckets[c] = bucket
	q.queued[e.Session.UserID] = c
	return nil, nil
}

// Dequeue removes the session's entry. The rule is accepted for symmetry with
// Enqueue; the entry is found by user wherever it waits. Returns false when the
// session was not queued.
func (q *Queue) Dequeue(session models.PlayerSession, _ models.RulePreference) bool {
	return q.Remove(session.UserID)
}

// Remove drops the user's entry, if any.
func (q *Queue) Remove(userID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	c, ok := q.queued[userID]
	if !ok {
		return false
	}
	bucket := q.buckets[c]
	for i, e := range bucket {
		if e.Session.UserID == userID {
			q.buckets[c] = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	delete(q.queued, userID)
	return true
}

// Contains reports whether the user is waiting.
func (q *Queue) Contains(userID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.queued[userID]
	return ok
}

// Len returns the number of waiting entries across all buckets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queued)
}

// LenClass returns the number of entries waiting in the ranked or casual bucket.
func (q *Queue) LenClass(ranked bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buckets[class(ranked)])
}

// ExpireOlderThan removes and returns every entry that has waited longer than maxWait.
func (q *Queue) ExpireOlderThan(maxWait time.Duration) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-maxWait)
	var expired []Entry
	for c, bucket := range q.buckets {
		kept := bucket[:0]
		for _, e := range bucket {
			if e.EnqueuedAt.Before(cutoff) {
				expired = append(expired, e)
				delete(q.queued, e.Session.UserID)
				continue
			}
			kept = append(kept, e)
		}
		q.buckets[c] = kept
	}
	return expired
}
