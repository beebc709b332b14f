package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/models"
)

const (
	eventBuffer = 64
	// stopDeliveryWait bounds how long a must-deliver event waits for the forwarder once
	// the room is being stopped.
	stopDeliveryWait = time.Second
)

// pendingInput holds the newest unapplied direction for each side.
type pendingInput struct {
	mu    sync.Mutex
	dir   [2]PaddleDirection
	dirty [2]bool
}

func (p *pendingInput) set(side Side, dir PaddleDirection) {
	p.mu.Lock()
	p.dir[side] = dir
	p.dirty[side] = true
	p.mu.Unlock()
}

// take returns and clears the pending direction of a side.
func (p *pendingInput) take(side Side) (PaddleDirection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty[side] {
		return 0, false
	}
	p.dirty[side] = false
	return p.dir[side], true
}

// Room is one match. Meta and Rules are fixed at creation; the in-game state and
// status are guarded by the room's own mutex and written only by its tick goroutine
// (status is also closed out by Engine.Stop). No lock is shared between rooms.
type Room struct {
	Meta      MetaData
	Rules     RuleState
	CreatedAt time.Time

	mu      sync.Mutex
	state   InGameState
	status  Status
	winner  int64
	reason  string
	endedAt time.Time

	inputs  pendingInput
	forfeit chan int64
	events  chan Event

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newRoom(meta MetaData, rules RuleState, arena Arena) *Room {
	return &Room{
		Meta:      meta,
		Rules:     rules,
		CreatedAt: time.Now(),
		state:     NewInGameState(arena, rules),
		status:    StatusInitializing,
		forfeit:   make(chan int64, 2),
		events:    make(chan Event, eventBuffer),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ID returns the room identifier.
func (r *Room) ID() uuid.UUID {
	return r.Meta.RoomID
}

// Status returns the lifecycle position.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Snapshot returns a consistent copy of the room.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	return Snapshot{
		MetaData:   r.Meta,
		RuleData:   r.Rules,
		InGameData: r.state,
		Status:     r.status,
	}
}

// Events is the room's outbound channel. It is closed when the tick goroutine exits.
func (r *Room) Events() <-chan Event {
	return r.events
}

// Done is closed once the tick goroutine has exited.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Summary builds the post-match record.
func (r *Room) Summary() models.MatchSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	winner := r.winner
	if winner == 0 {
		switch {
		case r.state.ScoreBlue > r.state.ScoreRed:
			winner = r.Meta.PlayerBlue.UserID
		case r.state.ScoreRed > r.state.ScoreBlue:
			winner = r.Meta.PlayerRed.UserID
		}
	}
	reason := r.reason
	if reason == "" {
		reason = models.EndReasonAborted
	}
	ended := r.endedAt
	if ended.IsZero() {
		ended = time.Now()
	}
	return models.MatchSummary{
		RoomID:       r.Meta.RoomID,
		BlueUserID:   r.Meta.PlayerBlue.UserID,
		RedUserID:    r.Meta.PlayerRed.UserID,
		ScoreBlue:    r.state.ScoreBlue,
		ScoreRed:     r.state.ScoreRed,
		WinnerUserID: winner,
		IsRankGame:   r.Meta.IsRankGame,
		Reason:       reason,
		StartedAt:    r.CreatedAt,
		EndedAt:      ended,
	}
}

// finishLocked moves the room to ending and records the result. Caller holds r.mu.
func (r *Room) finishLocked(reason string, winner int64) {
	r.status = StatusEnding
	r.reason = reason
	r.winner = winner
	r.endedAt = time.Now()
}

// closeOut marks a room that did not finish on its own as ended with reason aborted.
// It reports whether anything changed, with the payload to broadcast.
func (r *Room) closeOut() (EndData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusEnded || r.status == StatusEnding {
		return EndData{}, false
	}
	r.finishLocked(models.EndReasonAborted, 0)
	r.status = StatusEnded
	return EndData{Snapshot: r.snapshotLocked(), Reason: models.EndReasonAborted}, true
}

// applyInputsLocked applies the newest direction each side sent since the last tick.
func (r *Room) applyInputsLocked() {
	for _, side := range []Side{SideBlue, SideRed} {
		if dir, ok := r.inputs.take(side); ok {
			r.state.paddle(side).Direction = dir
		}
	}
}

// pendingForfeit returns the user who forfeited since the last tick, if any.
func (r *Room) pendingForfeit() (int64, bool) {
	select {
	case userID := <-r.forfeit:
		return userID, true
	default:
		return 0, false
	}
}

// publish sends a droppable event (render frames). It never blocks the tick.
func (r *Room) publish(ev Event) bool {
	select {
	case r.events <- ev:
		return true
	default:
		return false
	}
}

// deliver sends an event that must reach the forwarder. Once the room is being
// stopped it waits at most stopDeliveryWait; the forwarder keeps draining until the
// channel is closed.
func (r *Room) deliver(ev Event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.stop:
	}
	t := time.NewTimer(stopDeliveryWait)
	defer t.Stop()
	select {
	case r.events <- ev:
		return true
	case <-t.C:
		return false
	}
}

func (r *Room) requestStop() {
	r.stopOnce.Do(func() { close(r.stop) })
}
