package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/matchmaking"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/sirupsen/logrus"
)

// UserDirectory resolves platform accounts. A missing user is reported as (nil, nil).
type UserDirectory interface {
	FindByUserID(ctx context.Context, login string) (*models.User, error)
	FindByUserSeq(ctx context.Context, seq int64) (*models.User, error)
}

// InvitationStore resolves invitations. A missing invitation is reported as (nil, nil).
type InvitationStore interface {
	GetInvitationByID(ctx context.Context, id int64) (*models.Invitation, error)
}

// Contestant is one side of a room about to be created. Rule is nil for rooms created
// from an invitation.
type Contestant struct {
	Session models.PlayerSession
	Rule    *models.RulePreference
}

// Stats is a point-in-time view of the service used by the maintenance jobs.
type Stats struct {
	Rooms        int
	Running      int
	Queued       int
	QueuedRanked int
}

// Options wires a Service.
type Options struct {
	Queue       *matchmaking.Queue
	Engine      *Engine
	Publisher   Publisher
	Users       UserDirectory
	Invitations InvitationStore
	Logger      *logrus.Logger

	// DisconnectGrace is how long a disconnected player may stay away before forfeiting.
	// Zero disables forfeiture.
	DisconnectGrace time.Duration
}

// Service orchestrates matchmaking, room creation and teardown. It owns the room index;
// the engine owns the tick goroutines.
type Service struct {
	logger      *logrus.Logger
	queue       *matchmaking.Queue
	rooms       *RoomStore
	engine      *Engine
	publisher   Publisher
	users       UserDirectory
	invitations InvitationStore
	grace       time.Duration

	timersMu sync.Mutex
	timers   map[int64]*time.Timer

	newID func() uuid.UUID
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	queue := opts.Queue
	if queue == nil {
		queue = matchmaking.NewQueue()
	}
	engine := opts.Engine
	if engine == nil {
		engine = NewEngine(EngineConfig{}, nil, logger)
	}
	return &Service{
		logger:      logger,
		queue:       queue,
		rooms:       NewRoomStore(),
		engine:      engine,
		publisher:   opts.Publisher,
		users:       opts.Users,
		invitations: opts.Invitations,
		grace:       opts.DisconnectGrace,
		timers:      make(map[int64]*time.Timer),
		newID:       uuid.New,
	}
}

// HandleEnqueue puts the session in the queue and creates a room when it pairs. A nil
// room with a nil error means the player is waiting.
func (s *Service) HandleEnqueue(session models.PlayerSession, rule models.RulePreference) (*Room, error) {
	if _, ok := s.rooms.RoomIDFor(session.UserID); ok {
		return nil, ErrAlreadyInGame
	}
	pair, err := s.queue.Enqueue(session, rule)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		s.logger.WithField("user", session.UserID).Debug("queued")
		return nil, nil
	}
	return s.startPair(pair, session.UserID)
}

// startPair creates the room for a queue pair. When one side was pulled into another
// room in the meantime, the other side goes back into the queue with its original
// arrival time. The returned room is the one caller ended up in, if any.
func (s *Service) startPair(pair *matchmaking.Pair, caller int64) (*Room, error) {
	room, err := s.CreateGame(
		Contestant{Session: pair.Blue.Session, Rule: &pair.Blue.Rule},
		Contestant{Session: pair.Red.Session, Rule: &pair.Red.Rule},
	)
	if !errors.Is(err, ErrAlreadyInGame) {
		return room, err
	}

	var callerRoom *Room
	callerBusy := true
	for _, e := range []matchmaking.Entry{pair.Blue, pair.Red} {
		userID := e.Session.UserID
		if _, busy := s.rooms.RoomIDFor(userID); busy {
			continue
		}
		if userID == caller {
			callerBusy = false
		}
		next, qerr := s.queue.Requeue(e)
		if qerr != nil {
			s.logger.WithError(qerr).WithField("user", userID).Warn("failed to requeue after lost pairing")
			continue
		}
		s.logger.WithField("user", userID).Debug("requeued after lost pairing")
		if next == nil {
			continue
		}
		if r, perr := s.startPair(next, caller); perr == nil && r != nil {
			if _, ok := r.Meta.SideOf(caller); ok {
				callerRoom = r
			}
		}
	}
	if callerBusy {
		return nil, ErrAlreadyInGame
	}
	return callerRoom, nil
}

// HandleDequeue removes the session from the queue. It reports whether it was queued.
func (s *Service) HandleDequeue(session models.PlayerSession, rule models.RulePreference) bool {
	return s.queue.Dequeue(session, rule)
}

// HandleAcceptInvite creates a default-rule room for an accepted invitation. The
// receiver plays blue and the sender red.
func (s *Service) HandleAcceptInvite(ctx context.Context, invitationID int64) (*Room, error) {
	if s.invitations == nil || s.users == nil {
		return nil, ErrNotFound
	}
	inv, err := s.invitations.GetInvitationByID(ctx, invitationID)
	if err != nil {
		return nil, fmt.Errorf("get invitation %d: %w", invitationID, err)
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	receiver, err := s.users.FindByUserSeq(ctx, inv.ReceiverSeq)
	if err != nil {
		return nil, fmt.Errorf("find receiver %d: %w", inv.ReceiverSeq, err)
	}
	sender, err := s.users.FindByUserSeq(ctx, inv.SenderSeq)
	if err != nil {
		return nil, fmt.Errorf("find sender %d: %w", inv.SenderSeq, err)
	}
	if receiver == nil || sender == nil {
		return nil, ErrNotFound
	}

	return s.CreateGame(
		Contestant{Session: models.PlayerSession{UserID: receiver.Seq}},
		Contestant{Session: models.PlayerSession{UserID: sender.Seq}},
	)
}

// CreateGame builds a room for the two contestants, announces it and starts its tick
// goroutine.
func (s *Service) CreateGame(blue, red Contestant) (*Room, error) {
	roomID := s.newID()
	blueSession, redSession := blue.Session, red.Session
	blueSession.RoomID, blueSession.InGame = roomID, true
	redSession.RoomID, redSession.InGame = roomID, true

	meta := MetaData{
		RoomID:     roomID,
		PlayerBlue: blueSession,
		PlayerRed:  redSession,
		IsRankGame: blue.Rule != nil && blue.Rule.IsRankGame,
	}
	room := s.engine.NewRoom(meta, MergeRules(blue.Rule, red.Rule))
	if err := s.rooms.Insert(room); err != nil {
		return nil, err
	}
	// Invitation rooms may pull players out of the queue.
	s.queue.Remove(blueSession.UserID)
	s.queue.Remove(redSession.UserID)

	s.logger.WithFields(logrus.Fields{
		"room": roomID,
		"blue": blueSession.UserID,
		"red":  redSession.UserID,
		"rank": meta.IsRankGame,
	}).Info("room created")

	users := []int64{blueSession.UserID, redSession.UserID}
	s.publish(Event{Type: EventMatch, RoomID: roomID, Users: users, Payload: MatchData{RoomID: roomID, Blue: users[0], Red: users[1]}})
	s.publish(Event{Type: EventReady, RoomID: roomID, Users: users, Payload: room.Snapshot()})

	s.engine.Start(room)
	go s.forward(room)
	return room, nil
}

// forward relays a room's events to the publisher until its channel closes. game:end
// triggers teardown.
func (s *Service) forward(r *Room) {
	users := []int64{r.Meta.PlayerBlue.UserID, r.Meta.PlayerRed.UserID}
	for ev := range r.Events() {
		ev.Users = users
		s.publish(ev)
		if ev.Type == EventEnd {
			if err := s.EndGame(r.ID()); err != nil && !errors.Is(err, ErrRoomAlreadyEnded) {
				s.logger.WithError(err).WithField("room", r.ID()).Warn("failed to end room")
			}
		}
	}
}

// EndGame tears the room down. Repeated calls return ErrRoomAlreadyEnded and change
// nothing.
func (s *Service) EndGame(roomID uuid.UUID) error {
	room, ok := s.rooms.Remove(roomID)
	if !ok {
		s.logger.WithField("room", roomID).Debug("end requested for a room that is not live")
		return ErrRoomAlreadyEnded
	}
	s.cancelTimer(room.Meta.PlayerBlue.UserID)
	s.cancelTimer(room.Meta.PlayerRed.UserID)

	if data, changed := room.closeOut(); changed {
		s.publish(Event{
			Type:    EventEnd,
			RoomID:  roomID,
			Users:   []int64{room.Meta.PlayerBlue.UserID, room.Meta.PlayerRed.UserID},
			Payload: data,
		})
	}
	s.engine.Stop(roomID)
	s.engine.SaveAfterEndGame(room)

	s.logger.WithField("room", roomID).Info("room ended")
	return nil
}

// HandlePaddleInput forwards a paddle command to the engine. Commands for unknown or
// inactive rooms are dropped and false is returned.
func (s *Service) HandlePaddleInput(roomID uuid.UUID, userID int64, dir PaddleDirection) bool {
	if err := s.engine.HandlePaddle(roomID, userID, dir); err != nil {
		s.logger.WithFields(logrus.Fields{"room": roomID, "user": userID}).WithError(err).Debug("paddle input dropped")
		return false
	}
	return true
}

// FindRoomFor returns the room the user plays in.
func (s *Service) FindRoomFor(userID int64) (*Room, bool) {
	r := s.rooms.FindByUser(userID)
	return r, r != nil
}

// Snapshot returns a consistent copy of a live room.
func (s *Service) Snapshot(roomID uuid.UUID) (Snapshot, error) {
	r, ok := s.rooms.Get(roomID)
	if !ok {
		return Snapshot{}, ErrUnknownRoom
	}
	return r.Snapshot(), nil
}

// HandleDisconnect is called when a user's last connection closes. Any queue entry is
// dropped and, when the user is playing, a forfeit is armed for the grace period.
func (s *Service) HandleDisconnect(userID int64) {
	if s.queue.Remove(userID) {
		s.logger.WithField("user", userID).Debug("removed from queue on disconnect")
	}
	r := s.rooms.FindByUser(userID)
	if r == nil || s.grace <= 0 {
		return
	}
	roomID := r.ID()

	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[userID]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(s.grace, func() {
		s.timersMu.Lock()
		if s.timers[userID] == t {
			delete(s.timers, userID)
		}
		s.timersMu.Unlock()

		if err := s.engine.Forfeit(roomID, userID); err != nil {
			s.logger.WithFields(logrus.Fields{"room": roomID, "user": userID}).WithError(err).Debug("forfeit skipped")
			return
		}
		s.logger.WithFields(logrus.Fields{"room": roomID, "user": userID}).Info("player forfeited after disconnect")
	})
	s.timers[userID] = t
}

// HandleReconnect cancels a pending forfeit and returns the user's room, if any.
func (s *Service) HandleReconnect(userID int64) (*Room, bool) {
	s.cancelTimer(userID)
	return s.FindRoomFor(userID)
}

func (s *Service) cancelTimer(userID int64) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if t, ok := s.timers[userID]; ok {
		t.Stop()
		delete(s.timers, userID)
	}
}

// ExpireQueue drops players who waited longer than maxWait and notifies them.
func (s *Service) ExpireQueue(maxWait time.Duration) int {
	expired := s.queue.ExpireOlderThan(maxWait)
	if len(expired) == 0 {
		return 0
	}
	users := make([]int64, 0, len(expired))
	for _, e := range expired {
		users = append(users, e.Session.UserID)
	}
	s.publish(Event{Type: EventQueueExpired, Users: users})
	s.logger.WithField("count", len(users)).Info("expired queue entries")
	return len(users)
}

// Stats reports room and queue sizes.
func (s *Service) Stats() Stats {
	return Stats{
		Rooms:        s.rooms.Len(),
		Running:      s.engine.Running(),
		Queued:       s.queue.Len(),
		QueuedRanked: s.queue.LenClass(true),
	}
}

// shutdownSaveWait bounds how long Shutdown waits for match summaries to be stored.
const shutdownSaveWait = 5 * time.Second

// Shutdown ends every live room, cancels pending forfeits and waits for the final match
// summaries to reach the history store.
func (s *Service) Shutdown() {
	for _, r := range s.rooms.All() {
		_ = s.EndGame(r.ID())
	}
	s.timersMu.Lock()
	for userID, t := range s.timers {
		t.Stop()
		delete(s.timers, userID)
	}
	s.timersMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownSaveWait)
	defer cancel()
	if err := s.engine.Wait(ctx); err != nil {
		s.logger.WithError(err).Warn("match summaries still pending at shutdown")
	}
}

func (s *Service) publish(ev Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ev)
}
