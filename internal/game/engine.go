package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/sirupsen/logrus"
)

// HistoryStore persists finished matches.
type HistoryStore interface {
	Save(ctx context.Context, summary models.MatchSummary) error
}

// EngineConfig tunes the simulation.
type EngineConfig struct {
	Arena Arena
	// TickRate is the number of ticks per second for every room.
	TickRate int
	// Countdown is the number of one-second game:start countdown steps before play.
	Countdown int
}

// Engine runs one independent tick goroutine per active room. Its room map is used
// only to route commands; it is never held while a room ticks.
type Engine struct {
	arena     Arena
	interval  time.Duration
	countdown int
	history   HistoryStore
	logger    *logrus.Logger

	mu    sync.RWMutex
	rooms map[uuid.UUID]*Room

	saves sync.WaitGroup
}

// NewEngine builds an engine. history may be nil, in which case summaries are dropped.
func NewEngine(cfg EngineConfig, history HistoryStore, logger *logrus.Logger) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.Arena == (Arena{}) {
		cfg.Arena = DefaultArena
	}
	return &Engine{
		arena:     cfg.Arena,
		interval:  time.Second / time.Duration(cfg.TickRate),
		countdown: cfg.Countdown,
		history:   history,
		logger:    logger,
		rooms:     make(map[uuid.UUID]*Room),
	}
}

// Arena returns the arena constants.
func (e *Engine) Arena() Arena {
	return e.arena
}

// NewRoom builds a room in the initializing state using the engine's arena.
func (e *Engine) NewRoom(meta MetaData, rules RuleState) *Room {
	return newRoom(meta, rules, e.arena)
}

// Start schedules the room's tick goroutine.
func (e *Engine) Start(r *Room) {
	e.mu.Lock()
	e.rooms[r.ID()] = r
	e.mu.Unlock()

	go e.run(r)
}

// Stop cancels the room's tick goroutine. Other rooms are unaffected.
func (e *Engine) Stop(roomID uuid.UUID) bool {
	e.mu.Lock()
	r, ok := e.rooms[roomID]
	delete(e.rooms, roomID)
	e.mu.Unlock()

	if !ok {
		return false
	}
	r.requestStop()
	return true
}

// Running returns the number of rooms with a live tick goroutine.
func (e *Engine) Running() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rooms)
}

func (e *Engine) room(roomID uuid.UUID) (*Room, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rooms[roomID]
	return r, ok
}

// HandlePaddle records a direction change for the participant's paddle. It is applied
// at the start of the room's next tick; a later input from the same side replaces an
// earlier one that has not been applied yet.
func (e *Engine) HandlePaddle(roomID uuid.UUID, userID int64, dir PaddleDirection) error {
	if !dir.Valid() {
		return ErrInvalidDirection
	}
	r, ok := e.room(roomID)
	if !ok {
		return ErrUnknownRoom
	}
	side, ok := r.Meta.SideOf(userID)
	if !ok {
		return ErrNotAParticipant
	}
	if r.Status() != StatusActive {
		return ErrRoomNotActive
	}
	r.inputs.set(side, dir)
	return nil
}

// Forfeit ends the room in favour of userID's opponent on the next tick.
func (e *Engine) Forfeit(roomID uuid.UUID, userID int64) error {
	r, ok := e.room(roomID)
	if !ok {
		return ErrUnknownRoom
	}
	if _, ok := r.Meta.SideOf(userID); !ok {
		return ErrNotAParticipant
	}
	select {
	case r.forfeit <- userID:
	default:
	}
	return nil
}

// SaveAfterEndGame hands the room's summary to the history store without blocking
// the caller.
func (e *Engine) SaveAfterEndGame(r *Room) {
	if e.history == nil {
		return
	}
	summary := r.Summary()
	e.saves.Add(1)
	go func() {
		defer e.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.history.Save(ctx, summary); err != nil {
			e.logger.WithError(err).WithField("room", summary.RoomID).Warn("failed to save match summary")
		}
	}()
}

// Wait blocks until every pending history save has finished or ctx is done.
func (e *Engine) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.saves.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) run(r *Room) {
	log := e.logger.WithField("room", r.ID())
	defer close(r.done)
	defer close(r.events)
	defer func() {
		e.mu.Lock()
		if cur, ok := e.rooms[r.ID()]; ok && cur == r {
			delete(e.rooms, r.ID())
		}
		e.mu.Unlock()
	}()

	for remaining := e.countdown; remaining > 0; remaining-- {
		r.deliver(Event{Type: EventStart, RoomID: r.ID(), Payload: StartData{Status: "countdown", Remaining: remaining}})
		select {
		case <-r.stop:
			e.abort(r)
			return
		case <-time.After(time.Second):
		}
	}

	r.mu.Lock()
	if r.status != StatusInitializing {
		r.mu.Unlock()
		return
	}
	r.status = StatusActive
	r.mu.Unlock()
	r.deliver(Event{Type: EventStart, RoomID: r.ID(), Payload: StartData{Status: "start"}})
	log.Debug("room active")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			e.abort(r)
			return
		case <-ticker.C:
			if !e.tick(r) {
				log.Debug("room tick loop finished")
				return
			}
		}
	}
}

// tick runs one simulation step and emits its events. It returns false once the room
// has left the active state; no further ticks are applied after that.
func (e *Engine) tick(r *Room) bool {
	r.mu.Lock()
	if r.status != StatusActive {
		r.mu.Unlock()
		return false
	}
	r.applyInputsLocked()

	if loser, ok := r.pendingForfeit(); ok {
		r.finishLocked(models.EndReasonForfeit, r.Meta.Opponent(loser))
		end := EndData{Snapshot: r.snapshotLocked(), Winner: r.winner, Reason: r.reason}
		r.mu.Unlock()
		e.end(r, end)
		return false
	}

	res := step(&r.state, e.arena, r.Rules)
	render := RenderData{Ball: r.state.Ball, PaddleBlue: r.state.PaddleBlue, PaddleRed: r.state.PaddleRed}
	score := ScoreData{ScoreBlue: r.state.ScoreBlue, ScoreRed: r.state.ScoreRed}
	var end EndData
	if res.over {
		winner := r.Meta.PlayerBlue.UserID
		if res.scored == RedWin {
			winner = r.Meta.PlayerRed.UserID
		}
		r.finishLocked(models.EndReasonScore, winner)
		end = EndData{Snapshot: r.snapshotLocked(), Winner: winner, Reason: models.EndReasonScore}
	}
	r.mu.Unlock()

	if res.scored != Playing {
		r.deliver(Event{Type: EventScore, RoomID: r.ID(), Payload: score})
	}
	if res.over {
		e.end(r, end)
		return false
	}
	if !r.publish(Event{Type: EventRender, RoomID: r.ID(), Payload: render}) {
		e.logger.WithField("room", r.ID()).Warn("event channel full, dropping render frame")
	}
	return true
}

// end broadcasts the final state and closes the room out. The forwarder reacts to
// game:end by asking the service to tear the room down.
func (e *Engine) end(r *Room, data EndData) {
	if !r.deliver(Event{Type: EventEnd, RoomID: r.ID(), Payload: data}) {
		e.logger.WithField("room", r.ID()).Warn("game:end not delivered, forwarder stalled")
	}
	r.mu.Lock()
	r.status = StatusEnded
	r.mu.Unlock()
}

// abort closes out a room stopped from outside before it finished on its own.
func (e *Engine) abort(r *Room) {
	if data, changed := r.closeOut(); changed {
		r.deliver(Event{Type: EventEnd, RoomID: r.ID(), Payload: data})
	}
}
