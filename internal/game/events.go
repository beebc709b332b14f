package game

import "github.com/google/uuid"

// EventType is the outbound event name clients subscribe to.
type EventType string

const (
	EventMatch        EventType = "game:match"
	EventReady        EventType = "game:ready"
	EventStart        EventType = "game:start"
	EventRender       EventType = "game:render"
	EventScore        EventType = "game:score"
	EventEnd          EventType = "game:end"
	EventPlayerJoin   EventType = "player:join"
	EventPlayerLeave  EventType = "player:leave"
	EventQueueExpired EventType = "game:queue-expired"
)

// Event is one outbound notification. Room scoped events carry RoomID; user scoped
// ones (queue expiry) list their recipients in Users instead.
type Event struct {
	Type    EventType   `json:"type"`
	RoomID  uuid.UUID   `json:"-"`
	Users   []int64     `json:"-"`
	Payload interface{} `json:"payload,omitempty"`
}

// Publisher delivers events to connected clients.
type Publisher interface {
	Publish(ev Event)
}

// MatchData is the payload of game:match.
type MatchData struct {
	RoomID uuid.UUID `json:"roomId"`
	Blue   int64     `json:"blue"`
	Red    int64     `json:"red"`
}

// StartData is the payload of game:start.
type StartData struct {
	Status    string `json:"status"` // "countdown" or "start"
	Remaining int    `json:"remaining,omitempty"`
}

// RenderData is the per-tick payload of game:render.
type RenderData struct {
	Ball       Ball   `json:"ball"`
	PaddleBlue Paddle `json:"paddleBlue"`
	PaddleRed  Paddle `json:"paddleRed"`
}

// ScoreData is the payload of game:score.
type ScoreData struct {
	ScoreBlue int `json:"scoreBlue"`
	ScoreRed  int `json:"scoreRed"`
}

// EndData is the payload of game:end.
type EndData struct {
	Snapshot Snapshot `json:"snapshot"`
	Winner   int64    `json:"winner"`
	Reason   string   `json:"reason"`
}

// PlayerData is the payload of player:join and player:leave.
type PlayerData struct {
	UserID int64 `json:"userSeq"`
}

// Snapshot is a consistent copy of a room, sent with game:ready, game:end and on
// reconnect.
type Snapshot struct {
	MetaData   MetaData    `json:"metaData"`
	RuleData   RuleState   `json:"ruleData"`
	InGameData InGameState `json:"inGameData"`
	Status     Status      `json:"status"`
}
