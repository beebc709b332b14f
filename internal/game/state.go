package game

import (
	"math"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/models"
)

// Side identifies one half of the arena. Blue defends the left edge, red the right.
type Side int

const (
	SideBlue Side = iota
	SideRed
)

func (s Side) String() string {
	if s == SideBlue {
		return "blue"
	}
	return "red"
}

// PaddleDirection is the movement a player requests for their paddle.
type PaddleDirection int

const (
	PaddleDown PaddleDirection = -1
	PaddleStop PaddleDirection = 0
	PaddleUp   PaddleDirection = 1
)

// Valid reports whether d is one of the known directions.
func (d PaddleDirection) Valid() bool {
	return d >= PaddleDown && d <= PaddleUp
}

// Status is a room's lifecycle position.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusActive       Status = "active"
	StatusEnding       Status = "ending"
	StatusEnded        Status = "ended"
)

// MetaData identifies a room and its players. It is fixed for the life of the room.
type MetaData struct {
	RoomID     uuid.UUID            `json:"roomId"`
	PlayerBlue models.PlayerSession `json:"playerTop"`
	PlayerRed  models.PlayerSession `json:"playerBtm"`
	IsRankGame bool                 `json:"isRankGame"`
}

// SideOf returns the side the user plays on.
func (m MetaData) SideOf(userID int64) (Side, bool) {
	switch userID {
	case m.PlayerBlue.UserID:
		return SideBlue, true
	case m.PlayerRed.UserID:
		return SideRed, true
	}
	return 0, false
}

// Opponent returns the user playing against userID.
func (m MetaData) Opponent(userID int64) int64 {
	if userID == m.PlayerBlue.UserID {
		return m.PlayerRed.UserID
	}
	return m.PlayerBlue.UserID
}

// Ball is the ball's kinematic state.
type Ball struct {
	Position Vec2 `json:"position"`
	Velocity Vec2 `json:"velocity"`
}

// Paddle is one player's paddle.
type Paddle struct {
	Position  Vec2            `json:"position"`
	Direction PaddleDirection `json:"direction"`
	Length    float64         `json:"length"`
}

// InGameState is the live physical state of a room. Only the room's own tick
// goroutine writes it.
type InGameState struct {
	Ball       Ball   `json:"ball"`
	PaddleBlue Paddle `json:"paddleBlue"`
	PaddleRed  Paddle `json:"paddleRed"`
	ScoreBlue  int    `json:"scoreBlue"`
	ScoreRed   int    `json:"scoreRed"`
}

// NewInGameState centers both paddles and the ball, zeroes the scores and serves
// toward red.
func NewInGameState(arena Arena, rules RuleState) InGameState {
	length := arena.PaddleLength * rules.PaddleSize
	st := InGameState{
		PaddleBlue: Paddle{Position: Vec2{X: arena.paddleX(SideBlue)}, Length: length},
		PaddleRed:  Paddle{Position: Vec2{X: arena.paddleX(SideRed)}, Length: length},
	}
	st.serve(arena, rules, SideRed)
	return st
}

// paddle returns a pointer to the side's paddle.
func (st *InGameState) paddle(side Side) *Paddle {
	if side == SideBlue {
		return &st.PaddleBlue
	}
	return &st.PaddleRed
}

// serve re-centers the ball and sends it toward the given side. The vertical
// component alternates with the number of points played so serves are not identical.
func (st *InGameState) serve(arena Arena, rules RuleState, toward Side) {
	speed := arena.BallSpeed * rules.BallSpeed
	vy := speed * 0.5
	if (st.ScoreBlue+st.ScoreRed)%2 == 1 {
		vy = -vy
	}
	vx := math.Sqrt(speed*speed - vy*vy)
	if toward == SideBlue {
		vx = -vx
	}
	st.Ball = Ball{Velocity: Vec2{X: vx, Y: vy}}
}
