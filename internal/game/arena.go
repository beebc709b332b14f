package game

// Vec2 is a point or velocity in arena coordinates. The origin is the arena center,
// x grows to the right (toward red) and y grows upward.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Arena holds the arena constants shared by every room. Speeds are per tick and are
// scaled by the room's RuleState.
type Arena struct {
	ArenaWidth      float64 `json:"arenaWidth"`
	ArenaHeight     float64 `json:"arenaHeight"`
	BallRadius      float64 `json:"ballRadius"`
	BallSpeed       float64 `json:"ballSpeed"`
	PaddleThickness float64 `json:"paddleThickness"`
	PaddleLength    float64 `json:"paddleLength"`
	PaddleSpeed     float64 `json:"paddleSpeed"`
	PaddleInset     float64 `json:"paddleInset"` // distance from a side edge to the paddle center
}

// DefaultArena is the arena every room is played in.
var DefaultArena = Arena{
	ArenaWidth:      160,
	ArenaHeight:     90,
	BallRadius:      1.5,
	BallSpeed:       0.9,
	PaddleThickness: 2,
	PaddleLength:    18,
	PaddleSpeed:     1.5,
	PaddleInset:     6,
}

func (s Arena) halfWidth() float64  { return s.ArenaWidth / 2 }
func (s Arena) halfHeight() float64 { return s.ArenaHeight / 2 }

// paddleX is the fixed x coordinate of a side's paddle.
func (s Arena) paddleX(side Side) float64 {
	if side == SideBlue {
		return -s.halfWidth() + s.PaddleInset
	}
	return s.halfWidth() - s.PaddleInset
}
