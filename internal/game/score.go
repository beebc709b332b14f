package game

// ScorePosition is the outcome of checking the ball against the side edges.
type ScorePosition string

const (
	Playing ScorePosition = "playing"
	BlueWin ScorePosition = "blueWin"
	RedWin  ScorePosition = "redWin"
)

// CheckScorePosition decides whether the ball has left the arena on this tick and
// credits the point. Crossing the left edge scores for red, crossing the right edge
// scores for blue. Both comparisons are strict, so a ball exactly touching an edge is
// still in play.
func CheckScorePosition(st *InGameState, arena Arena) ScorePosition {
	ball := st.Ball.Position
	half := arena.halfWidth()

	if ball.X-arena.BallRadius < -half {
		st.ScoreRed++
		return RedWin
	}
	if ball.X+arena.BallRadius > half {
		st.ScoreBlue++
		return BlueWin
	}
	return Playing
}
