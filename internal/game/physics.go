package game

import "math"

// tickResult is what one simulation step produced.
type tickResult struct {
	scored ScorePosition
	over   bool // a player reached the match score
}

// step advances the state by one tick: paddles, ball, wall bounces, paddle
// collisions, then the scoring check.
func step(st *InGameState, arena Arena, rules RuleState) tickResult {
	movePaddle(&st.PaddleBlue, arena)
	movePaddle(&st.PaddleRed, arena)

	st.Ball.Position = st.Ball.Position.Add(st.Ball.Velocity)
	bounceWalls(&st.Ball, arena)
	collidePaddle(&st.Ball, &st.PaddleBlue, arena, SideBlue)
	collidePaddle(&st.Ball, &st.PaddleRed, arena, SideRed)

	pos := CheckScorePosition(st, arena)
	switch pos {
	case Playing:
		return tickResult{scored: Playing}
	case RedWin:
		if st.ScoreRed >= rules.MatchScore {
			return tickResult{scored: pos, over: true}
		}
		st.serve(arena, rules, SideBlue)
	case BlueWin:
		if st.ScoreBlue >= rules.MatchScore {
			return tickResult{scored: pos, over: true}
		}
		st.serve(arena, rules, SideRed)
	}
	return tickResult{scored: pos}
}

// movePaddle applies the paddle's direction and keeps it fully inside the arena.
func movePaddle(p *Paddle, arena Arena) {
	p.Position.Y += float64(p.Direction) * arena.PaddleSpeed
	limit := arena.halfHeight() - p.Length/2
	if limit < 0 {
		limit = 0
	}
	p.Position.Y = clamp(p.Position.Y, -limit, limit)
}

// bounceWalls reflects the ball off the top and bottom edges.
func bounceWalls(b *Ball, arena Arena) {
	top := arena.halfHeight() - arena.BallRadius
	if b.Position.Y > top {
		b.Position.Y = top
		b.Velocity.Y = -math.Abs(b.Velocity.Y)
	} else if b.Position.Y < -top {
		b.Position.Y = -top
		b.Velocity.Y = math.Abs(b.Velocity.Y)
	}
}

// collidePaddle reflects the ball's x velocity when it overlaps the paddle while
// moving toward that paddle's edge.
func collidePaddle(b *Ball, p *Paddle, arena Arena, side Side) {
	approaching := (side == SideBlue && b.Velocity.X < 0) || (side == SideRed && b.Velocity.X > 0)
	if !approaching {
		return
	}
	halfT := arena.PaddleThickness / 2
	r := arena.BallRadius

	if b.Position.X+r < p.Position.X-halfT || b.Position.X-r > p.Position.X+halfT {
		return
	}
	if math.Abs(b.Position.Y-p.Position.Y) > p.Length/2+r {
		return
	}

	if side == SideBlue {
		b.Velocity.X = math.Abs(b.Velocity.X)
		b.Position.X = p.Position.X + halfT + r
	} else {
		b.Velocity.X = -math.Abs(b.Velocity.X)
		b.Position.X = p.Position.X - halfT - r
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
