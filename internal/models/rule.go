package models

import "errors"

// ErrInvalidRule is returned when a submitted rule preference is out of range.
var ErrInvalidRule = errors.New("invalid rule preference")

// Bounds for player submitted rule values.
const (
	MinRuleScale  = 0.25
	MaxRuleScale  = 3.0
	MinMatchScore = 1
	MaxMatchScore = 21
)

// RulePreference is the rule signature a player submits with "enQ".
// It is immutable once enqueued.
type RulePreference struct {
	BallSpeed  float64 `json:"ballSpeed"`
	PaddleSize float64 `json:"paddleSize"`
	MatchScore int     `json:"matchScore"`
	IsRankGame bool    `json:"isRankGame"`
}

// Validate checks that every value is inside the accepted range.
func (r RulePreference) Validate() error {
	if r.BallSpeed < MinRuleScale || r.BallSpeed > MaxRuleScale {
		return ErrInvalidRule
	}
	if r.PaddleSize < MinRuleScale || r.PaddleSize > MaxRuleScale {
		return ErrInvalidRule
	}
	if r.MatchScore < MinMatchScore || r.MatchScore > MaxMatchScore {
		return ErrInvalidRule
	}
	return nil
}

// CompatibleWith reports whether two preferences may be paired. Only the ranked flag
// has to agree; the remaining values are merged when the room is created.
func (r RulePreference) CompatibleWith(o RulePreference) bool {
	return r.IsRankGame == o.IsRankGame
}
