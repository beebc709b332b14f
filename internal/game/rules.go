package game

import "github.com/jason-s-yu/pong/internal/models"

// RuleState is the rule set in effect for one room. It never changes after the room
// is created.
type RuleState struct {
	BallSpeed  float64 `json:"ballSpeed"`
	PaddleSize float64 `json:"paddleSize"`
	MatchScore int     `json:"matchScore"`
}

// DefaultRuleState applies when a room is created without both players' preferences,
// e.g. from an accepted invitation.
func DefaultRuleState() RuleState {
	return RuleState{
		BallSpeed:  1,
		PaddleSize: 1,
		MatchScore: 5,
	}
}

// MergeRules resolves the rules for a new room. With both preferences present the
// ball speed and match score come from blue and the paddle size from red. The split
// is asymmetric and kept on purpose until product decides otherwise; anything short
// of two preferences falls back to the defaults.
func MergeRules(blue, red *models.RulePreference) RuleState {
	rules := DefaultRuleState()
	if blue == nil || red == nil {
		return rules
	}
	rules.BallSpeed = blue.BallSpeed
	rules.MatchScore = blue.MatchScore
	rules.PaddleSize = red.PaddleSize
	return rules
}
