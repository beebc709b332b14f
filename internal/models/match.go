package models

import (
	"time"

	"github.com/google/uuid"
)

// End reasons recorded in a MatchSummary.
const (
	EndReasonScore   = "score"
	EndReasonForfeit = "forfeit"
	EndReasonAborted = "aborted"
)

// MatchSummary is the post-match record handed to the match history store.
type MatchSummary struct {
	RoomID       uuid.UUID `json:"roomId"`
	BlueUserID   int64     `json:"blueUserSeq"`
	RedUserID    int64     `json:"redUserSeq"`
	ScoreBlue    int       `json:"scoreBlue"`
	ScoreRed     int       `json:"scoreRed"`
	WinnerUserID int64     `json:"winnerUserSeq"`
	IsRankGame   bool      `json:"isRankGame"`
	Reason       string    `json:"reason"`
	StartedAt    time.Time `json:"startedAt"`
	EndedAt      time.Time `json:"endedAt"`
}
