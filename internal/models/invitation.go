package models

// Invitation is an accepted game invite, resolved from the alarm store.
type Invitation struct {
	ID          int64 `json:"alarmSeq"`
	SenderSeq   int64 `json:"senderSeq"`
	ReceiverSeq int64 `json:"receiverSeq"`
}
