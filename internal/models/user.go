package models

// User is the subset of a platform account the game service needs. Accounts are owned
// by the user service; the game only reads them.
type User struct {
	Seq       int64  `json:"userSeq"`
	Login     string `json:"userId"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
