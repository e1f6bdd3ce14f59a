package models

import "time"

// Message represents a persisted direct message between two users.
// The server assigns ID and CreatedAt at persistence time. Text is an opaque
// blob that may or may not be ciphertext depending on IsEncrypted; the server
// never inspects it.
type Message struct {
	ID          string     `json:"id"`        // Server-assigned identity, immutable once persisted.
	Sender      string     `json:"sender"`    // UserId of the sender.
	Recipient   string     `json:"recipient"` // UserId of the recipient.
	Text        string     `json:"text"`      // Opaque payload.
	IsEncrypted bool       `json:"isEncrypted"`
	Timestamp   string     `json:"timestamp"` // Display time string, e.g. "3:04PM".
	Reactions   []string   `json:"reactions"` // Ordered reaction tokens, duplicates allowed.
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	// DisappearingIn is an advisory client-side expiry in seconds. The server
	// stores and echoes it but does not enforce expiry.
	DisappearingIn int       `json:"disappearingIn,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserAnalytics accumulates per-user session statistics updated on disconnect.
type UserAnalytics struct {
	UserID         string    `json:"userId"`
	TotalTimeSpent int64     `json:"totalTimeSpent"` // Whole minutes across all sessions.
	LastActive     time.Time `json:"lastActive"`
}
