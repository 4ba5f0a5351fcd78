package memory

import (
	"time"
)

// Turn is one completed question/answer exchange. Answers are truncated
// by the caller before storage so a single verbose reply cannot crowd
// out the rest of the window.
type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Route     string    `json:"route"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a bounded sliding window of recent turns for one
// conversation within one organization.
type Session struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	MessageCount int       `json:"message_count"`
	Turns        []Turn    `json:"turns"`
}

// SessionInfo is the read-only view returned to API consumers.
type SessionInfo struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	MessageCount int       `json:"message_count"`
	TurnCount    int       `json:"turn_count"`
}
