package dto

import "time"

type SessionInfoResponse struct {
	ConversationId string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastActive     time.Time `json:"last_active"`
	MessageCount   int       `json:"message_count"`
	TurnCount      int       `json:"turn_count"`
}

type SessionTurnResponse struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Route     string    `json:"route"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionHistoryResponse struct {
	ConversationId string                `json:"conversation_id"`
	Turns          []SessionTurnResponse `json:"turns"`
}

type CleanupSessionsRequest struct {
	MaxAgeHours int `json:"max_age_hours" validate:"omitempty,min=1"`
}

type CleanupSessionsResponse struct {
	EvictedCount int `json:"evicted_count"`
}
