package dto

import "insightflow-be/pkg/pipeline"

type QueryRequest struct {
	Question       string `json:"question" validate:"required,min=1"`
	ConversationId string `json:"conversation_id"`
}

// Conversation defaults to a shared per-org thread when the client
// does not track its own conversation ids.
func (r *QueryRequest) ConversationOrDefault() string {
	if r.ConversationId == "" {
		return "default"
	}
	return r.ConversationId
}

type QueryResponse struct {
	Answer         string                 `json:"answer"`
	ConversationId string                 `json:"conversation_id"`
	Steps          []*pipeline.Step       `json:"steps"`
	Metadata       map[string]interface{} `json:"metadata"`
}
