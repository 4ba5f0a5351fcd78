package events

import "time"

// Event is the contract every bus message satisfies.
type Event interface {
	// EventType returns the subject suffix for this event (e.g. "turn.completed").
	EventType() string

	// Payload returns the data carried by the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeTurnCompleted   = "turn.completed"
	TypeDocumentIndexed = "document.indexed"
	TypeDocumentDeleted = "document.deleted"
)

// BaseEvent is the common implementation; constructors below produce
// well-formed instances for each domain event.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewTurnCompleted signals that a question/answer exchange was
// committed to session memory.
func NewTurnCompleted(orgID, conversationID, route string) BaseEvent {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"org_id":          orgID,
			"conversation_id": conversationID,
			"route":           route,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentIndexed signals that a document's chunks were written to
// the org's namespace.
func NewDocumentIndexed(orgID, documentID string, chunkCount int) BaseEvent {
	return BaseEvent{
		Type: TypeDocumentIndexed,
		Data: map[string]interface{}{
			"org_id":      orgID,
			"document_id": documentID,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentDeleted signals that chunks were removed from the org's
// namespace.
func NewDocumentDeleted(orgID, selector string, deletedCount int) BaseEvent {
	return BaseEvent{
		Type: TypeDocumentDeleted,
		Data: map[string]interface{}{
			"org_id":        orgID,
			"selector":      selector,
			"deleted_count": deletedCount,
		},
		OccurredAt: time.Now(),
	}
}
