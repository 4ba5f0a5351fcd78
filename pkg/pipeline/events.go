package pipeline

import "time"

// Event is one frame of the streaming response protocol. Exactly one
// of the payload fields is populated per type.
type Event struct {
	Type     string                 `json:"type"`
	Step     *Step                  `json:"step,omitempty"`
	Content  string                 `json:"content,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Progress float64                `json:"progress"`
}

// Step reports one completed (or just-started) pipeline stage.
type Step struct {
	Node      string                 `json:"node"`
	Status    string                 `json:"status"`
	Timestamp float64                `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

const (
	EventStep     = "step"
	EventToken    = "token"
	EventComplete = "complete"
	EventError    = "error"
)

const (
	StatusCompleted  = "completed"
	StatusInProgress = "in_progress"
	StatusError      = "error"
)

const (
	NodeQueryClassifier   = "QueryClassifier"
	NodeDocumentRetriever = "DocumentRetriever"
	NodeContextAnalyzer   = "ContextAnalyzer"
	NodeToolUser          = "ToolUser"
	NodeResponseGenerator = "ResponseGenerator"
)

// nowMillis matches the wire format: epoch milliseconds as a float.
func nowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}

func stepEvent(step *Step, progress float64) Event {
	return Event{Type: EventStep, Step: step, Progress: progress}
}

func tokenEvent(content string, progress float64) Event {
	return Event{Type: EventToken, Content: content, Progress: progress}
}

func completeEvent(metadata map[string]interface{}) Event {
	return Event{Type: EventComplete, Metadata: metadata, Progress: 100}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Error: message, Progress: 100}
}
