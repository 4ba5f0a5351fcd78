package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightflow-be/internal/pkg/logger"
)

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{})  {}
func (quietLogger) Warn(module, message string, details map[string]interface{})  {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error                                                  { return nil }
func (quietLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}

func (h *Hub) hasClients(orgID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[orgID]
	return ok
}

// A client whose Send buffer is full gets unregistered by the hub loop,
// which is the only place allowed to close Send. A second notification
// for the same org must not close the channel again.
func TestNotifyFullBufferUnregistersOnce(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	client := &Client{Hub: h, OrgID: "org-a", Send: make(chan []byte, 1)}
	h.register <- client
	client.Send <- []byte("occupied")

	h.Notify("org-a", Notification{Event: "document.indexed", Timestamp: time.Now()})

	deadline := time.Now().Add(time.Second)
	for h.hasClients("org-a") {
		require.True(t, time.Now().Before(deadline), "client was never unregistered")
		time.Sleep(2 * time.Millisecond)
	}

	// No registered clients left for the org, so this must be a no-op.
	h.Notify("org-a", Notification{Event: "turn.completed", Timestamp: time.Now()})

	<-client.Send // the message that filled the buffer
	select {
	case msg, open := <-client.Send:
		assert.False(t, open, "expected Send to be closed, got message %q", msg)
	case <-time.After(time.Second):
		t.Fatal("Send channel was never closed")
	}
}

func TestNotifyDeliversToRegisteredClient(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	client := &Client{Hub: h, OrgID: "org-b", Send: make(chan []byte, 4)}
	h.register <- client

	h.Notify("org-b", Notification{Event: "session.evicted", Timestamp: time.Now()})

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), "session.evicted")
	case <-time.After(time.Second):
		t.Fatal("notification was never delivered")
	}
}
