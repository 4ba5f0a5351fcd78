package service

import (
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightflow-be/pkg/memory"
)

func TestChatServiceSessionLifecycle(t *testing.T) {
	sessions := memory.NewManager(10, time.Hour)
	cs := NewChatService(nil, sessions, &stubLogger{})

	sessions.AppendTurn("org-a", "conv", memory.Turn{
		Question: "What is the GST rate?", Answer: "Five percent.", Route: "retrieval", Timestamp: time.Now(),
	})

	info, err := cs.SessionInfo("org-a", "conv")
	require.NoError(t, err)
	assert.Equal(t, "conv", info.ConversationId)
	assert.Equal(t, 2, info.MessageCount)
	assert.Equal(t, 1, info.TurnCount)

	hist, err := cs.SessionHistory("org-a", "conv")
	require.NoError(t, err)
	require.Len(t, hist.Turns, 1)
	assert.Equal(t, "What is the GST rate?", hist.Turns[0].Question)
	assert.Equal(t, "retrieval", hist.Turns[0].Route)

	require.NoError(t, cs.DeleteSession("org-a", "conv"))

	_, err = cs.SessionInfo("org-a", "conv")
	require.Error(t, err)
	var fe *fiber.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fiber.StatusNotFound, fe.Code)
}

func TestChatServiceUnknownSession(t *testing.T) {
	cs := NewChatService(nil, memory.NewManager(10, time.Hour), &stubLogger{})

	_, err := cs.SessionInfo("org-a", "missing")
	require.Error(t, err)

	_, err = cs.SessionHistory("org-a", "missing")
	require.Error(t, err)

	err = cs.DeleteSession("org-a", "missing")
	require.Error(t, err)
}

func TestChatServiceCleanupSessions(t *testing.T) {
	sessions := memory.NewManager(10, time.Hour)
	cs := NewChatService(nil, sessions, &stubLogger{})

	sessions.AppendTurn("org-a", "one", memory.Turn{Question: "q", Answer: "a"})
	sessions.AppendTurn("org-a", "two", memory.Turn{Question: "q", Answer: "a"})

	time.Sleep(5 * time.Millisecond)

	res := cs.CleanupSessions(time.Millisecond)
	assert.Equal(t, 2, res.EvictedCount)
	assert.Equal(t, 0, sessions.ActiveSessions())
}
