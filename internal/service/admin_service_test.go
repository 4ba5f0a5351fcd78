package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightflow-be/internal/pkg/logger"
)

// stubLogger records the last GetLogs call and swallows log output.
type stubLogger struct {
	logsLevel  string
	logsLimit  int
	logsOffset int
	entries    []logger.LogEntry
}

func (s *stubLogger) Debug(module, message string, details map[string]interface{}) {}
func (s *stubLogger) Info(module, message string, details map[string]interface{})  {}
func (s *stubLogger) Warn(module, message string, details map[string]interface{})  {}
func (s *stubLogger) Error(module, message string, details map[string]interface{}) {}
func (s *stubLogger) Sync() error                                                  { return nil }

func (s *stubLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	s.logsLevel = level
	s.logsLimit = limit
	s.logsOffset = offset
	return s.entries, nil
}

func TestAdminServiceGetSystemLogs(t *testing.T) {
	log := &stubLogger{entries: []logger.LogEntry{{Id: "1", Level: "error", Message: "boom"}}}
	svc := NewAdminService(log)

	entries, err := svc.GetSystemLogs(context.Background(), 3, 20, "error")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", log.logsLevel)
	assert.Equal(t, 20, log.logsLimit)
	assert.Equal(t, 40, log.logsOffset)
}

func TestAdminServiceGetSystemLogsClampsPaging(t *testing.T) {
	log := &stubLogger{}
	svc := NewAdminService(log)

	_, err := svc.GetSystemLogs(context.Background(), 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 50, log.logsLimit)
	assert.Equal(t, 0, log.logsOffset)

	_, err = svc.GetSystemLogs(context.Background(), 1, 500, "")
	require.NoError(t, err)
	assert.Equal(t, 50, log.logsLimit)
}
