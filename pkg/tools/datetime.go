package tools

import (
	"context"
	"fmt"
	"time"
)

// DatetimeTool answers date and time questions from the server clock.
type DatetimeTool struct {
	now func() time.Time
}

func NewDatetimeTool() *DatetimeTool {
	return &DatetimeTool{now: time.Now}
}

func (t *DatetimeTool) Name() string {
	return "datetime"
}

func (t *DatetimeTool) Execute(ctx context.Context, method string, args map[string]string) (string, error) {
	switch method {
	case "today":
		return fmt.Sprintf("Today is %s", t.now().Format("Monday, January 2, 2006")), nil
	case "now":
		return fmt.Sprintf("The current date and time is %s", t.now().Format("Monday, January 2, 2006 at 3:04 PM MST")), nil
	default:
		return "", fmt.Errorf("datetime: unknown method %q", method)
	}
}
