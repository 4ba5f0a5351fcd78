package tools

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestCalculator(t *testing.T) {
	calc := NewCalculatorTool()
	ctx := context.Background()

	tests := []struct {
		name       string
		expression string
		want       string
	}{
		{name: "percentage", expression: "15% of 200", want: "15% of 200 = 30"},
		{name: "percent word", expression: "what is 10 percent of 50", want: "10% of 50 = 5"},
		{name: "sum", expression: "add 15 and 27", want: "Sum = 42"},
		{name: "plus sign", expression: "3 + 4", want: "Sum = 7"},
		{name: "product fallback", expression: "12 times 4", want: "12 x 4 = 48"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Execute(ctx, "calculate", map[string]string{"expression": tt.expression})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got != tt.want {
				t.Errorf("Execute(%q) = %q, want %q", tt.expression, got, tt.want)
			}
		})
	}
}

func TestCalculatorErrors(t *testing.T) {
	calc := NewCalculatorTool()
	ctx := context.Background()

	if _, err := calc.Execute(ctx, "calculate", map[string]string{"expression": "only 1 number"}); err == nil {
		t.Errorf("expected an error with fewer than two numbers")
	}
	if _, err := calc.Execute(ctx, "differentiate", nil); err == nil {
		t.Errorf("expected an error for an unknown method")
	}
}

func TestDatetime(t *testing.T) {
	fixed := time.Date(2025, time.March, 14, 15, 4, 0, 0, time.UTC)
	dt := &DatetimeTool{now: func() time.Time { return fixed }}
	ctx := context.Background()

	today, err := dt.Execute(ctx, "today", nil)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if today != "Today is Friday, March 14, 2025" {
		t.Errorf("today = %q", today)
	}

	now, err := dt.Execute(ctx, "now", nil)
	if err != nil {
		t.Fatalf("now: %v", err)
	}
	if !strings.Contains(now, "Friday, March 14, 2025 at 3:04 PM") {
		t.Errorf("now = %q", now)
	}

	if _, err := dt.Execute(ctx, "yesterday", nil); err == nil {
		t.Errorf("expected an error for an unknown method")
	}
}

func TestWebSearchFallback(t *testing.T) {
	ws := NewWebSearchTool("", "")

	got, err := ws.Execute(context.Background(), "search", map[string]string{"query": "GST filing deadline"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(got, "canada.ca") || !strings.Contains(got, "GST filing deadline") {
		t.Errorf("fallback text missing expected content: %q", got)
	}

	if _, err := ws.Execute(context.Background(), "search", map[string]string{}); err == nil {
		t.Errorf("expected an error for an empty query")
	}
}

func TestRegistryInvokeSelection(t *testing.T) {
	r := NewDefaultRegistry("", "")
	ctx := context.Background()

	tests := []struct {
		name       string
		question   string
		wantTool   string
		wantMethod string
	}{
		{name: "date question", question: "What is the date today?", wantTool: "datetime", wantMethod: "today"},
		{name: "time question", question: "what time is it", wantTool: "datetime", wantMethod: "now"},
		{name: "weather question", question: "weather in Toronto this week", wantTool: "web_search", wantMethod: "search"},
		{name: "arithmetic question", question: "calculate 15% of 2000", wantTool: "calculator", wantMethod: "calculate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := r.Invoke(ctx, tt.question)
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			if inv.Tool != tt.wantTool || inv.Method != tt.wantMethod {
				t.Errorf("Invoke(%q) picked %s.%s, want %s.%s", tt.question, inv.Tool, inv.Method, tt.wantTool, tt.wantMethod)
			}
			if inv.Result == "" {
				t.Errorf("Invoke(%q) produced an empty result", tt.question)
			}
		})
	}
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewDefaultRegistry("", "")

	if _, err := r.Execute(context.Background(), "translator", "translate", nil); err == nil {
		t.Errorf("expected an error for an unknown tool")
	}
}
