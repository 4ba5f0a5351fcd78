package tools

import (
	"context"
	"fmt"
	"strings"
)

// Tool executes one named method with string arguments and returns an
// opaque textual result the generation stage folds into its prompt.
type Tool interface {
	Name() string
	Execute(ctx context.Context, method string, args map[string]string) (string, error)
}

// Registry holds the available tools and selects one per question.
type Registry struct {
	tools map[string]Tool
}

// Invocation records which tool ran and what it produced.
type Invocation struct {
	Tool   string `json:"tool"`
	Method string `json:"method"`
	Result string `json:"result"`
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// NewDefaultRegistry wires the built-in tool set.
func NewDefaultRegistry(searchApiKey, searchEngineID string) *Registry {
	return NewRegistry(
		NewCalculatorTool(),
		NewDatetimeTool(),
		NewWebSearchTool(searchApiKey, searchEngineID),
	)
}

// Execute runs a specific tool method directly.
func (r *Registry) Execute(ctx context.Context, tool, method string, args map[string]string) (string, error) {
	t, ok := r.tools[tool]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", tool)
	}
	return t.Execute(ctx, method, args)
}

// Invoke picks a tool from the question's wording and runs it. The
// selection mirrors the routing vocabulary: date/time words go to the
// datetime tool, live-data words to web search, everything else to the
// calculator.
func (r *Registry) Invoke(ctx context.Context, question string) (*Invocation, error) {
	q := strings.ToLower(question)

	var tool, method string
	args := map[string]string{}

	switch {
	case containsAny(q, []string{"date", "today", "now", "what day"}) ||
		(strings.Contains(q, "what") && strings.Contains(q, "time")):
		tool = "datetime"
		method = "today"
		if strings.Contains(q, "time") {
			method = "now"
		}
	case containsAny(q, []string{"weather", "news", "current events", "price"}):
		tool = "web_search"
		method = "search"
		args["query"] = question
	default:
		tool = "calculator"
		method = "calculate"
		args["expression"] = question
	}

	result, err := r.Execute(ctx, tool, method, args)
	if err != nil {
		return nil, err
	}
	return &Invocation{Tool: tool, Method: method, Result: result}, nil
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
