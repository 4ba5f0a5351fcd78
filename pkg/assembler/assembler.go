package assembler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"insightflow-be/pkg/memory"
	"insightflow-be/pkg/router"
	"insightflow-be/pkg/tenantindex"
)

// Budget bounds the assembled prompt. TotalChars is the hard cap on the
// whole context block; the others bound individual pieces before the
// total is enforced.
type Budget struct {
	TotalChars         int
	SnippetChars       int
	HistoryAnswerChars int
}

func DefaultBudget() Budget {
	return Budget{
		TotalChars:         2400,
		SnippetChars:       500,
		HistoryAnswerChars: 500,
	}
}

// PromptContext is the assembled input for the generation stage, plus
// bookkeeping about what had to be cut to fit the budget.
type PromptContext struct {
	Prompt        string
	TurnsIncluded int
	TurnsDropped  int
	SnippetUsed   bool
	Truncated     bool
}

// Assembler builds generation prompts from history, retrieval results
// and tool output. Pure: no I/O, no clock, no mutation of inputs.
type Assembler struct {
	budget Budget
}

func New(budget Budget) *Assembler {
	defaults := DefaultBudget()
	if budget.TotalChars <= 0 {
		budget.TotalChars = defaults.TotalChars
	}
	if budget.SnippetChars <= 0 {
		budget.SnippetChars = defaults.SnippetChars
	}
	if budget.HistoryAnswerChars <= 0 {
		budget.HistoryAnswerChars = defaults.HistoryAnswerChars
	}
	return &Assembler{budget: budget}
}

const maxHistoryTurns = 3

// Assemble composes the context block for one question. At most the
// three most recent turns are included, newest last. When the budget is
// exceeded the oldest turns are dropped first, then the retrieval
// snippet is shortened, then the tool output. The question itself is
// never cut.
func (a *Assembler) Assemble(question string, route router.Route, results []tenantindex.RetrievalResult, turns []memory.Turn, toolResult string) PromptContext {
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}

	snippet := ""
	if route == router.RouteRetrieval && len(results) > 0 && results[0].Content != "" {
		snippet = truncate(results[0].Content, a.budget.SnippetChars)
	}

	tool := ""
	if route == router.RouteTool && toolResult != "" {
		tool = toolResult
	}

	out := PromptContext{SnippetUsed: snippet != ""}

	// Shrink until the block fits: drop the oldest turn, then halve the
	// snippet, then halve the tool text, dropping each entirely once it
	// gets too small to be useful.
	included := turns
	for {
		prompt := a.render(question, included, snippet, tool)
		if len(prompt) <= a.budget.TotalChars {
			out.Prompt = prompt
			out.TurnsIncluded = len(included)
			out.TurnsDropped = len(turns) - len(included)
			out.Truncated = out.Truncated || out.TurnsDropped > 0
			return out
		}
		if len(included) > 0 {
			included = included[1:]
			continue
		}
		if len(snippet) > 0 {
			if len(snippet) > 50 {
				snippet = clip(snippet, len(snippet)/2)
			} else {
				snippet = ""
			}
			out.Truncated = true
			continue
		}
		if len(tool) > 0 {
			if len(tool) > 50 {
				tool = clip(tool, len(tool)/2)
			} else {
				tool = ""
			}
			out.Truncated = true
			continue
		}
		// Nothing left to cut; the question alone exceeds the budget.
		out.Prompt = prompt
		out.Truncated = true
		return out
	}
}

func (a *Assembler) render(question string, turns []memory.Turn, snippet, tool string) string {
	var parts []string

	if len(turns) > 0 {
		parts = append(parts, "Recent conversation context:")
		for _, turn := range turns {
			parts = append(parts, fmt.Sprintf("User asked: %s", turn.Question))
			parts = append(parts, fmt.Sprintf("You responded: %s", truncate(turn.Answer, a.budget.HistoryAnswerChars)))
		}
	}

	if snippet != "" {
		parts = append(parts, fmt.Sprintf("\nRelevant information: %s", snippet))
	}
	if tool != "" {
		parts = append(parts, fmt.Sprintf("\nTool result: %s", tool))
	}

	context := "No previous context"
	if len(parts) > 0 {
		context = strings.Join(parts, "\n")
	}

	return fmt.Sprintf("%s\n\nCurrent question: \"%s\"\n\nAnswer this question helpfully and naturally, considering the context above.", context, question)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return clip(s, max) + "..."
}

// clip cuts s to at most max bytes without splitting a rune.
func clip(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
