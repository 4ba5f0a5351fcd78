package assembler

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"insightflow-be/pkg/memory"
	"insightflow-be/pkg/router"
	"insightflow-be/pkg/tenantindex"
)

func turns(questions ...string) []memory.Turn {
	out := make([]memory.Turn, len(questions))
	for i, q := range questions {
		out[i] = memory.Turn{Question: q, Answer: "answer to " + q, Timestamp: time.Now()}
	}
	return out
}

func results(contents ...string) []tenantindex.RetrievalResult {
	out := make([]tenantindex.RetrievalResult, len(contents))
	for i, c := range contents {
		out[i] = tenantindex.RetrievalResult{Content: c, SimilarityScore: 0.9, Rank: i + 1}
	}
	return out
}

func TestAssembleSections(t *testing.T) {
	a := New(DefaultBudget())

	pc := a.Assemble(
		"What is the GST rate?",
		router.RouteRetrieval,
		results("GST is 5 percent federally."),
		turns("earlier question"),
		"",
	)

	if !strings.Contains(pc.Prompt, "Recent conversation context:") {
		t.Errorf("prompt missing history section:\n%s", pc.Prompt)
	}
	if !strings.Contains(pc.Prompt, "Relevant information: GST is 5 percent federally.") {
		t.Errorf("prompt missing retrieval section:\n%s", pc.Prompt)
	}
	if !strings.Contains(pc.Prompt, `Current question: "What is the GST rate?"`) {
		t.Errorf("prompt missing the question:\n%s", pc.Prompt)
	}
	if !pc.SnippetUsed {
		t.Errorf("SnippetUsed = false, want true")
	}
}

func TestAssembleNoContext(t *testing.T) {
	a := New(DefaultBudget())

	pc := a.Assemble("Hello", router.RouteDirect, nil, nil, "")
	if !strings.Contains(pc.Prompt, "No previous context") {
		t.Errorf("empty inputs should yield the no-context marker:\n%s", pc.Prompt)
	}
}

func TestAssembleToolResult(t *testing.T) {
	a := New(DefaultBudget())

	pc := a.Assemble("15% of 2000", router.RouteTool, nil, nil, "15% of 2000 = 300")
	if !strings.Contains(pc.Prompt, "Tool result: 15% of 2000 = 300") {
		t.Errorf("prompt missing tool section:\n%s", pc.Prompt)
	}
}

func TestAssembleIgnoresResultsOffRoute(t *testing.T) {
	a := New(DefaultBudget())

	// Retrieval content only enters on the retrieval route.
	pc := a.Assemble("hello", router.RouteDirect, results("should not appear"), nil, "")
	if strings.Contains(pc.Prompt, "should not appear") {
		t.Errorf("retrieval snippet leaked into a direct-route prompt")
	}
}

func TestAssembleEnforcesBudget(t *testing.T) {
	budget := Budget{TotalChars: 600, SnippetChars: 200, HistoryAnswerChars: 100}
	a := New(budget)

	longAnswer := strings.Repeat("x", 400)
	history := []memory.Turn{
		{Question: "first question", Answer: longAnswer},
		{Question: "second question", Answer: longAnswer},
		{Question: "third question", Answer: longAnswer},
	}

	pc := a.Assemble(
		"short question",
		router.RouteRetrieval,
		results(strings.Repeat("y", 400)),
		history,
		"",
	)

	if len(pc.Prompt) > budget.TotalChars {
		t.Fatalf("prompt length %d exceeds budget %d", len(pc.Prompt), budget.TotalChars)
	}
	if !pc.Truncated {
		t.Errorf("Truncated = false after cuts were made")
	}
}

func TestAssembleDropsOldestTurnsFirst(t *testing.T) {
	budget := Budget{TotalChars: 900, SnippetChars: 100, HistoryAnswerChars: 200}
	a := New(budget)

	history := []memory.Turn{
		{Question: "oldest question", Answer: strings.Repeat("a", 300)},
		{Question: "middle question", Answer: strings.Repeat("b", 300)},
		{Question: "newest question", Answer: strings.Repeat("c", 300)},
	}

	pc := a.Assemble("q", router.RouteRetrieval, results("snippet text"), history, "")

	if len(pc.Prompt) > budget.TotalChars {
		t.Fatalf("prompt length %d exceeds budget %d", len(pc.Prompt), budget.TotalChars)
	}
	if strings.Contains(pc.Prompt, "oldest question") {
		t.Errorf("oldest turn survived while budget was exceeded")
	}
	if !strings.Contains(pc.Prompt, "newest question") {
		t.Errorf("newest turn was dropped before older ones")
	}
	if pc.TurnsDropped == 0 {
		t.Errorf("TurnsDropped = 0, want > 0")
	}
}

func TestAssembleTruncatesLongToolResult(t *testing.T) {
	budget := DefaultBudget()
	a := New(budget)

	pc := a.Assemble("15% of 2000", router.RouteTool, nil, nil, strings.Repeat("z", 5000))

	if len(pc.Prompt) > budget.TotalChars {
		t.Fatalf("prompt length %d exceeds budget %d", len(pc.Prompt), budget.TotalChars)
	}
	if !pc.Truncated {
		t.Errorf("Truncated = false after the tool result was cut")
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("é", 40) // two bytes per rune

	for _, max := range []int{5, 13, 50, 79} {
		got := truncate(s, max)
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%d) produced invalid UTF-8: %q", max, got)
		}
		if len(got) > max+len("...") {
			t.Errorf("truncate(%d) length = %d, want <= %d", max, len(got), max+3)
		}
	}
}

func TestAssembleMultibyteStaysValidUTF8(t *testing.T) {
	budget := Budget{TotalChars: 400, SnippetChars: 300, HistoryAnswerChars: 100}
	a := New(budget)

	pc := a.Assemble("q", router.RouteRetrieval, results(strings.Repeat("日本語", 200)), nil, "")

	if len(pc.Prompt) > budget.TotalChars {
		t.Fatalf("prompt length %d exceeds budget %d", len(pc.Prompt), budget.TotalChars)
	}
	if !utf8.ValidString(pc.Prompt) {
		t.Errorf("prompt contains invalid UTF-8 after shrinking")
	}
}

func TestAssembleAtMostThreeTurns(t *testing.T) {
	a := New(Budget{TotalChars: 100000, SnippetChars: 500, HistoryAnswerChars: 500})

	pc := a.Assemble("q", router.RouteDirect, nil, turns("t1", "t2", "t3", "t4", "t5"), "")

	if pc.TurnsIncluded != 3 {
		t.Errorf("TurnsIncluded = %d, want 3", pc.TurnsIncluded)
	}
	if strings.Contains(pc.Prompt, "t1") || strings.Contains(pc.Prompt, "t2") {
		t.Errorf("prompt includes turns beyond the most recent three")
	}
}
