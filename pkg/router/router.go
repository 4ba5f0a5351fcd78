package router

import (
	"strings"
	"unicode/utf8"

	"insightflow-be/pkg/memory"
)

// Route is the downstream handling class for a question.
type Route string

const (
	RouteRetrieval Route = "retrieval"
	RouteTool      Route = "tool"
	RouteDirect    Route = "direct"
)

// Decision carries the chosen route and the name of the rule that fired,
// so callers can surface the routing rationale in step events.
type Decision struct {
	Route Route  `json:"route"`
	Rule  string `json:"rule"`
}

type rule struct {
	name    string
	matches func(in input) bool
	route   Route
}

type input struct {
	question string // lowercase, trimmed
	combined string // question plus recent topic context
	history  []memory.Turn
}

// Router classifies questions with an ordered rule table. Rules are
// evaluated top to bottom and the first match wins, so classification
// is deterministic: the same question with the same history always
// yields the same route. No model call is involved.
type Router struct {
	rules []rule
}

var greetingPhrases = []string{
	"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
	"how are you", "what's up", "thanks", "thank you", "bye", "goodbye",
}

var domainKeywords = []string{
	"tax", "deduction", "business expense", "regulation", "legal", "rule",
	"requirement", "compliance", "gst", "hst", "freelancer", "rate",
	"bracket", "income tax", "document", "policy", "guideline",
	"explain", "what is", "how to", "define", "meaning", "example",
}

var toolKeywords = []string{
	"calculate", "compute", "weather", "price", "current", "recent",
	"news", "+", "%", "percent", "date", "time", "today", "now",
	"what day", "what time",
}

var carryOverKeywords = []string{
	"tax", "deduction", "business", "legal", "rule",
}

func New() *Router {
	return &Router{
		rules: []rule{
			{name: "greeting", matches: matchGreeting, route: RouteDirect},
			{name: "domain_keywords", matches: matchDomain, route: RouteRetrieval},
			{name: "tool_keywords", matches: matchTool, route: RouteTool},
			{name: "topic_carry_over", matches: matchCarryOver, route: RouteRetrieval},
		},
	}
}

// Classify picks a route for the question given the recent history.
// Only the last three turns influence the decision: their questions and
// the leading slice of their answers fold into the keyword matching, so
// a follow-up inside a domain conversation stays on the retrieval path.
func (r *Router) Classify(question string, history []memory.Turn) Decision {
	if len(history) > 3 {
		history = history[len(history)-3:]
	}

	in := input{
		question: strings.ToLower(strings.TrimSpace(question)),
		history:  history,
	}
	in.combined = in.question + " " + topicContext(history)

	for _, rl := range r.rules {
		if rl.matches(in) {
			return Decision{Route: rl.route, Rule: rl.name}
		}
	}
	return Decision{Route: RouteDirect, Rule: "default"}
}

// topicContext flattens recent turns into a lowercase bag of text.
// Answers are clipped so one long reply does not dominate the match.
func topicContext(history []memory.Turn) string {
	var sb strings.Builder
	for _, turn := range history {
		sb.WriteString(strings.ToLower(turn.Question))
		sb.WriteString(" ")
		answer := strings.ToLower(turn.Answer)
		if len(answer) > 100 {
			cut := 100
			for cut > 0 && !utf8.RuneStart(answer[cut]) {
				cut--
			}
			answer = answer[:cut]
		}
		sb.WriteString(answer)
		sb.WriteString(" ")
	}
	return sb.String()
}

// matchGreeting applies to the question alone, never the history: a
// conversation that started with "hi" must not stay direct forever.
func matchGreeting(in input) bool {
	for _, phrase := range greetingPhrases {
		if strings.Contains(in.question, phrase) {
			return true
		}
	}
	return false
}

func matchDomain(in input) bool {
	return containsAny(in.combined, domainKeywords)
}

func matchTool(in input) bool {
	return containsAny(in.combined, toolKeywords)
}

// matchCarryOver routes short follow-ups ("why?", "how much?") toward
// retrieval when the previous question was about the knowledge domain.
func matchCarryOver(in input) bool {
	if len(in.history) == 0 {
		return false
	}
	if len(strings.Fields(in.question)) > 3 {
		return false
	}
	previous := strings.ToLower(in.history[len(in.history)-1].Question)
	return containsAny(previous, carryOverKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
