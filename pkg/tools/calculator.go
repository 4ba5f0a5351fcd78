package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CalculatorTool evaluates the arithmetic hidden inside a natural
// language question. It extracts the numbers and picks the operation
// from the question's wording rather than parsing a full expression.
type CalculatorTool struct{}

func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

func (t *CalculatorTool) Name() string {
	return "calculator"
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

func (t *CalculatorTool) Execute(ctx context.Context, method string, args map[string]string) (string, error) {
	if method != "calculate" {
		return "", fmt.Errorf("calculator: unknown method %q", method)
	}
	expression := args["expression"]

	matches := numberPattern.FindAllString(expression, -1)
	if len(matches) < 2 {
		return "", fmt.Errorf("calculator: could not extract numbers from %q", expression)
	}

	numbers := make([]float64, len(matches))
	for i, m := range matches {
		n, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return "", fmt.Errorf("calculator: parse %q: %w", m, err)
		}
		numbers[i] = n
	}

	lower := strings.ToLower(expression)
	switch {
	case strings.Contains(lower, "%") || strings.Contains(lower, "percent"):
		result := numbers[0] * numbers[1] / 100
		return fmt.Sprintf("%s%% of %s = %s", matches[0], matches[1], formatNumber(result)), nil
	case strings.Contains(lower, "+") || strings.Contains(lower, "sum") || strings.Contains(lower, "add"):
		sum := 0.0
		for _, n := range numbers {
			sum += n
		}
		return fmt.Sprintf("Sum = %s", formatNumber(sum)), nil
	default:
		result := numbers[0] * numbers[1]
		return fmt.Sprintf("%s x %s = %s", matches[0], matches[1], formatNumber(result)), nil
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
