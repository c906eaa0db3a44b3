package decision

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders an Outcome as a Markdown string.
func RenderMarkdown(outcome *Outcome) string {
	var sb strings.Builder

	sb.WriteString("# Alpha Decision Report\n\n")
	sb.WriteString(fmt.Sprintf("## Decision: %s\n\n", outcome.Decision))

	if outcome.Result != nil {
		sb.WriteString(fmt.Sprintf("Expression: `%s`\n\n", outcome.Result.Expression))
		if outcome.Reversed {
			sb.WriteString("Evaluated after sign reversal.\n\n")
		}
		if !outcome.Result.Success {
			sb.WriteString(fmt.Sprintf("Simulation failed: %s\n", outcome.Result.ErrorMessage))
			return sb.String()
		}
	}

	sb.WriteString("## Production Criteria\n\n")
	sb.WriteString("| # | Criterion | Threshold | Actual | Pass |\n")
	sb.WriteString("|---|-----------|-----------|--------|------|\n")
	for i, c := range outcome.Criteria {
		passStr := "PASS"
		if !c.Pass {
			passStr = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, c.Name, c.Threshold, c.Actual, passStr))
	}
	sb.WriteString("\n")

	passed := 0
	for _, c := range outcome.Criteria {
		if c.Pass {
			passed++
		}
	}
	sb.WriteString(fmt.Sprintf("Criteria: %d/%d passed\n\n", passed, len(outcome.Criteria)))

	sb.WriteString("## Summary\n\n")
	switch outcome.Decision {
	case DecisionAccept:
		sb.WriteString("All production criteria passed.\n")
	case DecisionHopeful:
		sb.WriteString("Strong signal, but at least one production criterion failed:\n")
		for _, c := range outcome.Criteria {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- %s (actual: %s)\n", c.Name, c.Actual))
			}
		}
	default:
		for _, c := range outcome.Criteria {
			if !c.Pass {
				sb.WriteString(fmt.Sprintf("- Failed: %s (actual: %s)\n", c.Name, c.Actual))
			}
		}
	}

	return sb.String()
}
