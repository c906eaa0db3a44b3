package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Mining Run Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Expressions Tested | %d |\n", r.Summary.ExpressionsTested))
	sb.WriteString(fmt.Sprintf("| Total Simulations | %d |\n", r.Summary.TotalSimulations))
	sb.WriteString(fmt.Sprintf("| Alphas Found | %d |\n", r.Summary.AlphasFound))
	sb.WriteString(fmt.Sprintf("| Accepted | %d |\n", r.Summary.Accepted))
	sb.WriteString(fmt.Sprintf("| Hopeful | %d |\n", r.Summary.Hopeful))
	sb.WriteString(fmt.Sprintf("| Best Sharpe | %.4f |\n", r.Summary.BestSharpe))
	if r.Summary.BestExpression != "" {
		sb.WriteString(fmt.Sprintf("| Best Expression | `%s` |\n", r.Summary.BestExpression))
	}
	sb.WriteString("\n")

	sb.WriteString("## Mined Alphas\n\n")
	if len(r.Alphas) > 0 {
		sb.WriteString("| ID | Expression | Decision | Sharpe | Fitness | Turnover | Returns |\n")
		sb.WriteString("|----|------------|----------|--------|---------|----------|--------|\n")
		for _, a := range r.Alphas {
			sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | %.4f | %.4f | %.4f | %.4f |\n",
				a.ShortID, a.Expression, a.Decision, a.Sharpe, a.Fitness, a.Turnover, a.Returns))
		}
	} else {
		sb.WriteString("No alphas found.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Expression History\n\n")
	if len(r.History) > 0 {
		sb.WriteString("| Status | Count |\n")
		sb.WriteString("|--------|-------|\n")
		for _, h := range r.History {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", h.Status, h.Count))
		}
	} else {
		sb.WriteString("No expressions tested.\n")
	}

	return sb.String()
}
