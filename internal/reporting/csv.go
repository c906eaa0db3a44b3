package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the alpha rows as CSV string.
func RenderCSV(alphas []AlphaRow) string {
	var sb strings.Builder

	sb.WriteString("short_id,expression,decision,sharpe,fitness,turnover,returns,found_at\n")

	for _, a := range alphas {
		expr := a.Expression
		if strings.ContainsAny(expr, ",\"") {
			expr = "\"" + strings.ReplaceAll(expr, "\"", "\"\"") + "\""
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%.6f,%.6f,%d\n",
			a.ShortID, expr, a.Decision,
			a.Sharpe, a.Fitness, a.Turnover, a.Returns, a.FoundAt))
	}

	return sb.String()
}
