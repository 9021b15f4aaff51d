package prompts

import (
	"fmt"
	"strings"

	"github.com/datavibe/vibe-engine/pkg/models"
)

// InsightSystemPrompt frames narrative synthesis.
const InsightSystemPrompt = "You are a management consultant. Provide a sharp, executive-grade summary of the data, citing only numbers that appear in it."

// maxInsightPreviewRows bounds how much result data the prompt carries.
const maxInsightPreviewRows = 20

// BuildInsightPrompt asks for the structured narrative in strict JSON.
// Callers must not invoke this for empty results; the no-data narrative
// is deterministic and never touches a model.
func BuildInsightPrompt(userQuery string, plan *models.AnalysisPlan, result *models.ResultSet) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("## User Question\n%s\n\n", userQuery))

	if plan != nil && !plan.Degraded {
		b.WriteString(fmt.Sprintf("## Analysis Approach\n%s\n\n", plan.Approach))
	}

	b.WriteString(fmt.Sprintf("## Data (%d rows", result.RowCount))
	if result.Truncated {
		b.WriteString(", truncated")
	}
	b.WriteString(")\n")
	b.WriteString(formatRowsPreview(result.Rows, maxInsightPreviewRows))

	b.WriteString(`
## Instructions
1. Summary: one or two sentences with the high-level takeaway.
2. Key findings: the observations that matter, each backed by specific numbers from the data.
3. Detailed analysis: a short paragraph connecting the findings to the user's question.
4. Recommendations: concrete next steps, only where the data supports them.

Every number you cite must appear in the data above. Respond with pure JSON only:
{
  "summary": "...",
  "key_findings": [{"statement": "...", "supporting_data": "..."}],
  "detailed_analysis": "...",
  "recommendations": ["..."]
}
`)

	return b.String()
}
