package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/datavibe/vibe-engine/pkg/models"
)

// VisualizationSystemPrompt frames chart selection.
const VisualizationSystemPrompt = "You are a data visualization specialist. Choose chart types that make the result set easiest to read."

// maxVizPreviewRows bounds how much result data the prompt carries.
const maxVizPreviewRows = 10

// BuildVisualizationPrompt asks for 1-3 chart specs bound to result
// columns, in strict JSON.
func BuildVisualizationPrompt(userQuery string, result *models.ResultSet) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("## User Question\n%s\n\n", userQuery))

	b.WriteString("## Result Columns\n")
	for _, col := range result.Columns {
		b.WriteString(fmt.Sprintf("- %s (%s)\n", col.Name, col.Type))
	}

	b.WriteString(fmt.Sprintf("\n## Result Preview (%d of %d rows)\n", previewCount(result), result.RowCount))
	b.WriteString(formatRowsPreview(result.Rows, maxVizPreviewRows))

	b.WriteString(`
## Instructions
Propose 1 to 3 visualizations for this result set. Allowed kinds: bar, line, pie, scatter, multi_line, table. Field names must match result columns exactly.

Respond with pure JSON only:
{
  "visualizations": [
    {"kind": "bar", "x_field": "...", "y_field": "...", "series_field": "", "title": "...", "x_label": "...", "y_label": "..."}
  ]
}
`)

	return b.String()
}

func previewCount(result *models.ResultSet) int {
	if result.RowCount < maxVizPreviewRows {
		return result.RowCount
	}
	return maxVizPreviewRows
}

func formatRowsPreview(rows []map[string]any, max int) string {
	if len(rows) > max {
		rows = rows[:max]
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "[]"
	}
	return string(data) + "\n"
}
