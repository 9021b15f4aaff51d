// Package prompts builds the text sent to the model providers for each
// pipeline stage. Builders are pure functions over pipeline state; the
// stage code owns temperatures and parsing.
package prompts

import (
	"fmt"
	"strings"

	"github.com/datavibe/vibe-engine/pkg/models"
)

// FormatSchemaContext renders the dataset context as a markdown block
// shared by every stage prompt.
func FormatSchemaContext(schema *models.SchemaContext) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("## Dataset: %s\n", schema.TableName))
	b.WriteString(fmt.Sprintf("Rows sampled: %d\n\n", schema.RowCount))

	if len(schema.Columns) == 0 {
		b.WriteString("No column information available.\n")
		return b.String()
	}

	b.WriteString("### Columns\n")
	for _, col := range schema.Columns {
		b.WriteString(fmt.Sprintf("- %s (%s, %s)", col.Name, col.DeclaredType, col.SemanticType))
		if details := columnDetails(col); details != "" {
			b.WriteString(": " + details)
		}
		b.WriteString("\n")
	}

	if len(schema.BusinessPatterns) > 0 {
		b.WriteString("\n### Observed Patterns\n")
		for _, p := range schema.BusinessPatterns {
			b.WriteString("- " + p + "\n")
		}
	}

	return b.String()
}

func columnDetails(col models.ColumnProfile) string {
	var parts []string

	if s := col.Stats; s != nil {
		switch {
		case s.Min != nil && s.Max != nil:
			parts = append(parts, fmt.Sprintf("range %.4g to %.4g", *s.Min, *s.Max))
		case s.MinDate != "":
			parts = append(parts, fmt.Sprintf("dates %s to %s", s.MinDate, s.MaxDate))
		}
		if s.DistinctCount > 0 {
			parts = append(parts, fmt.Sprintf("%d distinct", s.DistinctCount))
		}
	}

	if len(col.TopValues) > 0 {
		values := make([]string, 0, len(col.TopValues))
		for _, tv := range col.TopValues {
			values = append(values, tv.Value)
		}
		parts = append(parts, "values: "+strings.Join(values, ", "))
	} else if len(col.SampleValues) > 0 {
		parts = append(parts, "e.g. "+strings.Join(col.SampleValues, ", "))
	}

	return strings.Join(parts, "; ")
}
