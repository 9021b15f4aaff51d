package prompts

import (
	"fmt"
	"strings"

	"github.com/datavibe/vibe-engine/pkg/models"
)

// SQLSystemPrompt frames every SQL-producing call. The allowed-identifier
// constraint is restated per prompt with the concrete schema.
const SQLSystemPrompt = "You are a data assistant that writes SQL. You MUST only reference the table and columns listed in the schema. Never invent column names. Output a single read-only SELECT statement and nothing else."

var sqlRules = fmt.Sprintf(`## Rules
- One statement only, starting with SELECT or WITH.
- Reference only the table and columns in the schema above.
- Never use DROP, DELETE, UPDATE, INSERT, ALTER, CREATE, TRUNCATE, REPLACE, GRANT, or REVOKE.
- Add LIMIT %d unless the query aggregates to a handful of rows.
- Respond with the SQL inside a single %s code block and nothing else.
`, 1000, "```sql```")

// fewShotExamples anchor the output format on typical analytical asks.
const fewShotExamples = `## Examples
Question: Show monthly revenue trend for 2024.
` + "```sql" + `
SELECT STRFTIME('%Y-%m', order_date) AS month, SUM(revenue) AS total_revenue
FROM orders
WHERE order_date >= '2024-01-01' AND order_date < '2025-01-01'
GROUP BY month ORDER BY month LIMIT 1000
` + "```" + `

Question: What is the distribution of customer ages?
` + "```sql" + `
SELECT age, COUNT(*) AS count FROM customers GROUP BY age ORDER BY age LIMIT 1000
` + "```" + `
`

// BuildProbeSQLPrompt asks for one quick exploratory query.
func BuildProbeSQLPrompt(question string, schema *models.SchemaContext) string {
	var b strings.Builder

	b.WriteString(FormatSchemaContext(schema))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("## Exploratory Question\n%s\n\n", question))
	b.WriteString("Write one small SQL query that answers this exploratory question cheaply. Prefer aggregates and LIMIT over raw row dumps.\n\n")
	b.WriteString(sqlRules)

	return b.String()
}

// BuildSQLPrompt asks for the final query, carrying the plan and any
// exploration findings as evidence.
func BuildSQLPrompt(userQuery string, schema *models.SchemaContext, plan *models.AnalysisPlan, trail []models.ExplorationStep) string {
	var b strings.Builder

	b.WriteString(FormatSchemaContext(schema))
	b.WriteString("\n")

	if plan != nil && !plan.Degraded {
		b.WriteString("## Analysis Plan\n")
		b.WriteString(fmt.Sprintf("Understanding: %s\nApproach: %s\n\n", plan.Understanding, plan.Approach))
	}

	if findings := formatFindings(trail); findings != "" {
		b.WriteString("## Exploration Findings\n")
		b.WriteString(findings)
		b.WriteString("\n")
	}

	b.WriteString(fewShotExamples)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("## User Question\n%s\n\n", userQuery))
	b.WriteString("Write the SQL query that answers the user question.\n\n")
	b.WriteString(sqlRules)

	return b.String()
}

// BuildCorrectionPrompt feeds a failed candidate back with the exact
// error so the next attempt can fix it.
func BuildCorrectionPrompt(userQuery string, schema *models.SchemaContext, priorSQL, errorMessage string) string {
	var b strings.Builder

	b.WriteString(FormatSchemaContext(schema))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("## User Question\n%s\n\n", userQuery))
	b.WriteString("## Previous Attempt\n```sql\n")
	b.WriteString(strings.TrimSpace(priorSQL))
	b.WriteString("\n```\n\n")
	b.WriteString(fmt.Sprintf("## Error\n%s\n\n", errorMessage))
	b.WriteString("Fix the query so it runs correctly and still answers the user question.\n\n")
	b.WriteString(sqlRules)

	return b.String()
}

func formatFindings(trail []models.ExplorationStep) string {
	var b strings.Builder
	for _, step := range trail {
		if !step.Succeeded() {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", step.Question, step.Findings))
	}
	return b.String()
}
