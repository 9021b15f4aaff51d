package prompts

import (
	"fmt"
	"strings"

	"github.com/datavibe/vibe-engine/pkg/models"
)

// PlanningSystemPrompt frames the planning stage.
const PlanningSystemPrompt = "You are a senior data analyst. Plan how to answer the user's question with professional-grade analysis of the dataset described below."

// BuildPlanningPrompt asks the model for an analysis plan in strict
// JSON. Prior exchanges, when present, anchor follow-up questions.
func BuildPlanningPrompt(userQuery string, schema *models.SchemaContext, history []models.Exchange) string {
	var b strings.Builder

	b.WriteString(FormatSchemaContext(schema))
	b.WriteString("\n")

	if len(history) > 0 {
		b.WriteString("## Conversation So Far\n")
		for _, ex := range history {
			b.WriteString(fmt.Sprintf("User: %s\nAnalyst: %s\n", ex.Question, ex.Answer))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("## User Question\n%s\n\n", userQuery))

	b.WriteString(fmt.Sprintf(`## Instructions
Produce an analysis plan. List at most %d exploratory questions, each answerable with one simple SQL query against the dataset, only if exploring would materially improve the final answer. An empty list is a valid plan.

Respond with pure JSON only, no prose:
{
  "understanding": "what the user is really asking",
  "approach": "how the final SQL will answer it",
  "exploratory_questions": ["question 1", "question 2"]
}
`, models.MaxExploratoryQuestions))

	return b.String()
}
