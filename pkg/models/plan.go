package models

// MaxExploratoryQuestions caps how many probes a plan may request.
const MaxExploratoryQuestions = 3

// AnalysisPlan is the planning stage output: how the model intends to
// answer the question. Produced once per run, read-only afterward.
type AnalysisPlan struct {
	Understanding        string   `json:"understanding"`
	Approach             string   `json:"approach"`
	ExploratoryQuestions []string `json:"exploratory_questions"`

	// Degraded indicates the planning model call failed and this is the
	// default fallback plan (understanding echoes the raw user query).
	Degraded bool `json:"degraded"`
}

// DefaultPlan returns the fallback plan used when the planning stage
// fails. SQL generation can proceed without exploratory questions.
func DefaultPlan(userQuery string) *AnalysisPlan {
	return &AnalysisPlan{
		Understanding:        userQuery,
		Approach:             "Answer the question directly with a single SQL query.",
		ExploratoryQuestions: []string{},
		Degraded:             true,
	}
}

// Exchange is one prior question/answer pair from an earlier turn.
// Conversation history is owned by an external collaborator; the
// pipeline only consumes it as plain input data.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
