package models

// Response is the structured payload handed to the API/UI layer. It is
// always structurally complete: AnalysisPlan and ExplorationTrail are
// never nil regardless of which stages degraded, so the caller never
// receives a malformed payload.
type Response struct {
	RunID                string              `json:"run_id"`
	NaturalLanguageQuery string              `json:"natural_language_query"`
	GeneratedSQL         *string             `json:"generated_sql"`
	ResultData           []map[string]any    `json:"result_data"`
	ResultTruncated      bool                `json:"result_truncated,omitempty"`
	VisualizationSpecs   []VisualizationSpec `json:"visualization_specs"`
	Insights             *Insight            `json:"insights"`
	AnalysisPlan         *AnalysisPlan       `json:"analysis_plan"`
	ExplorationTrail     []ExplorationStep   `json:"exploration_trail"`
	Status               RunStatus           `json:"status"`
	StatusReason         string              `json:"status_reason,omitempty"`
	ElapsedMs            int64               `json:"elapsed_ms"`
}

// BuildResponse assembles the payload from a finished run. Nil-safe for
// every degraded field so the payload shape is stable under partial
// failure.
func BuildResponse(run *PipelineRun, elapsedMs int64) *Response {
	resp := &Response{
		RunID:                run.ID.String(),
		NaturalLanguageQuery: run.Query,
		VisualizationSpecs:   run.Specs,
		Insights:             run.Insight,
		AnalysisPlan:         run.Plan,
		ExplorationTrail:     run.Trail,
		Status:               run.Status,
		StatusReason:         run.StatusReason,
		ElapsedMs:            elapsedMs,
	}
	if resp.AnalysisPlan == nil {
		resp.AnalysisPlan = DefaultPlan(run.Query)
	}
	if resp.ExplorationTrail == nil {
		resp.ExplorationTrail = []ExplorationStep{}
	}
	if resp.VisualizationSpecs == nil {
		resp.VisualizationSpecs = []VisualizationSpec{}
	}
	if run.Accepted != nil && run.Accepted.Accepted() {
		sqlText := run.Accepted.SQL
		resp.GeneratedSQL = &sqlText
		resp.ResultData = run.Accepted.Result.Rows
		resp.ResultTruncated = run.Accepted.Result.Truncated
	}
	return resp
}
