package models

// Finding is one key observation with the numbers backing it.
type Finding struct {
	Statement      string `json:"statement"`
	SupportingData string `json:"supporting_data,omitempty"`
}

// Insight is the structured narrative produced from the final result
// set. When NoData is true the narrative acknowledges the absence of
// results instead of citing numbers; the synthesis stage must never
// fabricate findings for an empty or missing result set.
type Insight struct {
	Summary          string    `json:"summary"`
	KeyFindings      []Finding `json:"key_findings"`
	DetailedAnalysis string    `json:"detailed_analysis,omitempty"`
	Recommendations  []string  `json:"recommendations,omitempty"`
	NoData           bool      `json:"no_data"`
}
