package models

// ExplorationStep records one exploratory probe: the question it set out
// to answer, the SQL it ran, and what came back. The ordered sequence of
// steps forms the run's user-visible reasoning trail. Append-only during
// the exploration stage.
type ExplorationStep struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`

	// Rows holds the probe's result rows on success; nil on failure.
	Rows []map[string]any `json:"rows,omitempty"`

	// Err holds the failure description when the probe could not run.
	// A failed probe is still a valid trail entry.
	Err string `json:"error,omitempty"`

	// Findings is a short deterministic summary of the outcome, fed to
	// SQL generation as contextual evidence.
	Findings string `json:"findings"`
}

// Succeeded reports whether the probe executed without error.
func (s *ExplorationStep) Succeeded() bool {
	return s.Err == ""
}
