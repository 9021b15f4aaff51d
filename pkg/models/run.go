package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal status of a pipeline run.
type RunStatus string

const (
	// StatusSuccess means an accepted query executed (possibly with
	// zero rows) and the full response was assembled.
	StatusSuccess RunStatus = "success"

	// StatusPartial means the SQL stage exhausted its retry budget but
	// earlier artifacts (plan, trail) are still returned.
	StatusPartial RunStatus = "partial"

	// StatusFailed means the model capability was unavailable for the
	// whole pipeline and no useful work was possible.
	StatusFailed RunStatus = "failed"
)

// PipelineRun is the aggregate root binding one request to all of its
// stage artifacts. Created at request start, owned exclusively by the
// orchestrator, discarded (or persisted by an external collaborator) at
// response time.
type PipelineRun struct {
	ID        uuid.UUID
	Query     string
	StartedAt time.Time

	Schema   *SchemaContext
	Plan     *AnalysisPlan
	Trail    []ExplorationStep
	Accepted *CandidateQuery
	Specs    []VisualizationSpec
	Insight  *Insight

	Status RunStatus

	// StatusReason explains partial/failed runs for the caller.
	StatusReason string
}

// NewPipelineRun creates a run for one user query.
func NewPipelineRun(query string) *PipelineRun {
	return &PipelineRun{
		ID:        uuid.New(),
		Query:     query,
		StartedAt: time.Now(),
		Trail:     []ExplorationStep{},
	}
}
