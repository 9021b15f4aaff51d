package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
	"github.com/datavibe/vibe-engine/pkg/prompts"
)

// Planner produces the analysis plan for a run. It never fails: any
// provider or parse error degrades to the default plan.
type Planner interface {
	Plan(ctx context.Context, userQuery string, schema *models.SchemaContext, history []models.Exchange) *models.AnalysisPlan
}

type planner struct {
	gen         llm.Generator
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// NewPlanner creates the planning stage.
func NewPlanner(gen llm.Generator, temperature float64, timeout time.Duration, logger *zap.Logger) Planner {
	return &planner{
		gen:         gen,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger.Named("planner"),
	}
}

var _ Planner = (*planner)(nil)

type planPayload struct {
	Understanding        string   `json:"understanding"`
	Approach             string   `json:"approach"`
	ExploratoryQuestions []string `json:"exploratory_questions"`
}

func (p *planner) Plan(ctx context.Context, userQuery string, schema *models.SchemaContext, history []models.Exchange) *models.AnalysisPlan {
	prompt := prompts.BuildPlanningPrompt(userQuery, schema, history)

	result, err := callModel(ctx, p.gen, p.timeout, prompt, prompts.PlanningSystemPrompt, p.temperature)
	if err != nil {
		p.logger.Warn("planning call failed, using default plan", zap.Error(err))
		return models.DefaultPlan(userQuery)
	}

	payload, err := llm.ParseJSONResponse[planPayload](result.Content)
	if err != nil {
		p.logger.Warn("planning response unparseable, using default plan", zap.Error(err))
		return models.DefaultPlan(userQuery)
	}

	if payload.Understanding == "" {
		payload.Understanding = userQuery
	}

	questions := payload.ExploratoryQuestions
	if len(questions) > models.MaxExploratoryQuestions {
		questions = questions[:models.MaxExploratoryQuestions]
	}
	if questions == nil {
		questions = []string{}
	}

	plan := &models.AnalysisPlan{
		Understanding:        payload.Understanding,
		Approach:             payload.Approach,
		ExploratoryQuestions: questions,
	}

	p.logger.Debug("plan produced",
		zap.String("understanding", plan.Understanding),
		zap.Int("probes", len(plan.ExploratoryQuestions)))

	return plan
}
