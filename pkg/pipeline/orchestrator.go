package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/config"
	"github.com/datavibe/vibe-engine/pkg/dataset"
	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
	"github.com/datavibe/vibe-engine/pkg/schema"
)

// Orchestrator owns the PipelineRun and sequences the stages. Whatever
// happens inside, Run returns a structurally complete Response.
type Orchestrator interface {
	Run(ctx context.Context, userQuery string, sample schema.RawDataset, history []models.Exchange) *models.Response
}

type orchestrator struct {
	builder    schema.Builder
	planner    Planner
	explorer   Explorer
	generator  SQLGenerator
	visualizer Visualizer
	insighter  Insighter
	logger     *zap.Logger
}

// New wires the full pipeline from configuration, one Generator (the
// provider chain), and one execution gateway.
func New(cfg *config.Config, gen llm.Generator, exec dataset.Executor, logger *zap.Logger) Orchestrator {
	return &orchestrator{
		builder: schema.NewBuilder(logger),
		planner: NewPlanner(gen, cfg.Pipeline.PlanningTemperature, cfg.Pipeline.ModelCallTimeout, logger),
		explorer: NewExplorer(gen, exec, ExplorerConfig{
			Temperature:  cfg.Pipeline.GenerationTemperature,
			ModelTimeout: cfg.Pipeline.ModelCallTimeout,
			ProbeTimeout: cfg.Dataset.ProbeTimeout,
			RowLimit:     cfg.Dataset.ProbeRowLimit,
			Concurrency:  cfg.Pipeline.ProbeConcurrency,
		}, logger),
		generator: NewSQLGenerator(gen, exec, GeneratorConfig{
			Temperature:  cfg.Pipeline.GenerationTemperature,
			ModelTimeout: cfg.Pipeline.ModelCallTimeout,
			MaxAttempts:  cfg.Pipeline.MaxSQLAttempts,
			RowLimit:     cfg.Dataset.ResultRowLimit,
		}, logger),
		visualizer: NewVisualizer(gen, VisualizerConfig{
			Temperature:  cfg.Pipeline.VisualizationTemperature,
			ModelTimeout: cfg.Pipeline.ModelCallTimeout,
		}, logger),
		insighter: NewInsighter(gen, InsighterConfig{
			Temperature:  cfg.Pipeline.InsightTemperature,
			ModelTimeout: cfg.Pipeline.ModelCallTimeout,
		}, logger),
		logger: logger.Named("orchestrator"),
	}
}

var _ Orchestrator = (*orchestrator)(nil)

func (o *orchestrator) Run(ctx context.Context, userQuery string, sample schema.RawDataset, history []models.Exchange) *models.Response {
	started := time.Now()
	run := models.NewPipelineRun(userQuery)

	logger := o.logger.With(zap.String("run_id", run.ID.String()))
	logger.Info("run started", zap.String("query", userQuery))

	run.Schema = o.builder.Build(sample)
	run.Plan = o.planner.Plan(ctx, userQuery, run.Schema, history)
	run.Trail = o.explorer.Explore(ctx, run.Schema, run.Plan)

	candidate, err := o.generator.Generate(ctx, userQuery, run.Schema, run.Plan, run.Trail)
	switch {
	case err == nil:
		run.Accepted = candidate
		run.Status = models.StatusSuccess
		if !candidate.Result.Empty() {
			run.Specs = o.visualizer.Select(ctx, userQuery, candidate.Result)
		}
		run.Insight = o.insighter.Synthesize(ctx, userQuery, run.Plan, candidate.Result)

	case errors.Is(err, ErrAttemptsExhausted):
		run.Status = models.StatusPartial
		run.StatusReason = err.Error()
		run.Insight = o.insighter.Synthesize(ctx, userQuery, run.Plan, nil)

	default:
		run.Status = models.StatusFailed
		run.StatusReason = "analysis is unavailable: " + err.Error()
		run.Insight = o.insighter.Synthesize(ctx, userQuery, run.Plan, nil)
	}

	elapsed := time.Since(started).Milliseconds()
	logger.Info("run finished",
		zap.String("status", string(run.Status)),
		zap.Int64("elapsed_ms", elapsed))

	return models.BuildResponse(run, elapsed)
}
