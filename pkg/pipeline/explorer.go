package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/datavibe/vibe-engine/pkg/dataset"
	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
	"github.com/datavibe/vibe-engine/pkg/prompts"
	sqlval "github.com/datavibe/vibe-engine/pkg/sql"
)

// Explorer runs the plan's exploratory probes. A probe failure becomes
// a trail entry, never a stage failure, so the trail always reflects
// what was attempted.
type Explorer interface {
	Explore(ctx context.Context, schema *models.SchemaContext, plan *models.AnalysisPlan) []models.ExplorationStep
}

// ExplorerConfig bounds the exploration stage.
type ExplorerConfig struct {
	Temperature  float64
	ModelTimeout time.Duration
	ProbeTimeout time.Duration
	RowLimit     int
	Concurrency  int
}

type explorer struct {
	gen    llm.Generator
	exec   dataset.Executor
	cfg    ExplorerConfig
	logger *zap.Logger
}

// NewExplorer creates the exploration stage.
func NewExplorer(gen llm.Generator, exec dataset.Executor, cfg ExplorerConfig, logger *zap.Logger) Explorer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &explorer{
		gen:    gen,
		exec:   exec,
		cfg:    cfg,
		logger: logger.Named("explorer"),
	}
}

var _ Explorer = (*explorer)(nil)

// Explore runs the probes concurrently but returns steps in plan order.
func (e *explorer) Explore(ctx context.Context, schema *models.SchemaContext, plan *models.AnalysisPlan) []models.ExplorationStep {
	questions := plan.ExploratoryQuestions
	if len(questions) > models.MaxExploratoryQuestions {
		questions = questions[:models.MaxExploratoryQuestions]
	}
	if len(questions) == 0 {
		return []models.ExplorationStep{}
	}

	steps := make([]models.ExplorationStep, len(questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, question := range questions {
		g.Go(func() error {
			steps[i] = e.probe(gctx, schema, question)
			return nil
		})
	}
	// Workers never return errors; failures live inside their steps.
	_ = g.Wait()

	return steps
}

func (e *explorer) probe(ctx context.Context, schema *models.SchemaContext, question string) models.ExplorationStep {
	step := models.ExplorationStep{Question: question}

	prompt := prompts.BuildProbeSQLPrompt(question, schema)
	result, err := callModel(ctx, e.gen, e.cfg.ModelTimeout, prompt, prompts.SQLSystemPrompt, e.cfg.Temperature)
	if err != nil {
		step.Err = fmt.Sprintf("probe SQL generation failed: %v", err)
		step.Findings = "no findings (probe failed)"
		return step
	}

	step.SQL = llm.ExtractSQL(result.Content)

	if issues := sqlval.Validate(step.SQL, schema); len(issues) > 0 {
		step.Err = "probe SQL rejected: " + issues[0].Message
		step.Findings = "no findings (probe failed)"
		return step
	}

	probeCtx, cancel := context.WithTimeout(ctx, e.cfg.ProbeTimeout)
	defer cancel()

	rs, execErr := e.exec.Execute(probeCtx, step.SQL, e.cfg.RowLimit)
	if execErr != nil {
		step.Err = execErr.Error()
		step.Findings = "no findings (probe failed)"
		e.logger.Debug("probe failed", zap.String("question", question), zap.Error(execErr))
		return step
	}

	step.Rows = rs.Rows
	step.Findings = summarizeRows(rs)

	e.logger.Debug("probe completed",
		zap.String("question", question),
		zap.Int("rows", rs.RowCount))

	return step
}

// summarizeRows renders a deterministic one-line finding from a probe
// result: row count plus the leading values of the first row, keys in
// sorted order.
func summarizeRows(rs *models.ResultSet) string {
	if rs.RowCount == 0 {
		return "0 rows returned"
	}

	first := rs.Rows[0]
	keys := make([]string, 0, len(first))
	for k := range first {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	const maxPairs = 4
	if len(keys) > maxPairs {
		keys = keys[:maxPairs]
	}

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, first[k]))
	}

	return fmt.Sprintf("%d rows; first row: %s", rs.RowCount, strings.Join(pairs, ", "))
}
