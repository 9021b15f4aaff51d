package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/dataset"
	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
	"github.com/datavibe/vibe-engine/pkg/prompts"
	sqlval "github.com/datavibe/vibe-engine/pkg/sql"
)

// ErrAttemptsExhausted means the generate/correct loop hit its budget
// without producing an accepted candidate.
var ErrAttemptsExhausted = errors.New("sql generation attempts exhausted")

// SQLGenerator runs the generate, validate, execute, correct state
// machine until a candidate is accepted or the budget runs out.
type SQLGenerator interface {
	// Generate returns the accepted candidate, or the last failed
	// candidate together with ErrAttemptsExhausted, or nil and a
	// provider error when the model capability itself is gone.
	Generate(ctx context.Context, userQuery string, schema *models.SchemaContext, plan *models.AnalysisPlan, trail []models.ExplorationStep) (*models.CandidateQuery, error)
}

// GeneratorConfig bounds the generation stage.
type GeneratorConfig struct {
	Temperature  float64
	ModelTimeout time.Duration
	MaxAttempts  int
	RowLimit     int
}

type sqlGenerator struct {
	gen    llm.Generator
	exec   dataset.Executor
	cfg    GeneratorConfig
	logger *zap.Logger
}

// NewSQLGenerator creates the generation stage.
func NewSQLGenerator(gen llm.Generator, exec dataset.Executor, cfg GeneratorConfig, logger *zap.Logger) SQLGenerator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &sqlGenerator{
		gen:    gen,
		exec:   exec,
		cfg:    cfg,
		logger: logger.Named("generator"),
	}
}

var _ SQLGenerator = (*sqlGenerator)(nil)

func (g *sqlGenerator) Generate(ctx context.Context, userQuery string, schema *models.SchemaContext, plan *models.AnalysisPlan, trail []models.ExplorationStep) (*models.CandidateQuery, error) {
	prompt := prompts.BuildSQLPrompt(userQuery, schema, plan, trail)

	var last *models.CandidateQuery
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		result, err := callModel(ctx, g.gen, g.cfg.ModelTimeout, prompt, prompts.SQLSystemPrompt, g.cfg.Temperature)
		if err != nil {
			// The model capability is gone; correction cannot help.
			return nil, fmt.Errorf("sql generation attempt %d: %w", attempt, err)
		}

		candidate := &models.CandidateQuery{
			SQL:     llm.ExtractSQL(result.Content),
			Attempt: attempt,
		}

		candidate.ValidationErrors = sqlval.Validate(candidate.SQL, schema)
		if len(candidate.ValidationErrors) == 0 {
			rs, execErr := g.exec.Execute(ctx, candidate.SQL, g.cfg.RowLimit)
			if execErr == nil {
				candidate.Result = rs
				g.logger.Info("candidate accepted",
					zap.Int("attempt", attempt),
					zap.Int("rows", rs.RowCount))
				return candidate, nil
			}
			candidate.ExecErr = execErr.Error()
		}

		g.logger.Info("candidate rejected",
			zap.Int("attempt", attempt),
			zap.String("reason", candidate.FailureMessage()))

		last = candidate
		prompt = prompts.BuildCorrectionPrompt(userQuery, schema, candidate.SQL, candidate.FailureMessage())
	}

	return last, fmt.Errorf("%w after %d attempts: %s", ErrAttemptsExhausted, g.cfg.MaxAttempts, last.FailureMessage())
}
