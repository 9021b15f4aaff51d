package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
	"github.com/datavibe/vibe-engine/pkg/prompts"
)

// Insighter turns the final result set into the executive narrative.
// Empty or absent results get a deterministic no-data insight; the
// stage never fabricates numbers.
type Insighter interface {
	Synthesize(ctx context.Context, userQuery string, plan *models.AnalysisPlan, result *models.ResultSet) *models.Insight
}

// InsighterConfig bounds the synthesis stage.
type InsighterConfig struct {
	Temperature  float64
	ModelTimeout time.Duration
}

type insighter struct {
	gen    llm.Generator
	cfg    InsighterConfig
	logger *zap.Logger
}

// NewInsighter creates the insight synthesis stage.
func NewInsighter(gen llm.Generator, cfg InsighterConfig, logger *zap.Logger) Insighter {
	return &insighter{
		gen:    gen,
		cfg:    cfg,
		logger: logger.Named("insighter"),
	}
}

var _ Insighter = (*insighter)(nil)

func (i *insighter) Synthesize(ctx context.Context, userQuery string, plan *models.AnalysisPlan, result *models.ResultSet) *models.Insight {
	if result == nil || result.Empty() {
		return noDataInsight(result)
	}

	prompt := prompts.BuildInsightPrompt(userQuery, plan, result)
	res, err := callModel(ctx, i.gen, i.cfg.ModelTimeout, prompt, prompts.InsightSystemPrompt, i.cfg.Temperature)
	if err != nil {
		i.logger.Warn("insight call failed, using shape summary", zap.Error(err))
		return shapeInsight(result)
	}

	insight, err := llm.ParseJSONResponse[models.Insight](res.Content)
	if err != nil || insight.Summary == "" {
		i.logger.Warn("insight response unparseable, using shape summary", zap.Error(err))
		return shapeInsight(result)
	}

	insight.NoData = false
	return &insight
}

// noDataInsight is the hard no-fabrication contract: built without any
// model call, it states plainly that there is nothing to analyze.
func noDataInsight(result *models.ResultSet) *models.Insight {
	statement := "No data was retrieved for this question."
	if result != nil {
		statement = "The query executed successfully but matched no rows."
	}
	return &models.Insight{
		Summary: statement,
		KeyFindings: []models.Finding{
			{Statement: statement},
		},
		NoData: true,
	}
}

// shapeInsight is the degraded fallback when the synthesis model is
// unavailable: a factual description of the result shape, no claims
// about its meaning.
func shapeInsight(result *models.ResultSet) *models.Insight {
	names := make([]string, 0, len(result.Columns))
	for _, col := range result.Columns {
		names = append(names, col.Name)
	}

	summary := fmt.Sprintf("The query returned %d rows with columns %s.",
		result.RowCount, strings.Join(names, ", "))
	if result.Truncated {
		summary += " The result set was truncated at the row limit."
	}

	return &models.Insight{
		Summary: summary,
		KeyFindings: []models.Finding{
			{Statement: "A detailed narrative is unavailable; the raw result data is attached to this response."},
		},
		NoData: false,
	}
}
