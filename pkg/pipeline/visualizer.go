package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/llm"
	"github.com/datavibe/vibe-engine/pkg/models"
	"github.com/datavibe/vibe-engine/pkg/prompts"
)

// Visualizer picks chart specs for an accepted result set. Shape rules
// decide deterministically when the result has an obvious reading; only
// ambiguous shapes cost a model call. Never invoked on empty results.
type Visualizer interface {
	Select(ctx context.Context, userQuery string, result *models.ResultSet) []models.VisualizationSpec
}

// VisualizerConfig bounds the selection stage.
type VisualizerConfig struct {
	Temperature  float64
	ModelTimeout time.Duration
}

type visualizer struct {
	gen    llm.Generator
	cfg    VisualizerConfig
	logger *zap.Logger
}

// NewVisualizer creates the visualization selection stage.
func NewVisualizer(gen llm.Generator, cfg VisualizerConfig, logger *zap.Logger) Visualizer {
	return &visualizer{
		gen:    gen,
		cfg:    cfg,
		logger: logger.Named("visualizer"),
	}
}

var _ Visualizer = (*visualizer)(nil)

type vizPayload struct {
	Visualizations []models.VisualizationSpec `json:"visualizations"`
}

func (v *visualizer) Select(ctx context.Context, userQuery string, result *models.ResultSet) []models.VisualizationSpec {
	if result == nil || result.Empty() {
		return []models.VisualizationSpec{}
	}

	if spec, ok := selectByShape(userQuery, result); ok {
		v.logger.Debug("visualization picked by shape", zap.String("kind", string(spec.Kind)))
		return []models.VisualizationSpec{spec}
	}

	specs := v.selectByModel(ctx, userQuery, result)
	if len(specs) > 0 {
		return specs
	}

	// Nothing better than a table for this shape.
	return []models.VisualizationSpec{{Kind: models.ChartTable, Title: userQuery}}
}

func (v *visualizer) selectByModel(ctx context.Context, userQuery string, result *models.ResultSet) []models.VisualizationSpec {
	prompt := prompts.BuildVisualizationPrompt(userQuery, result)
	res, err := callModel(ctx, v.gen, v.cfg.ModelTimeout, prompt, prompts.VisualizationSystemPrompt, v.cfg.Temperature)
	if err != nil {
		v.logger.Warn("visualization call failed", zap.Error(err))
		return nil
	}

	payload, err := llm.ParseJSONResponse[vizPayload](res.Content)
	if err != nil {
		v.logger.Warn("visualization response unparseable", zap.Error(err))
		return nil
	}

	known := map[string]bool{}
	for _, col := range result.Columns {
		known[col.Name] = true
	}

	var specs []models.VisualizationSpec
	for _, spec := range payload.Visualizations {
		if !models.ValidChartKind(spec.Kind) {
			continue
		}
		if spec.Kind != models.ChartTable {
			if !known[spec.XField] || !known[spec.YField] {
				continue
			}
			if spec.SeriesField != "" && !known[spec.SeriesField] {
				continue
			}
		}
		specs = append(specs, spec)
		if len(specs) == 3 {
			break
		}
	}
	return specs
}

// fieldShape groups result columns by how they read on a chart axis.
type fieldShape struct {
	temporal    []string
	numeric     []string
	categorical []string
}

func classifyColumns(result *models.ResultSet) fieldShape {
	var shape fieldShape
	for _, col := range result.Columns {
		switch {
		case isTemporalType(col.Type):
			shape.temporal = append(shape.temporal, col.Name)
		case isNumericType(col.Type):
			shape.numeric = append(shape.numeric, col.Name)
		default:
			shape.categorical = append(shape.categorical, col.Name)
		}
	}
	return shape
}

// selectByShape applies the deterministic rules. Returns false when the
// shape is ambiguous and needs the model.
func selectByShape(userQuery string, result *models.ResultSet) (models.VisualizationSpec, bool) {
	shape := classifyColumns(result)

	switch {
	case len(shape.temporal) >= 1 && len(shape.categorical) >= 1 && len(shape.numeric) >= 1:
		return models.VisualizationSpec{
			Kind:        models.ChartMultiLine,
			XField:      shape.temporal[0],
			YField:      shape.numeric[0],
			SeriesField: shape.categorical[0],
			Title:       userQuery,
			XLabel:      shape.temporal[0],
			YLabel:      shape.numeric[0],
		}, true

	case len(shape.temporal) >= 1 && len(shape.numeric) >= 1:
		return models.VisualizationSpec{
			Kind:   models.ChartLine,
			XField: shape.temporal[0],
			YField: shape.numeric[0],
			Title:  userQuery,
			XLabel: shape.temporal[0],
			YLabel: shape.numeric[0],
		}, true

	case len(shape.categorical) >= 1 && len(shape.numeric) >= 1:
		kind := models.ChartBar
		if result.RowCount <= 6 && asksForShare(userQuery) {
			kind = models.ChartPie
		}
		return models.VisualizationSpec{
			Kind:   kind,
			XField: shape.categorical[0],
			YField: shape.numeric[0],
			Title:  userQuery,
			XLabel: shape.categorical[0],
			YLabel: shape.numeric[0],
		}, true

	case len(shape.numeric) >= 2:
		return models.VisualizationSpec{
			Kind:   models.ChartScatter,
			XField: shape.numeric[0],
			YField: shape.numeric[1],
			Title:  userQuery,
			XLabel: shape.numeric[0],
			YLabel: shape.numeric[1],
		}, true
	}

	return models.VisualizationSpec{}, false
}

func asksForShare(userQuery string) bool {
	lower := strings.ToLower(userQuery)
	for _, hint := range []string{"share", "proportion", "percentage", "breakdown", "split"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func isNumericType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "INT2", "INT4", "INT8", "INTEGER", "BIGINT", "SMALLINT", "TINYINT",
		"HUGEINT", "FLOAT4", "FLOAT8", "FLOAT", "DOUBLE", "REAL", "NUMERIC", "DECIMAL":
		return true
	}
	return false
}

func isTemporalType(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "DATE", "TIME", "TIMESTAMP", "TIMESTAMPTZ", "TIMETZ", "DATETIME":
		return true
	}
	return false
}
