// Package schema builds the dataset context that grounds every model
// prompt: inferred semantic types, per-column statistics, sample values,
// and dataset-level business patterns.
package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/datavibe/vibe-engine/pkg/models"
)

const (
	maxSampleValues = 5
	maxTopValues    = 5

	// Columns whose distinct ratio falls below this are treated as
	// categorical even when the values are numeric.
	categoricalDistinctRatio = 0.05
)

// RawColumn is one column of an untyped dataset sample.
type RawColumn struct {
	Name         string
	DeclaredType string
}

// RawDataset is the bounded sample the builder profiles. Rows are
// positional and align with Columns.
type RawDataset struct {
	TableName string
	Columns   []RawColumn
	Rows      [][]any
}

// Builder profiles a dataset sample into a SchemaContext.
type Builder interface {
	Build(dataset RawDataset) *models.SchemaContext
}

type builder struct {
	logger *zap.Logger
}

// NewBuilder creates a schema context builder.
func NewBuilder(logger *zap.Logger) Builder {
	return &builder{logger: logger.Named("schema")}
}

var _ Builder = (*builder)(nil)

// Build profiles the sample and assembles the context. Malformed or
// empty input yields a minimal degraded context rather than an error,
// so downstream stages always have something to prompt with.
func (b *builder) Build(dataset RawDataset) *models.SchemaContext {
	ctx := &models.SchemaContext{
		TableName: dataset.TableName,
		RowCount:  len(dataset.Rows),
	}
	if ctx.TableName == "" {
		ctx.TableName = "dataset"
	}

	if len(dataset.Columns) == 0 {
		b.logger.Warn("empty dataset sample, building degraded context",
			zap.String("table", ctx.TableName))
		ctx.Degraded = true
		return ctx
	}

	for i, col := range dataset.Columns {
		values := columnValues(dataset.Rows, i)
		profile := b.profileColumn(col, values, len(dataset.Rows))
		ctx.Columns = append(ctx.Columns, profile)
	}

	ctx.BusinessPatterns = detectBusinessPatterns(ctx)

	b.logger.Debug("schema context built",
		zap.String("table", ctx.TableName),
		zap.Int("columns", len(ctx.Columns)),
		zap.Int("rows", ctx.RowCount),
		zap.Int("patterns", len(ctx.BusinessPatterns)))

	return ctx
}

// columnValues extracts the non-nil values for column index i, skipping
// rows too short to hold it.
func columnValues(rows [][]any, i int) []any {
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		if i >= len(row) || row[i] == nil {
			continue
		}
		values = append(values, row[i])
	}
	return values
}

func (b *builder) profileColumn(col RawColumn, values []any, totalRows int) models.ColumnProfile {
	profile := models.ColumnProfile{
		Name:         col.Name,
		DeclaredType: col.DeclaredType,
	}

	if totalRows > 0 {
		profile.NullRatio = float64(totalRows-len(values)) / float64(totalRows)
	}

	for _, v := range values {
		if len(profile.SampleValues) >= maxSampleValues {
			break
		}
		profile.SampleValues = append(profile.SampleValues, formatValue(v))
	}

	numeric, numericOK := toFloats(values)
	distinct := distinctStrings(values)

	profile.SemanticType = inferSemanticType(col.Name, values, numeric, numericOK, distinct, totalRows)

	switch {
	case profile.SemanticType == models.SemanticTemporal:
		profile.Stats = temporalStats(values, distinct)
	case profile.SemanticType.IsNumericLike() && numericOK && len(numeric) > 0:
		profile.Stats = numericStats(numeric, distinct)
	default:
		profile.Stats = &models.ColumnStats{DistinctCount: len(distinct)}
	}

	if profile.SemanticType == models.SemanticCategorical ||
		profile.SemanticType == models.SemanticBoolean {
		profile.TopValues = topValues(values)
	}

	return profile
}

func numericStats(numeric []float64, distinct map[string]int) *models.ColumnStats {
	s := &models.ColumnStats{DistinctCount: len(distinct)}
	if v, err := stats.Min(numeric); err == nil {
		s.Min = &v
	}
	if v, err := stats.Max(numeric); err == nil {
		s.Max = &v
	}
	if v, err := stats.Mean(numeric); err == nil {
		s.Mean = &v
	}
	if v, err := stats.Median(numeric); err == nil {
		s.Median = &v
	}
	return s
}

func temporalStats(values []any, distinct map[string]int) *models.ColumnStats {
	s := &models.ColumnStats{DistinctCount: len(distinct)}
	var minT, maxT time.Time
	for _, v := range values {
		t, ok := parseTime(v)
		if !ok {
			continue
		}
		if minT.IsZero() || t.Before(minT) {
			minT = t
		}
		if maxT.IsZero() || t.After(maxT) {
			maxT = t
		}
	}
	if !minT.IsZero() {
		s.MinDate = minT.Format("2006-01-02")
		s.MaxDate = maxT.Format("2006-01-02")
	}
	return s
}

// topValues returns the most frequent values with counts, ties broken
// alphabetically for stable output.
func topValues(values []any) []models.TopValue {
	counts := map[string]int{}
	for _, v := range values {
		counts[formatValue(v)]++
	}

	out := make([]models.TopValue, 0, len(counts))
	for v, c := range counts {
		out = append(out, models.TopValue{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > maxTopValues {
		out = out[:maxTopValues]
	}
	return out
}

var (
	identifierName = regexp.MustCompile(`(?i)(^|_)(id|uuid|guid|key)$`)
	currencyName   = regexp.MustCompile(`(?i)(price|revenue|cost|amount|total|salary|fee|charge)`)
	temporalName   = regexp.MustCompile(`(?i)(date|time|_at$|^created|^updated|timestamp)`)
	quantityName   = regexp.MustCompile(`(?i)(quantity|qty|count|units)`)
)

// inferSemanticType combines name heuristics with value distribution.
// Name signals win when values are compatible; distribution decides
// the rest.
func inferSemanticType(name string, values []any, numeric []float64, numericOK bool, distinct map[string]int, totalRows int) models.SemanticType {
	if len(values) == 0 {
		return models.SemanticUnknown
	}

	if identifierName.MatchString(name) {
		return models.SemanticIdentifier
	}

	if temporalName.MatchString(name) || allTemporal(values) {
		return models.SemanticTemporal
	}

	if numericOK {
		if currencyName.MatchString(name) {
			return models.SemanticCurrency
		}
		if isBinary(numeric) {
			return models.SemanticBoolean
		}
		if totalRows > 0 && float64(len(distinct))/float64(totalRows) < categoricalDistinctRatio {
			return models.SemanticCategorical
		}
		return models.SemanticNumeric
	}

	if allBooleanStrings(values) {
		return models.SemanticBoolean
	}

	if totalRows > 0 && float64(len(distinct))/float64(totalRows) < categoricalDistinctRatio {
		return models.SemanticCategorical
	}

	return models.SemanticText
}

func isBinary(numeric []float64) bool {
	if len(numeric) == 0 {
		return false
	}
	for _, v := range numeric {
		if v != 0 && v != 1 {
			return false
		}
	}
	return true
}

func allBooleanStrings(values []any) bool {
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return false
		}
		switch strings.ToLower(s) {
		case "true", "false", "yes", "no":
		default:
			return false
		}
	}
	return len(values) > 0
}

func allTemporal(values []any) bool {
	for _, v := range values {
		if _, ok := parseTime(v); !ok {
			return false
		}
	}
	return len(values) > 0
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func toFloats(values []any) ([]float64, bool) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case float32:
			out = append(out, float64(n))
		case int:
			out = append(out, float64(n))
		case int32:
			out = append(out, float64(n))
		case int64:
			out = append(out, float64(n))
		default:
			return nil, false
		}
	}
	return out, len(out) > 0
}

func distinctStrings(values []any) map[string]int {
	out := map[string]int{}
	for _, v := range values {
		out[formatValue(v)]++
	}
	return out
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// detectBusinessPatterns looks for domain relationships the planner can
// lean on: monetary column pairs, identifier enumeration, date ranges.
func detectBusinessPatterns(ctx *models.SchemaContext) []string {
	var patterns []string

	var currencyCols, quantityCols, idCols []string
	for _, col := range ctx.Columns {
		switch {
		case col.SemanticType == models.SemanticCurrency:
			currencyCols = append(currencyCols, col.Name)
		case col.SemanticType == models.SemanticIdentifier:
			idCols = append(idCols, col.Name)
		case col.SemanticType == models.SemanticNumeric && quantityName.MatchString(col.Name):
			quantityCols = append(quantityCols, col.Name)
		}
	}

	if len(currencyCols) > 0 && len(quantityCols) > 0 {
		patterns = append(patterns, fmt.Sprintf(
			"monetary columns (%s) and quantity columns (%s) suggest revenue = price x quantity analyses",
			strings.Join(currencyCols, ", "), strings.Join(quantityCols, ", ")))
	}

	if len(idCols) > 0 {
		patterns = append(patterns, fmt.Sprintf(
			"identifier columns: %s (join keys, not aggregation targets)",
			strings.Join(idCols, ", ")))
	}

	for _, col := range ctx.Columns {
		if col.SemanticType == models.SemanticTemporal && col.Stats != nil && col.Stats.MinDate != "" {
			patterns = append(patterns, fmt.Sprintf(
				"%s spans %s to %s (time series analyses possible)",
				col.Name, col.Stats.MinDate, col.Stats.MaxDate))
		}
	}

	return patterns
}
