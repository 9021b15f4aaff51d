package models

// SemanticType is the inferred business meaning of a column, beyond its
// raw storage type. Used to steer SQL generation and chart selection.
type SemanticType string

const (
	SemanticIdentifier  SemanticType = "identifier"
	SemanticCurrency    SemanticType = "currency"
	SemanticNumeric     SemanticType = "numeric"
	SemanticTemporal    SemanticType = "temporal"
	SemanticCategorical SemanticType = "categorical"
	SemanticBoolean     SemanticType = "boolean"
	SemanticText        SemanticType = "text"
	SemanticUnknown     SemanticType = "unknown"
)

// IsNumericLike reports whether values of this type are meaningfully
// aggregatable (SUM/AVG).
func (s SemanticType) IsNumericLike() bool {
	return s == SemanticNumeric || s == SemanticCurrency
}

// ColumnStats holds summary statistics for a column. Only populated for
// types where the numbers are meaningful.
type ColumnStats struct {
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Mean          *float64 `json:"mean,omitempty"`
	Median        *float64 `json:"median,omitempty"`
	DistinctCount int      `json:"distinct_count"`
	MinDate       string   `json:"min_date,omitempty"`
	MaxDate       string   `json:"max_date,omitempty"`
}

// TopValue is one entry in a low-cardinality column's frequency list.
type TopValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnProfile describes one column of the dataset for LLM consumption.
type ColumnProfile struct {
	Name         string       `json:"name"`
	DeclaredType string       `json:"declared_type"`
	SemanticType SemanticType `json:"semantic_type"`
	SampleValues []string     `json:"sample_values"` // bounded, non-null, first-N
	Stats        *ColumnStats `json:"stats,omitempty"`
	TopValues    []TopValue   `json:"top_values,omitempty"`
	NullRatio    float64      `json:"null_ratio"`
}

// SchemaContext is the enriched, LLM-consumable schema metadata for one
// dataset. Immutable once built per request; rebuilt if the dataset
// version changes.
type SchemaContext struct {
	TableName        string          `json:"table_name"`
	DatasetVersion   string          `json:"dataset_version"`
	RowCount         int             `json:"row_count"`
	Columns          []ColumnProfile `json:"columns"`
	BusinessPatterns []string        `json:"business_patterns,omitempty"`

	// Degraded indicates the builder received malformed or empty input
	// and only column names are reliable.
	Degraded bool `json:"degraded"`
}

// Column returns the profile for a column name, or nil if absent.
func (s *SchemaContext) Column(name string) *ColumnProfile {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the ordered column names.
func (s *SchemaContext) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
