package models

// ChartKind enumerates the supported visualization kinds.
type ChartKind string

const (
	ChartBar       ChartKind = "bar"
	ChartLine      ChartKind = "line"
	ChartPie       ChartKind = "pie"
	ChartScatter   ChartKind = "scatter"
	ChartMultiLine ChartKind = "multi_line"
	ChartTable     ChartKind = "table"
)

// ValidChartKind reports whether k is one of the supported kinds.
func ValidChartKind(k ChartKind) bool {
	switch k {
	case ChartBar, ChartLine, ChartPie, ChartScatter, ChartMultiLine, ChartTable:
		return true
	}
	return false
}

// VisualizationSpec binds a chart kind to result-set fields. The
// pipeline produces 1-3 independent specs per response; rendering is an
// external collaborator's concern.
type VisualizationSpec struct {
	Kind        ChartKind `json:"kind"`
	XField      string    `json:"x_field,omitempty"`
	YField      string    `json:"y_field,omitempty"`
	SeriesField string    `json:"series_field,omitempty"`
	Title       string    `json:"title,omitempty"`
	XLabel      string    `json:"x_label,omitempty"`
	YLabel      string    `json:"y_label,omitempty"`
}
