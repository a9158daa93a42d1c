package model

import (
	"github.com/goccy/go-json"
)

// AxisValue is a point coordinate on the horizontal axis: a number for value
// and time axes, a label for category axes.
type AxisValue struct {
	Label    string
	Number   float64
	IsNumber bool
}

// NumericAxis returns a numeric axis coordinate.
func NumericAxis(f float64) AxisValue {
	return AxisValue{Number: f, IsNumber: true}
}

// LabelAxis returns a categorical axis coordinate.
func LabelAxis(s string) AxisValue {
	return AxisValue{Label: s}
}

// MarshalJSON encodes the coordinate as a JSON number or string.
func (a AxisValue) MarshalJSON() ([]byte, error) {
	if a.IsNumber {
		return json.Marshal(a.Number)
	}
	return json.Marshal(a.Label)
}

// UnmarshalJSON decodes a JSON number or string.
func (a *AxisValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = LabelAxis(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = NumericAxis(f)
	return nil
}

// AxisConversionResult is the outcome of resolving one cell against an axis.
// Numeric is nil when the conversion failed.
type AxisConversionResult struct {
	Valid   bool      `json:"valid"`
	Value   AxisValue `json:"value"`
	Numeric *float64  `json:"numeric"`
}

// ChartPoint is one [axis, value] pair. Value is nil when the cell of this
// series could not be parsed, leaving a gap.
type ChartPoint struct {
	Axis  AxisValue
	Value *float64
}

// MarshalJSON encodes the point as a two element array.
func (p ChartPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Axis, p.Value})
}

// UnmarshalJSON decodes a two element array.
func (p *ChartPoint) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := p.Axis.UnmarshalJSON(pair[0]); err != nil {
		return err
	}
	p.Value = nil
	if string(pair[1]) != "null" && len(pair[1]) > 0 {
		var f float64
		if err := json.Unmarshal(pair[1], &f); err != nil {
			return err
		}
		p.Value = &f
	}
	return nil
}

// ChartSeries holds the points of one value column.
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// ChartComputationResult is the assembled chart input.
type ChartComputationResult struct {
	Series       []ChartSeries `json:"series"`
	AxisType     AxisType      `json:"axis_type"`
	RawCount     int           `json:"raw_count"`
	SampledCount int           `json:"sampled_count"`
	Downsampled  bool          `json:"downsampled"`
	DroppedRows  int           `json:"dropped_rows"`
}

// ThumbnailPoint is one preview sample; X is the absolute data row index.
type ThumbnailPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ThumbnailData is the preview sequence of one page.
type ThumbnailData struct {
	PageIndex int              `json:"page_index"`
	Points    []ThumbnailPoint `json:"points"`
	IsLoaded  bool             `json:"is_loaded"`
}

// ParquetColumn describes one column of a Parquet file.
type ParquetColumn struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
}

// ParquetOpenResult is the metadata read from a Parquet footer.
type ParquetOpenResult struct {
	Path      string          `json:"path"`
	TotalRows int             `json:"total_rows"`
	Columns   []ParquetColumn `json:"columns"`
}
