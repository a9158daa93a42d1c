package datascope

import (
	"fmt"
	"math"

	"github.com/nao1215/datascope/domain/model"
)

// Chart point limits
const (
	// DefaultMaxPoints is used when the requested point budget is unusable
	DefaultMaxPoints = 4000
	// MinPoints is the smallest accepted point budget
	MinPoints = 200
	// MaxPoints is the largest accepted point budget
	MaxPoints = 20000
)

// ChartRequest selects what BuildChartData assembles.
type ChartRequest struct {
	// XColumn is the axis column, or RowIndexKey for the 1-based row number.
	XColumn string
	// YColumns are the value columns. The first one is the base column: rows
	// where it is not numeric are dropped and it drives downsampling.
	YColumns []string
	// AxisType is ignored when XColumn is RowIndexKey.
	AxisType       model.AxisType
	AutoDownsample bool
	// MaxPoints is clamped with ClampPoints.
	MaxPoints float64
}

// ClampPoints bounds a requested point budget to [MinPoints, MaxPoints].
// Non-finite and non-positive requests fall back to DefaultMaxPoints.
func ClampPoints(value float64) int {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return DefaultMaxPoints
	}
	v := math.Floor(value)
	if v < MinPoints {
		return MinPoints
	}
	if v > MaxPoints {
		return MaxPoints
	}
	return int(v)
}

type processedRow struct {
	axis    model.AxisValue
	numeric float64
	values  []*float64
}

// BuildChartData joins the axis column with the value columns, one series
// per value column. All series share the same axis coordinates and the same
// downsampled index set.
func BuildChartData(rows []model.Record, headers model.Header, req ChartRequest) (*model.ChartComputationResult, error) {
	if len(req.YColumns) == 0 {
		return nil, ErrNoValueColumns
	}

	axisType := req.AxisType
	rowSequence := req.XColumn == RowIndexKey
	if rowSequence {
		axisType = model.AxisTypeValue
	} else if !axisType.Valid() {
		axisType = model.AxisTypeCategory
	}

	xIdx := -1
	if !rowSequence {
		xIdx = headers.Index(req.XColumn)
		if xIdx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, req.XColumn)
		}
	}
	yIdx := make([]int, len(req.YColumns))
	for k, name := range req.YColumns {
		yIdx[k] = headers.Index(name)
		if yIdx[k] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
	}

	processed := make([]processedRow, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		if _, ok := row.Get(yIdx[0]).ToNumber(); !ok {
			dropped++
			continue
		}

		var axis model.AxisConversionResult
		if rowSequence {
			axis = rowSequenceAxis(i)
		} else {
			axis = ResolveAxis(row.Get(xIdx), axisType, i)
		}
		if !axis.Valid {
			dropped++
			continue
		}

		values := make([]*float64, len(yIdx))
		for k, idx := range yIdx {
			if v, ok := row.Get(idx).ToNumber(); ok {
				values[k] = &v
			}
		}

		numeric := 0.0
		if axis.Numeric != nil {
			numeric = *axis.Numeric
		}
		processed = append(processed, processedRow{axis: axis.Value, numeric: numeric, values: values})
	}

	result := &model.ChartComputationResult{
		Series:      []model.ChartSeries{},
		AxisType:    axisType,
		DroppedRows: dropped,
	}
	if len(processed) == 0 {
		return result, nil
	}

	n := len(processed)
	var indices []int
	threshold := min(ClampPoints(req.MaxPoints), n)
	if req.AutoDownsample && n > threshold && threshold > 2 {
		base := make([]Point, n)
		for i, p := range processed {
			base[i] = Point{X: p.numeric}
			if p.values[0] != nil {
				base[i].Y = *p.values[0]
			}
		}
		indices, result.Downsampled = Downsample(base, threshold, axisType)
	} else {
		indices = allIndices(n)
	}

	result.Series = make([]model.ChartSeries, len(req.YColumns))
	for k, name := range req.YColumns {
		points := make([]model.ChartPoint, len(indices))
		for j, idx := range indices {
			points[j] = model.ChartPoint{Axis: processed[idx].axis, Value: processed[idx].values[k]}
		}
		result.Series[k] = model.ChartSeries{Name: name, Points: points}
	}
	result.RawCount = n
	result.SampledCount = len(indices)
	return result, nil
}
