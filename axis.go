package datascope

import (
	"strconv"

	"github.com/nao1215/datascope/domain/model"
)

// RowIndexKey selects a synthetic x column holding the 1-based row number.
const RowIndexKey = "__auto_sequence__"

// ResolveAxis converts a cell to a coordinate on the given axis. rowIndex is
// the 0-based position of the row in its row set.
//
//   - category: always valid, the trimmed text or "Row n" when empty
//   - value: valid when the cell is a finite number
//   - time: valid when the cell is a date, as epoch milliseconds
func ResolveAxis(cell model.CellValue, axis model.AxisType, rowIndex int) model.AxisConversionResult {
	switch axis {
	case model.AxisTypeCategory:
		label := model.TrimSpace(cell.ToText())
		if label == "" {
			label = "Row " + strconv.Itoa(rowIndex+1)
		}
		n := float64(rowIndex)
		return model.AxisConversionResult{Valid: true, Value: model.LabelAxis(label), Numeric: &n}

	case model.AxisTypeValue:
		n, ok := cell.ToNumber()
		if !ok {
			return invalidAxis()
		}
		return model.AxisConversionResult{Valid: true, Value: model.NumericAxis(n), Numeric: &n}

	default:
		ms, ok := ParseEpochMillis(cell.ToText())
		if !ok {
			return invalidAxis()
		}
		n := float64(ms)
		return model.AxisConversionResult{Valid: true, Value: model.NumericAxis(n), Numeric: &n}
	}
}

// rowSequenceAxis is the coordinate of the synthetic row index column.
func rowSequenceAxis(rowIndex int) model.AxisConversionResult {
	n := float64(rowIndex + 1)
	return model.AxisConversionResult{Valid: true, Value: model.NumericAxis(n), Numeric: &n}
}

func invalidAxis() model.AxisConversionResult {
	return model.AxisConversionResult{Valid: false, Value: model.NumericAxis(0)}
}
