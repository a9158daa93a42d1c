package datascope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/datascope/domain/model"
)

func TestResolveAxis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cell      model.CellValue
		axis      model.AxisType
		rowIndex  int
		wantValid bool
		wantValue model.AxisValue
		wantNum   float64
	}{
		{
			name:      "category keeps trimmed text",
			cell:      model.TextCell("  north "),
			axis:      model.AxisTypeCategory,
			rowIndex:  4,
			wantValid: true,
			wantValue: model.LabelAxis("north"),
			wantNum:   4,
		},
		{
			name:      "empty category gets a row label",
			cell:      model.TextCell(" "),
			axis:      model.AxisTypeCategory,
			rowIndex:  2,
			wantValid: true,
			wantValue: model.LabelAxis("Row 3"),
			wantNum:   2,
		},
		{
			name:      "null category gets a row label",
			cell:      model.NullCell(),
			axis:      model.AxisTypeCategory,
			rowIndex:  0,
			wantValid: true,
			wantValue: model.LabelAxis("Row 1"),
			wantNum:   0,
		},
		{
			name:      "numeric value",
			cell:      model.TextCell(" 12.5 "),
			axis:      model.AxisTypeValue,
			wantValid: true,
			wantValue: model.NumericAxis(12.5),
			wantNum:   12.5,
		},
		{
			name:      "bool value",
			cell:      model.BoolCell(true),
			axis:      model.AxisTypeValue,
			wantValid: true,
			wantValue: model.NumericAxis(1),
			wantNum:   1,
		},
		{
			name:      "date on time axis",
			cell:      model.TextCell("2024-01-15"),
			axis:      model.AxisTypeTime,
			wantValid: true,
			wantValue: model.NumericAxis(1705276800000),
			wantNum:   1705276800000,
		},
		{
			name:      "year and month on time axis",
			cell:      model.TextCell("2024-03"),
			axis:      model.AxisTypeTime,
			wantValid: true,
			wantValue: model.NumericAxis(1709251200000),
			wantNum:   1709251200000,
		},
		{
			name:      "date string on time axis",
			cell:      model.TextCell("Mon Jan 15 2024"),
			axis:      model.AxisTypeTime,
			wantValid: true,
			wantValue: model.NumericAxis(1705276800000),
			wantNum:   1705276800000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolveAxis(tt.cell, tt.axis, tt.rowIndex)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantValue, got.Value)
			require.NotNil(t, got.Numeric)
			assert.Equal(t, tt.wantNum, *got.Numeric)
		})
	}
}

func TestResolveAxis_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cell model.CellValue
		axis model.AxisType
	}{
		{"empty value", model.TextCell(""), model.AxisTypeValue},
		{"text value", model.TextCell("abc"), model.AxisTypeValue},
		{"null value", model.NullCell(), model.AxisTypeValue},
		{"empty time", model.TextCell(" "), model.AxisTypeTime},
		{"bad date", model.TextCell("2024-02-30"), model.AxisTypeTime},
		{"time only", model.TextCell("10:30"), model.AxisTypeTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolveAxis(tt.cell, tt.axis, 0)
			assert.False(t, got.Valid)
			assert.Nil(t, got.Numeric)
		})
	}
}

func TestRowSequenceAxis(t *testing.T) {
	t.Parallel()

	got := rowSequenceAxis(9)
	assert.True(t, got.Valid)
	assert.Equal(t, model.NumericAxis(10), got.Value)
}
