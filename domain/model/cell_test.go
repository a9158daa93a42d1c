package model

import (
	"errors"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"42", 42, true},
		{"  3.5 ", 3.5, true},
		{"-1e3", -1000, true},
		{"+7", 7, true},
		{".5", 0.5, true},
		{"5.", 5, true},
		{"0x1F", 31, true},
		{"0b101", 5, true},
		{"0o17", 15, true},
		{"\uFEFF12", 12, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
		{"Infinity", 0, false},
		{"inf", 0, false},
		{"NaN", 0, false},
		{"1e400", 0, false},
		{"1_000", 0, false},
		{"-0x10", 0, false},
		{"0x", 0, false},
		{"0x1p4", 0, false},
		{".", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestCellValue_ToNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cell CellValue
		want float64
		ok   bool
	}{
		{"number", NumberCell(2.5), 2.5, true},
		{"true", BoolCell(true), 1, true},
		{"false", BoolCell(false), 0, true},
		{"numeric text", TextCell(" 10 "), 10, true},
		{"empty text", TextCell(""), 0, false},
		{"null", NullCell(), 0, false},
		{"nan", NumberCell(math.NaN()), 0, false},
		{"infinity", NumberCell(math.Inf(1)), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.cell.ToNumber()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCellValue_ToText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", NullCell().ToText())
	assert.Equal(t, "abc", TextCell("abc").ToText())
	assert.Equal(t, "1.5", NumberCell(1.5).ToText())
	assert.Equal(t, "100", NumberCell(100).ToText())
	assert.Equal(t, "true", BoolCell(true).ToText())
	assert.Equal(t, `[1,2]`, RawCell(`[1,2]`).ToText())
	assert.Equal(t, "NaN", NumberCell(math.NaN()).ToText())
}

func TestCellValue_JSON(t *testing.T) {
	t.Parallel()

	t.Run("marshal variants", func(t *testing.T) {
		t.Parallel()

		record := Record{TextCell("a\"b"), NumberCell(3), BoolCell(false), NullCell(), RawCell(`{"k":1}`)}
		b, err := json.Marshal(record)
		require.NoError(t, err)
		assert.JSONEq(t, `["a\"b",3,false,null,{"k":1}]`, string(b))
	})

	t.Run("non finite numbers become null", func(t *testing.T) {
		t.Parallel()

		b, err := NumberCell(math.Inf(-1)).MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, "null", string(b))
	})

	t.Run("unmarshal variants", func(t *testing.T) {
		t.Parallel()

		var record Record
		require.NoError(t, json.Unmarshal([]byte(`["x", 1.25, true, null, [1, 2]]`), &record))
		require.Len(t, record, 5)
		assert.Equal(t, CellText, record[0].Kind())
		assert.Equal(t, CellNumber, record[1].Kind())
		assert.Equal(t, CellBool, record[2].Kind())
		assert.True(t, record[3].IsNull())
		assert.Equal(t, CellRaw, record[4].Kind())
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		var c CellValue
		err := c.UnmarshalJSON([]byte(`{"broken"`))
		require.Error(t, err)
		if !errors.Is(err, ErrInvalidCell) {
			t.Errorf("expected ErrInvalidCell, got %v", err)
		}
	})
}

func TestTrimSpace(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b", TrimSpace("\uFEFF a b \t\r\n"))
	assert.Equal(t, "", TrimSpace("\u00A0 \u3000"))
	assert.True(t, IsTrimSpace('\uFEFF'))
	assert.False(t, IsTrimSpace('x'))
}
