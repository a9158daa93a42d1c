package model

import (
	"testing"
)

func TestNewHeader(t *testing.T) {
	t.Parallel()

	t.Run("Create header from slice", func(t *testing.T) {
		t.Parallel()

		headerSlice := []string{"col1", "col2", "col3"}
		header := NewHeader(headerSlice)

		if len(header) != 3 {
			t.Errorf("expected length 3, got %d", len(header))
		}

		for i, expected := range headerSlice {
			if header[i] != expected {
				t.Errorf("expected %s at index %d, got %s", expected, i, header[i])
			}
		}
	})
}

func TestHeader_Equal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header1  Header
		header2  Header
		expected bool
	}{
		{
			name:     "Equal headers",
			header1:  NewHeader([]string{"col1", "col2"}),
			header2:  NewHeader([]string{"col1", "col2"}),
			expected: true,
		},
		{
			name:     "Different length headers",
			header1:  NewHeader([]string{"col1", "col2"}),
			header2:  NewHeader([]string{"col1"}),
			expected: false,
		},
		{
			name:     "Different order",
			header1:  NewHeader([]string{"col1", "col2"}),
			header2:  NewHeader([]string{"col2", "col1"}),
			expected: false,
		},
		{
			name:     "Empty headers",
			header1:  NewHeader([]string{}),
			header2:  NewHeader([]string{}),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.header1.Equal(tt.header2); got != tt.expected {
				t.Errorf("Equal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHeader_Index(t *testing.T) {
	t.Parallel()

	h := NewHeader([]string{"time", "value", "value_1"})
	if got := h.Index("value_1"); got != 2 {
		t.Errorf("Index(value_1) = %d, want 2", got)
	}
	if got := h.Index("missing"); got != -1 {
		t.Errorf("Index(missing) = %d, want -1", got)
	}
}

func TestRecord(t *testing.T) {
	t.Parallel()

	t.Run("NewRecord creates text cells", func(t *testing.T) {
		t.Parallel()

		r := NewRecord([]string{"a", ""})
		if len(r) != 2 {
			t.Fatalf("expected 2 cells, got %d", len(r))
		}
		for i, c := range r {
			if c.Kind() != CellText {
				t.Errorf("cell %d kind = %v, want text", i, c.Kind())
			}
		}
	})

	t.Run("Get out of range is null", func(t *testing.T) {
		t.Parallel()

		r := NewRecord([]string{"a"})
		if !r.Get(5).IsNull() {
			t.Error("Get(5) should be a null cell")
		}
		if !r.Get(-1).IsNull() {
			t.Error("Get(-1) should be a null cell")
		}
		if r.Get(0).ToText() != "a" {
			t.Errorf("Get(0) = %q, want a", r.Get(0).ToText())
		}
	})

	t.Run("Equal compares kinds", func(t *testing.T) {
		t.Parallel()

		if !NewRecord([]string{"1"}).Equal(Record{TextCell("1")}) {
			t.Error("identical text records should be equal")
		}
		if NewRecord([]string{"1"}).Equal(Record{NumberCell(1)}) {
			t.Error("text and number cells should differ")
		}
	})
}

func TestAxisType_Valid(t *testing.T) {
	t.Parallel()

	for _, a := range []AxisType{AxisTypeValue, AxisTypeTime, AxisTypeCategory} {
		if !a.Valid() {
			t.Errorf("%s should be valid", a)
		}
	}
	if AxisType("log").Valid() {
		t.Error("log should not be valid")
	}
	if AxisType("").Valid() {
		t.Error("empty axis type should not be valid")
	}
}
