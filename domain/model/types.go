// Package model provides domain model for datascope
package model

// Header is the deduplicated list of column names of a delimited file.
type Header []string

// NewHeader create new Header.
func NewHeader(h []string) Header {
	return Header(h)
}

// Equal compare Header.
func (h Header) Equal(h2 Header) bool {
	if len(h) != len(h2) {
		return false
	}
	for i, v := range h {
		if v != h2[i] {
			return false
		}
	}
	return true
}

// Index returns the position of the named column, or -1 when it is absent.
func (h Header) Index(name string) int {
	for i, v := range h {
		if v == name {
			return i
		}
	}
	return -1
}

// Record is one parsed row. Cells are aligned with the Header that produced
// the record, so the key order of the row always mirrors the header order.
type Record []CellValue

// NewRecord create new Record from raw text cells.
func NewRecord(cells []string) Record {
	r := make(Record, len(cells))
	for i, c := range cells {
		r[i] = TextCell(c)
	}
	return r
}

// Get returns the cell at position i. Positions outside the record yield a
// null cell.
func (r Record) Get(i int) CellValue {
	if i < 0 || i >= len(r) {
		return NullCell()
	}
	return r[i]
}

// Equal compare Record.
func (r Record) Equal(r2 Record) bool {
	if len(r) != len(r2) {
		return false
	}
	for i, v := range r {
		if !v.Equal(r2[i]) {
			return false
		}
	}
	return true
}

// AxisType is the kind of horizontal axis a chart is drawn against.
type AxisType string

const (
	// AxisTypeValue is a numeric axis
	AxisTypeValue AxisType = "value"
	// AxisTypeTime is a temporal axis measured in epoch milliseconds
	AxisTypeTime AxisType = "time"
	// AxisTypeCategory is a discrete label axis
	AxisTypeCategory AxisType = "category"
)

// String returns the axis type name
func (a AxisType) String() string {
	return string(a)
}

// Valid reports whether a is one of the known axis types.
func (a AxisType) Valid() bool {
	switch a {
	case AxisTypeValue, AxisTypeTime, AxisTypeCategory:
		return true
	default:
		return false
	}
}

// ColumnMeta is advisory type information inferred from a sample of rows.
type ColumnMeta struct {
	Name        string `json:"name"`
	IsNumeric   bool   `json:"is_numeric"`
	IsTemporal  bool   `json:"is_temporal"`
	SampleCount int    `json:"sample_count"`
}
