package model

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
)

// CellKind identifies which variant a CellValue holds.
type CellKind int

const (
	// CellNull is an absent value
	CellNull CellKind = iota
	// CellText is a raw text cell as read from a delimited file
	CellText
	// CellNumber is a numeric cell produced by a typed source such as Parquet
	CellNumber
	// CellBool is a boolean cell
	CellBool
	// CellRaw holds nested data (lists, structs) encoded as JSON text
	CellRaw
)

// String returns the kind name
func (k CellKind) String() string {
	switch k {
	case CellNull:
		return "null"
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	case CellRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// CellValue is a tagged cell value. The zero value is a null cell.
type CellValue struct {
	kind CellKind
	text string
	num  float64
	b    bool
}

// NullCell returns an absent cell.
func NullCell() CellValue {
	return CellValue{}
}

// TextCell returns a text cell.
func TextCell(s string) CellValue {
	return CellValue{kind: CellText, text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(f float64) CellValue {
	return CellValue{kind: CellNumber, num: f}
}

// BoolCell returns a boolean cell.
func BoolCell(b bool) CellValue {
	return CellValue{kind: CellBool, b: b}
}

// RawCell returns a cell holding nested data encoded as JSON.
func RawCell(jsonText string) CellValue {
	return CellValue{kind: CellRaw, text: jsonText}
}

// Kind returns the variant held by the cell.
func (c CellValue) Kind() CellKind {
	return c.kind
}

// IsNull reports whether the cell is absent.
func (c CellValue) IsNull() bool {
	return c.kind == CellNull
}

// ToText converts the cell to its display text. Null cells become "".
func (c CellValue) ToText() string {
	switch c.kind {
	case CellText, CellRaw:
		return c.text
	case CellNumber:
		return formatNumber(c.num)
	case CellBool:
		return strconv.FormatBool(c.b)
	default:
		return ""
	}
}

// ToNumber converts the cell to a finite number. Booleans map to 1 and 0,
// text is parsed after trimming, and anything else reports false.
func (c CellValue) ToNumber() (float64, bool) {
	switch c.kind {
	case CellNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return 0, false
		}
		return c.num, true
	case CellBool:
		if c.b {
			return 1, true
		}
		return 0, true
	case CellText, CellRaw:
		return ParseNumber(c.text)
	default:
		return 0, false
	}
}

// Equal compares kind and payload.
func (c CellValue) Equal(o CellValue) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case CellText, CellRaw:
		return c.text == o.text
	case CellNumber:
		return c.num == o.num || (math.IsNaN(c.num) && math.IsNaN(o.num))
	case CellBool:
		return c.b == o.b
	default:
		return true
	}
}

// String implements fmt.Stringer
func (c CellValue) String() string {
	return c.ToText()
}

// MarshalJSON encodes text as a JSON string, numbers and booleans natively,
// raw cells verbatim and null cells as null.
func (c CellValue) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case CellText:
		return json.Marshal(c.text)
	case CellNumber:
		if math.IsNaN(c.num) || math.IsInf(c.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(c.num)
	case CellBool:
		return json.Marshal(c.b)
	case CellRaw:
		if json.Valid([]byte(c.text)) {
			return []byte(c.text), nil
		}
		return json.Marshal(c.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *CellValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty input", ErrInvalidCell)
	}
	switch data[0] {
	case 'n':
		*c = NullCell()
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCell, err)
		}
		*c = TextCell(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCell, err)
		}
		*c = BoolCell(b)
	case '{', '[':
		if !json.Valid(data) {
			return fmt.Errorf("%w: malformed nested value", ErrInvalidCell)
		}
		*c = RawCell(string(data))
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCell, err)
		}
		*c = NumberCell(f)
	}
	return nil
}

// ParseNumber parses s the way a spreadsheet user expects a numeric cell to
// be read: surrounding whitespace is ignored, empty text is not a number,
// and the result must be finite. Unsigned 0x, 0o and 0b integer literals are
// accepted.
func ParseNumber(s string) (float64, bool) {
	s = TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if strings.ContainsRune(s, '_') {
				return 0, false
			}
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(u), true
		}
	}
	if !isDecimalLiteral(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isDecimalLiteral rejects the spellings strconv.ParseFloat accepts beyond
// plain decimal notation (inf, nan, hex floats, digit separators).
func isDecimalLiteral(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-':
		default:
			return false
		}
	}
	return true
}

// IsTrimSpace reports whether r is removed by TrimSpace.
func IsTrimSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// TrimSpace removes leading and trailing white space, including the
// zero width no-break space that spreadsheet exports leave behind.
func TrimSpace(s string) string {
	return strings.TrimFunc(s, IsTrimSpace)
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
