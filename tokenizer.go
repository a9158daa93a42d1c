package datascope

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/datascope/domain/model"
)

const utf8BOM = "\uFEFF"

// asciiSpace marks the single-byte characters removed by trimming.
var asciiSpace = [utf8.RuneSelf]bool{'\t': true, '\n': true, '\v': true, '\f': true, '\r': true, ' ': true}

// rowScanner walks delimited text one physical row at a time. Line endings
// (\r\n, \r, \n) are normalized while scanning so the text is never copied.
type rowScanner struct {
	text  string
	delim byte
	pos   int
	cells []string
	field []byte
}

func newRowScanner(text string, delim byte) *rowScanner {
	pos := 0
	if strings.HasPrefix(text, utf8BOM) {
		pos = len(utf8BOM)
	}
	return &rowScanner{text: text, delim: delim, pos: pos}
}

// next scans one row starting at the current position. When keep is false
// the cells are not materialized, only blankness is tracked. ok is false
// once the input is exhausted.
func (s *rowScanner) next(keep bool) (blank, ok bool) {
	text := s.text
	i := s.pos
	if i >= len(text) {
		return false, false
	}

	s.cells = s.cells[:0]
	s.field = s.field[:0]
	inQuotes := false
	blank = true

	for i < len(text) {
		c := text[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				if keep {
					s.field = append(s.field, '"')
				}
				blank = false
				i += 2
				continue
			}
			inQuotes = !inQuotes
			i++
		case c == s.delim && !inQuotes:
			s.endField(keep)
			i++
		case c == '\n' || c == '\r':
			i++
			if c == '\r' && i < len(text) && text[i] == '\n' {
				i++
			}
			if !inQuotes {
				s.endField(keep)
				s.pos = i
				return blank, true
			}
			if keep {
				s.field = append(s.field, '\n')
			}
		case c < utf8.RuneSelf:
			if blank && !asciiSpace[c] {
				blank = false
			}
			if keep {
				s.field = append(s.field, c)
			}
			i++
		default:
			r, size := utf8.DecodeRuneInString(text[i:])
			if blank && !model.IsTrimSpace(r) {
				blank = false
			}
			if keep {
				s.field = append(s.field, text[i:i+size]...)
			}
			i += size
		}
	}

	s.endField(keep)
	s.pos = i
	return blank, true
}

func (s *rowScanner) endField(keep bool) {
	if keep {
		s.cells = append(s.cells, string(s.field))
	}
	s.field = s.field[:0]
}

// record aligns the current cells with a header. Missing cells become empty
// text; surplus cells are dropped.
func (s *rowScanner) record(width int) model.Record {
	rec := make(model.Record, width)
	for i := range width {
		if i < len(s.cells) {
			rec[i] = model.TextCell(s.cells[i])
		} else {
			rec[i] = model.TextCell("")
		}
	}
	return rec
}

// header trims the current cells and deduplicates them.
func (s *rowScanner) header() model.Header {
	raw := make([]string, len(s.cells))
	for i, c := range s.cells {
		raw[i] = model.TrimSpace(c)
	}
	return dedupeHeaders(raw)
}

// dedupeHeaders renames empty names to 列_{n} and repeated names to name_k,
// where k counts earlier occurrences.
func dedupeHeaders(names []string) model.Header {
	counts := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		base := name
		if base == "" {
			base = "列_" + strconv.Itoa(i+1)
		}
		k := counts[base]
		counts[base] = k + 1
		if k == 0 {
			out[i] = base
		} else {
			out[i] = base + "_" + strconv.Itoa(k)
		}
	}
	return model.NewHeader(out)
}

func isBlankContent(text string) bool {
	return model.TrimSpace(text) == ""
}

// Parse tokenizes delimited text into a header and records. Blank rows are
// excluded and counted in SkippedRows; the first non-blank row is the header.
func Parse(text string, delimiter byte) (*model.ParsedPage, error) {
	if isBlankContent(text) {
		return nil, &ParseError{Op: "parse", Err: ErrEmptyInput}
	}
	page, err := collectRows(context.Background(), newRowScanner(text, delimiter), scanWindow{end: math.MaxInt}, nil)
	if err != nil {
		return nil, err
	}
	return page, nil
}
