package model

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// PageInfo is a contiguous range of data rows. Rows are 0-indexed and exclude
// the header; EndRow is exclusive.
type PageInfo struct {
	PageIndex int `json:"page_index"`
	StartRow  int `json:"start_row"`
	EndRow    int `json:"end_row"`
	RowCount  int `json:"row_count"`
}

// PaginationState describes how a dataset is split into pages.
type PaginationState struct {
	TotalRows   int        `json:"total_rows"`
	TotalPages  int        `json:"total_pages"`
	CurrentPage int        `json:"current_page"`
	Pages       []PageInfo `json:"pages"`
}

// Page returns the page with the given index.
func (p *PaginationState) Page(index int) (PageInfo, bool) {
	if p == nil || index < 0 || index >= len(p.Pages) {
		return PageInfo{}, false
	}
	return p.Pages[index], true
}

// ParsedPage is the result of parsing a whole file or a row range of it.
type ParsedPage struct {
	Headers     Header
	Rows        []Record
	SkippedRows int
}

// Column returns the cells of the named column, or nil if it is absent.
func (p *ParsedPage) Column(name string) []CellValue {
	idx := p.Headers.Index(name)
	if idx < 0 {
		return nil
	}
	cells := make([]CellValue, len(p.Rows))
	for i, r := range p.Rows {
		cells[i] = r.Get(idx)
	}
	return cells
}

// MarshalJSON writes rows as objects keyed by header, in header order.
func (p ParsedPage) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	headers := p.Headers
	if headers == nil {
		headers = Header{}
	}

	encodedHeaders := make([][]byte, len(headers))
	for i, h := range headers {
		b, err := json.Marshal(h)
		if err != nil {
			return nil, err
		}
		encodedHeaders[i] = b
	}

	buf.WriteString(`{"headers":[`)
	buf.Write(bytes.Join(encodedHeaders, []byte(",")))
	buf.WriteString(`],"rows":[`)
	for i, row := range p.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, key := range encodedHeaders {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.Write(key)
			buf.WriteByte(':')
			v, err := row.Get(j).MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	fmt.Fprintf(&buf, `],"skipped_rows":%d}`, p.SkippedRows)
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the shape written by MarshalJSON. Keys missing from a
// row object decode as null cells.
func (p *ParsedPage) UnmarshalJSON(data []byte) error {
	var wire struct {
		Headers     []string                     `json:"headers"`
		Rows        []map[string]json.RawMessage `json:"rows"`
		SkippedRows int                          `json:"skipped_rows"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	rows := make([]Record, len(wire.Rows))
	for i, obj := range wire.Rows {
		rec := make(Record, len(wire.Headers))
		for j, h := range wire.Headers {
			raw, ok := obj[h]
			if !ok {
				continue
			}
			if err := rec[j].UnmarshalJSON(raw); err != nil {
				return fmt.Errorf("row %d column %q: %w", i, h, err)
			}
		}
		rows[i] = rec
	}

	p.Headers = NewHeader(wire.Headers)
	p.Rows = rows
	p.SkippedRows = wire.SkippedRows
	return nil
}
