package datascope

import (
	"context"
	"fmt"

	"github.com/nao1215/datascope/domain/model"
)

// rowIndexStride is the number of logical rows between checkpoints.
const rowIndexStride = 1024

// checkpoint is the scanner state right before logical row k*rowIndexStride.
type checkpoint struct {
	offset  int
	skipped int
}

// RowIndex records byte offsets of every rowIndexStride-th data row so that
// a page can be parsed by seeking close to its first row instead of scanning
// from the start of the file. Results are identical to ParsePage.
type RowIndex struct {
	content      string
	delimiter    byte
	header       model.Header
	checkpoints  []checkpoint
	totalRows    int
	totalSkipped int
}

// BuildRowIndex scans content once and records checkpoints.
func BuildRowIndex(ctx context.Context, content string, delimiter byte) (*RowIndex, error) {
	if isBlankContent(content) {
		return nil, &ParseError{Op: "build index", Err: ErrEmptyInput}
	}

	sc := newRowScanner(content, delimiter)
	ri := &RowIndex{content: content, delimiter: delimiter}
	idx := 0
	skipped := 0
	scanned := 0

	for {
		blank, ok := sc.next(ri.header == nil)
		if !ok {
			break
		}
		scanned++
		if scanned%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &ParseError{Op: "build index", Err: fmt.Errorf("%w: %w", ErrCanceled, err)}
			}
		}
		if blank {
			skipped++
			continue
		}
		if ri.header == nil {
			ri.header = sc.header()
			ri.checkpoints = append(ri.checkpoints, checkpoint{offset: sc.pos, skipped: skipped})
			continue
		}
		idx++
		if idx%rowIndexStride == 0 {
			ri.checkpoints = append(ri.checkpoints, checkpoint{offset: sc.pos, skipped: skipped})
		}
	}

	if ri.header == nil {
		return nil, &ParseError{Op: "build index", Err: ErrNoValidRows}
	}
	ri.totalRows = idx
	ri.totalSkipped = skipped
	return ri, nil
}

// TotalRows returns the number of data rows.
func (ri *RowIndex) TotalRows() int {
	return ri.totalRows
}

// SkippedRows returns the number of blank rows in the whole content.
func (ri *RowIndex) SkippedRows() int {
	return ri.totalSkipped
}

// Header returns the deduplicated header.
func (ri *RowIndex) Header() model.Header {
	return ri.header
}

// Delimiter returns the delimiter the index was built with.
func (ri *RowIndex) Delimiter() byte {
	return ri.delimiter
}

// ParsePage parses the data rows in [startRow, endRow) starting from the
// nearest checkpoint at or before startRow.
func (ri *RowIndex) ParsePage(ctx context.Context, startRow, endRow int, progress *Progress) (*model.ParsedPage, error) {
	w := scanWindow{
		op:     "parse page",
		start:  startRow,
		end:    endRow,
		header: ri.header,
	}

	cp := ri.checkpoints[0]
	if !w.empty() {
		k := min(startRow/rowIndexStride, len(ri.checkpoints)-1)
		cp = ri.checkpoints[k]
		w.idx = k * rowIndexStride
	}
	w.skipped = cp.skipped

	sc := newRowScanner(ri.content, ri.delimiter)
	sc.pos = cp.offset
	return collectRows(ctx, sc, w, progress)
}
