package datascope

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/nao1215/datascope/domain/model"
)

const (
	// progressInterval is the number of kept rows between progress updates
	progressInterval = 1000
	// cancelCheckInterval is the number of scanned rows between context checks
	cancelCheckInterval = 1000
	// maxPreallocRows bounds the initial capacity of a page's row slice
	maxPreallocRows = 4096
)

// Progress is a polled progress report for a range-bounded parse. A nil
// *Progress is valid and ignores updates.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type Progress struct {
	current atomic.Int64
	total   atomic.Int64
	done    atomic.Bool
	notify  func(current, total int)
}

// NewProgress creates an empty progress report.
func NewProgress() *Progress {
	return &Progress{}
}

// NewProgressFunc creates a progress report that also calls fn, from the
// parsing goroutine, after every update and once more when the parse
// finishes.
func NewProgressFunc(fn func(current, total int)) *Progress {
	return &Progress{notify: fn}
}

// Current returns the number of rows materialized so far.
func (p *Progress) Current() int {
	if p == nil {
		return 0
	}
	return int(p.current.Load())
}

// Total returns the size of the requested row window.
func (p *Progress) Total() int {
	if p == nil {
		return 0
	}
	return int(p.total.Load())
}

// Done reports whether the parse finished.
func (p *Progress) Done() bool {
	if p == nil {
		return false
	}
	return p.done.Load()
}

// Fraction returns Current/Total in [0,1]. A finished parse reports 1.
func (p *Progress) Fraction() float64 {
	if p.Done() {
		return 1
	}
	total := p.Total()
	if total <= 0 {
		return 0
	}
	f := float64(p.Current()) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}

func (p *Progress) begin(total int) {
	if p == nil {
		return
	}
	p.done.Store(false)
	p.current.Store(0)
	p.total.Store(int64(total))
}

func (p *Progress) update(current int) {
	if p == nil {
		return
	}
	p.current.Store(int64(current))
	if p.notify != nil {
		p.notify(current, p.Total())
	}
}

func (p *Progress) finish(current int) {
	if p == nil {
		return
	}
	p.current.Store(int64(current))
	p.done.Store(true)
	if p.notify != nil {
		p.notify(current, p.Total())
	}
}

// scanWindow is the state a range-bounded scan starts from. A nil header
// means the scan has not seen the header row yet; idx is the logical index
// of the next non-blank data row.
type scanWindow struct {
	op      string
	start   int
	end     int
	idx     int
	skipped int
	header  model.Header
}

func (w scanWindow) empty() bool {
	return w.start < 0 || w.start >= w.end
}

// collectRows scans rows from the scanner's position, keeping the data rows
// whose logical index falls inside [start, end). Rows before the window are
// scanned without materializing their cells and the scan stops as soon as
// the index reaches end.
func collectRows(ctx context.Context, sc *rowScanner, w scanWindow, progress *Progress) (*model.ParsedPage, error) {
	op := w.op
	if op == "" {
		op = "parse"
	}

	header := w.header
	idx := w.idx
	skipped := w.skipped
	empty := w.empty()

	capacity := 0
	if !empty {
		capacity = min(w.end-w.start, maxPreallocRows)
		progress.begin(w.end - w.start)
	} else {
		progress.begin(0)
	}
	rows := make([]model.Record, 0, capacity)

	scanned := 0
	for {
		if header != nil && (empty || idx >= w.end) {
			break
		}
		keep := header == nil || idx >= w.start
		blank, ok := sc.next(keep)
		if !ok {
			break
		}

		scanned++
		if scanned%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &ParseError{Op: op, Err: fmt.Errorf("%w: %w", ErrCanceled, err)}
			}
		}

		if blank {
			skipped++
			continue
		}
		if header == nil {
			header = sc.header()
			continue
		}
		if keep {
			rows = append(rows, sc.record(len(header)))
			if len(rows)%progressInterval == 0 {
				progress.update(len(rows))
			}
		}
		idx++
	}

	if header == nil {
		return nil, &ParseError{Op: op, Err: ErrNoValidRows}
	}

	progress.finish(len(rows))
	return &model.ParsedPage{
		Headers:     header,
		Rows:        rows,
		SkippedRows: skipped,
	}, nil
}

// ParsePage parses only the data rows in [startRow, endRow). Row indices are
// logical: the header is -1 and blank rows do not advance the index, so a
// physical row gets the same index whichever page asks for it. An empty or
// negative window yields a page with the header and no rows. SkippedRows
// counts the blank rows met before the scan stopped.
func ParsePage(ctx context.Context, content string, delimiter byte, startRow, endRow int, progress *Progress) (*model.ParsedPage, error) {
	if isBlankContent(content) {
		return nil, &ParseError{Op: "parse page", Err: ErrEmptyInput}
	}
	return collectRows(ctx, newRowScanner(content, delimiter), scanWindow{
		op:    "parse page",
		start: startRow,
		end:   endRow,
	}, progress)
}

// QuickCountRows counts the data rows of content without materializing any
// cell. Blank rows are not counted, so the result always equals the number
// of records Parse returns for the same content and delimiter.
func QuickCountRows(content string, delimiter byte) int {
	if isBlankContent(content) {
		return 0
	}
	sc := newRowScanner(content, delimiter)
	n := 0
	for {
		blank, ok := sc.next(false)
		if !ok {
			break
		}
		if !blank {
			n++
		}
	}
	return max(0, n-1)
}
