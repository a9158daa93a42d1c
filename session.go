package datascope

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/nao1215/datascope/domain/model"
)

type sessionOptions struct {
	logger zerolog.Logger
}

// SessionOption configures a Session or a ParquetSession.
type SessionOption func(*sessionOptions)

// WithLogger sets the logger of a session. The default discards everything.
func WithLogger(logger zerolog.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

func applySessionOptions(opts []SessionOption) sessionOptions {
	o := sessionOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LoadResult describes a dataset loaded into a Session.
type LoadResult struct {
	Path      string `json:"path"`
	TotalRows int    `json:"total_rows"`
	Delimiter string `json:"delimiter"`
	Paginated bool   `json:"paginated"`
}

// Session holds one delimited dataset in memory together with its row
// index, pagination plan and the page and thumbnail caches keyed by page
// index. Loading another file or changing the delimiter drops the caches.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type Session struct {
	cfg      Config
	logger   zerolog.Logger
	id       string
	memLimit *MemoryLimit

	mu      sync.RWMutex
	path    string
	content string
	index   *RowIndex
	plan    *model.PaginationState

	pages  sync.Map // page index -> *model.ParsedPage
	thumbs sync.Map // page index -> model.ThumbnailData
}

// NewSession creates a session without a dataset.
func NewSession(cfg Config, opts ...SessionOption) *Session {
	o := applySessionOptions(opts)
	id := uuid.NewString()
	if cfg.PageCapacity <= 0 {
		cfg.PageCapacity = DefaultPageCapacity
	}
	if cfg.ThumbnailPoints <= 0 {
		cfg.ThumbnailPoints = DefaultThumbnailPoints
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Session{
		cfg:      cfg,
		id:       id,
		logger:   o.logger.With().Str("session", id).Str("backend", "csv").Logger(),
		memLimit: NewMemoryLimit(cfg.MemoryLimitMB),
	}
}

// ID returns the session identifier used in log entries.
func (s *Session) ID() string {
	return s.id
}

// LoadFile reads a delimited file (plain or .gz/.bz2/.xz/.zst) or the first
// sheet of an .xlsx workbook, detects the delimiter and indexes the rows.
func (s *Session) LoadFile(ctx context.Context, path string) (LoadResult, error) {
	ec := NewErrorContext("load file", path)
	if DetectFileType(path) == FileTypeParquet {
		return LoadResult{}, ec.WithDetails("parquet files are read with ParquetSession").Error(ErrUnsupportedFormat)
	}
	if err := validateInputPath(path, FileTypeDelimited, FileTypeXLSX); err != nil {
		return LoadResult{}, ec.Error(err)
	}

	var content string
	switch DetectFileType(path) {
	case FileTypeDelimited:
		info, err := os.Stat(filepath.Clean(path))
		if err != nil {
			return LoadResult{}, ec.Error(err)
		}
		if err := s.memLimit.Reserve("load file", info.Size()); err != nil {
			return LoadResult{}, ec.Error(err)
		}
		content, err = readFileText(path)
		if err != nil {
			return LoadResult{}, ec.Error(err)
		}
	case FileTypeXLSX:
		var err error
		content, err = ReadXLSX(ctx, path, "")
		if err != nil {
			return LoadResult{}, ec.Error(err)
		}
	default:
		return LoadResult{}, ec.Error(ErrUnsupportedFormat)
	}

	res, err := s.load(ctx, path, content, 0)
	if err != nil {
		return LoadResult{}, ec.Error(err)
	}
	return res, nil
}

// LoadContent loads delimited text that is already in memory. name is only
// used for reporting.
func (s *Session) LoadContent(ctx context.Context, name, content string) (LoadResult, error) {
	res, err := s.load(ctx, name, content, 0)
	if err != nil {
		return LoadResult{}, NewErrorContext("load content", name).Error(err)
	}
	return res, nil
}

// load indexes content with delimiter, or a detected one when delimiter is
// zero, and replaces the current dataset.
func (s *Session) load(ctx context.Context, name, content string, delimiter byte) (LoadResult, error) {
	if delimiter == 0 {
		delimiter = DetectDelimiter(content)
	}

	start := time.Now()
	index, err := BuildRowIndex(ctx, content, delimiter)
	if err != nil {
		return LoadResult{}, err
	}
	plan := Plan(index.TotalRows(), s.cfg.PageCapacity)

	s.mu.Lock()
	s.path = name
	s.content = content
	s.index = index
	s.plan = plan
	// cleared under the lock so storeIfCurrent cannot re-add a stale entry
	s.pages.Clear()
	s.thumbs.Clear()
	s.mu.Unlock()

	res := LoadResult{
		Path:      name,
		TotalRows: index.TotalRows(),
		Delimiter: string(delimiter),
		Paginated: NeedsPagination(index.TotalRows(), s.cfg.PageCapacity),
	}
	s.logger.Info().
		Str("path", name).
		Int("rows", res.TotalRows).
		Int("pages", plan.TotalPages).
		Str("delimiter", DelimiterName(delimiter)).
		Dur("elapsed", time.Since(start)).
		Msg("dataset loaded")
	return res, nil
}

// snapshot returns the loaded dataset.
func (s *Session) snapshot() (*RowIndex, *model.PaginationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, nil, ErrNoFileLoaded
	}
	return s.index, s.plan, nil
}

func clonePlan(p *model.PaginationState) *model.PaginationState {
	c := *p
	c.Pages = slices.Clone(p.Pages)
	return &c
}

// Pagination returns the page plan of a dataset larger than one page, and
// nil for a small dataset that is read in one piece.
func (s *Session) Pagination() *model.PaginationState {
	_, plan, err := s.snapshot()
	if err != nil || !NeedsPagination(plan.TotalRows, s.cfg.PageCapacity) {
		return nil
	}
	return clonePlan(plan)
}

// PlanPages returns the page plan regardless of the dataset size.
func (s *Session) PlanPages() (*model.PaginationState, error) {
	_, plan, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return clonePlan(plan), nil
}

// Path returns the name of the loaded dataset.
func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// TotalRows returns the number of data rows, 0 without a dataset.
func (s *Session) TotalRows() int {
	index, _, err := s.snapshot()
	if err != nil {
		return 0
	}
	return index.TotalRows()
}

// Delimiter returns the delimiter in use, 0 without a dataset.
func (s *Session) Delimiter() byte {
	index, _, err := s.snapshot()
	if err != nil {
		return 0
	}
	return index.Delimiter()
}

// Header returns the deduplicated header of the dataset.
func (s *Session) Header() (model.Header, error) {
	index, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return slices.Clone(index.Header()), nil
}

// LoadAll parses the whole dataset. It is meant for datasets that do not
// need pagination.
func (s *Session) LoadAll(ctx context.Context) (*model.ParsedPage, error) {
	index, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return index.ParsePage(ctx, 0, math.MaxInt, nil)
}

func pageOf(plan *model.PaginationState, pageIndex int) (model.PageInfo, error) {
	if plan.TotalPages == 0 && pageIndex == 0 {
		return model.PageInfo{}, nil
	}
	page, ok := plan.Page(pageIndex)
	if !ok {
		return model.PageInfo{}, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, pageIndex, plan.TotalPages)
	}
	return page, nil
}

// LoadPage returns the rows of one page, parsing them on first access.
// progress may be nil.
func (s *Session) LoadPage(ctx context.Context, pageIndex int, progress *Progress) (*model.ParsedPage, error) {
	if cached, ok := s.pages.Load(pageIndex); ok {
		s.logger.Debug().Int("page", pageIndex).Msg("page cache hit")
		progress.finish(len(cached.(*model.ParsedPage).Rows))
		return cached.(*model.ParsedPage), nil
	}

	index, plan, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	page, err := pageOf(plan, pageIndex)
	if err != nil {
		return nil, NewErrorContext("load page", s.Path()).WithPage(pageIndex).Error(err)
	}

	start := time.Now()
	parsed, err := index.ParsePage(ctx, page.StartRow, page.EndRow, progress)
	if err != nil {
		return nil, NewErrorContext("load page", s.Path()).WithPage(pageIndex).Error(err)
	}
	s.storeIfCurrent(&s.pages, index, pageIndex, parsed)
	s.logger.Debug().Int("page", pageIndex).Int("rows", len(parsed.Rows)).Dur("elapsed", time.Since(start)).Msg("page loaded")
	return parsed, nil
}

// storeIfCurrent caches value unless the dataset it was computed from has
// been replaced in the meantime.
func (s *Session) storeIfCurrent(cache *sync.Map, index *RowIndex, pageIndex int, value any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == index {
		cache.Store(pageIndex, value)
	}
}

// Columns infers column metadata from the rows of one page.
func (s *Session) Columns(ctx context.Context, pageIndex int) ([]model.ColumnMeta, error) {
	page, err := s.LoadPage(ctx, pageIndex, nil)
	if err != nil {
		return nil, err
	}
	return InferColumnsWithSample(page.Rows, page.Headers, s.cfg.InferSampleSize), nil
}

// Thumbnail returns the preview of one page. The page's rows are parsed for
// sampling but not added to the page cache.
func (s *Session) Thumbnail(ctx context.Context, pageIndex int) (model.ThumbnailData, error) {
	if cached, ok := s.thumbs.Load(pageIndex); ok {
		return cached.(model.ThumbnailData), nil
	}

	index, plan, err := s.snapshot()
	if err != nil {
		return model.ThumbnailData{}, err
	}
	page, err := pageOf(plan, pageIndex)
	if err != nil {
		return model.ThumbnailData{}, NewErrorContext("generate thumbnail", s.Path()).WithPage(pageIndex).Error(err)
	}

	var parsed *model.ParsedPage
	if cached, ok := s.pages.Load(pageIndex); ok {
		parsed = cached.(*model.ParsedPage)
	} else {
		parsed, err = index.ParsePage(ctx, page.StartRow, page.EndRow, nil)
		if err != nil {
			return model.ThumbnailData{}, NewErrorContext("generate thumbnail", s.Path()).WithPage(pageIndex).Error(err)
		}
	}

	thumb := model.ThumbnailData{
		PageIndex: pageIndex,
		Points:    SampleRecordsThumbnail(parsed.Headers, parsed.Rows, page, s.cfg.ThumbnailPoints),
		IsLoaded:  true,
	}
	s.storeIfCurrent(&s.thumbs, index, pageIndex, thumb)
	return thumb, nil
}

// GenerateThumbnails builds the preview of every page in the background
// with at most Config.Workers goroutines. fn is called once per page as
// previews complete, never concurrently. The first error cancels the rest.
func (s *Session) GenerateThumbnails(ctx context.Context, fn func(model.ThumbnailData)) error {
	_, plan, err := s.snapshot()
	if err != nil {
		return err
	}

	var fnMu sync.Mutex
	p := pool.New().WithMaxGoroutines(s.cfg.Workers).WithContext(ctx).WithCancelOnError()
	for _, page := range plan.Pages {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrCanceled, err)
			}
			thumb, err := s.Thumbnail(ctx, page.PageIndex)
			if err != nil {
				return err
			}
			if fn != nil {
				fnMu.Lock()
				fn(thumb)
				fnMu.Unlock()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		s.logger.Warn().Err(err).Msg("thumbnail generation stopped")
		return err
	}
	s.logger.Debug().Int("pages", len(plan.Pages)).Msg("thumbnails generated")
	return nil
}

// ChangeDelimiter re-indexes the dataset with another delimiter and drops
// the caches. It fails with ErrDelimiterMismatch when no valid row remains.
func (s *Session) ChangeDelimiter(ctx context.Context, delimiter byte) (LoadResult, error) {
	ec := NewErrorContext("change delimiter", s.Path()).WithDetails("delimiter " + DelimiterName(delimiter))
	if !ValidDelimiter(delimiter) {
		return LoadResult{}, ec.Error(ErrInvalidDelimiter)
	}

	s.mu.RLock()
	name, content, loaded := s.path, s.content, s.index != nil
	s.mu.RUnlock()
	if !loaded {
		return LoadResult{}, ec.Error(ErrNoFileLoaded)
	}

	res, err := s.load(ctx, name, content, delimiter)
	if err != nil {
		if errors.Is(err, ErrNoValidRows) {
			err = fmt.Errorf("%w: %w", ErrDelimiterMismatch, err)
		}
		return LoadResult{}, ec.Error(err)
	}
	return res, nil
}

// ClearCache drops cached pages and thumbnails.
func (s *Session) ClearCache() {
	s.mu.Lock()
	s.pages.Clear()
	s.thumbs.Clear()
	s.mu.Unlock()
	s.logger.Debug().Msg("cache cleared")
}

// BuildChart assembles chart data from one page. A zero MaxPoints uses
// Config.DefaultMaxPoints.
func (s *Session) BuildChart(ctx context.Context, pageIndex int, req ChartRequest) (*model.ChartComputationResult, error) {
	page, err := s.LoadPage(ctx, pageIndex, nil)
	if err != nil {
		return nil, err
	}
	if req.MaxPoints == 0 {
		req.MaxPoints = float64(s.cfg.DefaultMaxPoints)
	}
	return BuildChartData(page.Rows, page.Headers, req)
}

// Query runs a read-only SQL query against one page. See QueryPage.
func (s *Session) Query(ctx context.Context, pageIndex int, query string) (*model.ParsedPage, error) {
	page, err := s.LoadPage(ctx, pageIndex, nil)
	if err != nil {
		return nil, err
	}
	return QueryPageReadOnly(ctx, page, query)
}
