package datascope

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nao1215/datascope/domain/model"
)

const (
	// parquetBatchSize is the number of rows per Arrow record when reading
	parquetBatchSize = 64 * 1024
	// maxSafeInteger is the largest integer a float64 holds exactly (2^53-1)
	maxSafeInteger = 1<<53 - 1
)

// ParquetSession pages through a Parquet file. Only the row groups that
// overlap a page and only the requested columns are read. Pages are cached
// by page and column selection; thumbnails by page index.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type ParquetSession struct {
	cfg    Config
	logger zerolog.Logger
	id     string

	mu        sync.RWMutex
	path      string
	gen       uint64 // incremented by every Open
	totalRows int
	columns   []model.ParquetColumn

	pages  sync.Map // page cache key -> *model.ParsedPage
	thumbs sync.Map // page index -> model.ThumbnailData
}

// NewParquetSession creates a session without a file.
func NewParquetSession(cfg Config, opts ...SessionOption) *ParquetSession {
	o := applySessionOptions(opts)
	id := uuid.NewString()
	return &ParquetSession{
		cfg:    cfg,
		id:     id,
		logger: o.logger.With().Str("session", id).Str("backend", "parquet").Logger(),
	}
}

// ID returns the session identifier used in log entries.
func (s *ParquetSession) ID() string {
	return s.id
}

// Open reads the footer of a Parquet file: the row count and the schema.
// Caches of a previously opened file are dropped.
func (s *ParquetSession) Open(ctx context.Context, path string) (*model.ParquetOpenResult, error) {
	ec := NewErrorContext("open parquet", path)
	if DetectCompression(path) != CompressionNone {
		return nil, ec.WithDetails("compressed parquet files are not supported").Error(ErrUnsupportedFormat)
	}
	if err := validateInputPath(path, FileTypeParquet); err != nil {
		return nil, ec.Error(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, ec.Error(fmt.Errorf("%w: %w", ErrCanceled, err))
	}

	pf, fr, err := openParquet(path)
	if err != nil {
		return nil, ec.Error(err)
	}
	defer pf.Close()

	schema, err := fr.Schema()
	if err != nil {
		return nil, ec.WithDetails("read schema").Error(err)
	}
	columns := make([]model.ParquetColumn, schema.NumFields())
	for i, f := range schema.Fields() {
		columns[i] = model.ParquetColumn{Name: f.Name, DType: f.Type.String()}
	}

	s.mu.Lock()
	s.path = path
	s.gen++
	s.totalRows = int(pf.NumRows())
	s.columns = columns
	s.pages.Clear()
	s.thumbs.Clear()
	s.mu.Unlock()

	s.logger.Info().Str("path", path).Int("rows", int(pf.NumRows())).Int("columns", len(columns)).Msg("parquet file opened")
	return &model.ParquetOpenResult{Path: path, TotalRows: int(pf.NumRows()), Columns: columns}, nil
}

// Pagination plans the pages of the opened file.
func (s *ParquetSession) Pagination() (*model.PaginationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.path == "" {
		return nil, ErrNoFileLoaded
	}
	return Plan(s.totalRows, s.cfg.PageCapacity), nil
}

// Columns returns the schema of the opened file.
func (s *ParquetSession) Columns() []model.ParquetColumn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.columns)
}

// parquetPageKey identifies a cached page. Column order does not matter and
// an empty selection means every column.
func parquetPageKey(pageIndex int, page model.PageInfo, columns []string) string {
	cols := slices.Clone(columns)
	slices.Sort(cols)
	colsKey := "*"
	if len(cols) > 0 {
		colsKey = strings.Join(cols, "|")
	}
	return fmt.Sprintf("p=%d;s=%d;n=%d;c=%s", pageIndex, page.StartRow, page.RowCount, colsKey)
}

// LoadPage reads the rows of page, restricted to columns when not empty.
func (s *ParquetSession) LoadPage(ctx context.Context, pageIndex int, page model.PageInfo, columns []string) (*model.ParsedPage, error) {
	path, gen, err := s.current()
	if err != nil {
		return nil, err
	}

	key := parquetPageKey(pageIndex, page, columns)
	if cached, ok := s.pages.Load(key); ok {
		s.logger.Debug().Int("page", pageIndex).Msg("parquet page cache hit")
		return cached.(*model.ParsedPage), nil
	}

	start := time.Now()
	parsed, err := readParquetRows(ctx, path, page.StartRow, page.RowCount, columns)
	if err != nil {
		return nil, NewErrorContext("load parquet page", path).WithPage(pageIndex).Error(err)
	}
	s.storeIfCurrent(&s.pages, gen, key, parsed)
	s.logger.Debug().Int("page", pageIndex).Int("rows", len(parsed.Rows)).Dur("elapsed", time.Since(start)).Msg("parquet page loaded")
	return parsed, nil
}

// Thumbnail samples the first numeric column of a page.
func (s *ParquetSession) Thumbnail(ctx context.Context, pageIndex int, page model.PageInfo) (model.ThumbnailData, error) {
	if cached, ok := s.thumbs.Load(pageIndex); ok {
		return cached.(model.ThumbnailData), nil
	}
	_, gen, err := s.current()
	if err != nil {
		return model.ThumbnailData{}, err
	}
	parsed, err := s.LoadPage(ctx, pageIndex, page, nil)
	if err != nil {
		return model.ThumbnailData{}, err
	}
	thumb := model.ThumbnailData{
		PageIndex: pageIndex,
		Points:    SampleRecordsThumbnail(parsed.Headers, parsed.Rows, page, s.cfg.ThumbnailPoints),
		IsLoaded:  true,
	}
	s.storeIfCurrent(&s.thumbs, gen, pageIndex, thumb)
	return thumb, nil
}

// ClearCache drops cached pages and thumbnails.
func (s *ParquetSession) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages.Clear()
	s.thumbs.Clear()
}

// current returns the opened file and its generation.
func (s *ParquetSession) current() (string, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.path == "" {
		return "", 0, ErrNoFileLoaded
	}
	return s.path, s.gen, nil
}

// storeIfCurrent caches value unless another file was opened after gen.
func (s *ParquetSession) storeIfCurrent(cache *sync.Map, gen uint64, key, value any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen == gen {
		cache.Store(key, value)
	}
}

func openParquet(path string) (*pqfile.Reader, *pqarrow.FileReader, error) {
	pf, err := pqfile.OpenParquetFile(filepath.Clean(path), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: parquetBatchSize}, memory.NewGoAllocator())
	if err != nil {
		_ = pf.Close()
		return nil, nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}
	return pf, fr, nil
}

// leafColumns returns the Parquet leaf column indices of a field.
func leafColumns(f pqarrow.SchemaField, out []int) []int {
	if len(f.Children) == 0 {
		return append(out, f.ColIndex)
	}
	for _, c := range f.Children {
		out = leafColumns(c, out)
	}
	return out
}

// readParquetRows reads rows [start, start+count) of the selected columns.
func readParquetRows(ctx context.Context, path string, start, count int, columns []string) (*model.ParsedPage, error) {
	pf, fr, err := openParquet(path)
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	schema, err := fr.Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	var leaves []int
	headers := make([]string, 0, schema.NumFields())
	if len(columns) == 0 {
		for _, f := range schema.Fields() {
			headers = append(headers, f.Name)
		}
	} else {
		fields := make([]int, 0, len(columns))
		for _, name := range columns {
			idx := schema.FieldIndices(name)
			if len(idx) == 0 {
				return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
			}
			if !slices.Contains(fields, idx[0]) {
				fields = append(fields, idx[0])
			}
		}
		// record batches keep schema order
		slices.Sort(fields)
		for _, fi := range fields {
			headers = append(headers, schema.Field(fi).Name)
			leaves = leafColumns(fr.Manifest.Fields[fi], leaves)
		}
	}

	page := &model.ParsedPage{Headers: model.NewHeader(headers), Rows: []model.Record{}}
	end := start + count
	if start < 0 || count <= 0 {
		return page, nil
	}

	var groups []int
	first := -1
	cursor := 0
	for g := range pf.NumRowGroups() {
		n := int(pf.RowGroup(g).NumRows())
		if cursor < end && cursor+n > start {
			groups = append(groups, g)
			if first < 0 {
				first = cursor
			}
		}
		cursor += n
	}
	if len(groups) == 0 {
		return page, nil
	}

	rr, err := fr.GetRecordReader(ctx, leaves, groups)
	if err != nil {
		return nil, fmt.Errorf("failed to create record reader: %w", err)
	}
	defer rr.Release()

	pos := first
	for pos < end && rr.Next() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
		}
		rec := rr.Record()
		n := int(rec.NumRows())
		lo := max(start-pos, 0)
		hi := min(end-pos, n)
		for r := lo; r < hi; r++ {
			row := make(model.Record, rec.NumCols())
			for c := range row {
				row[c] = arrowCell(rec.Column(c), r)
			}
			page.Rows = append(page.Rows, row)
		}
		pos += n
	}
	if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read record batch: %w", err)
	}
	return page, nil
}

// arrowCell converts one value of an Arrow array to a cell. Integers
// outside the exactly representable float64 range are kept as text.
func arrowCell(col arrow.Array, i int) model.CellValue {
	if col.IsNull(i) {
		return model.NullCell()
	}

	switch col.DataType().ID() {
	case arrow.STRING:
		return model.TextCell(col.(*array.String).Value(i))
	case arrow.LARGE_STRING:
		return model.TextCell(col.(*array.LargeString).Value(i))
	case arrow.BINARY:
		return model.TextCell(string(col.(*array.Binary).Value(i)))
	case arrow.BOOL:
		return model.BoolCell(col.(*array.Boolean).Value(i))
	case arrow.INT8:
		return model.NumberCell(float64(col.(*array.Int8).Value(i)))
	case arrow.INT16:
		return model.NumberCell(float64(col.(*array.Int16).Value(i)))
	case arrow.INT32:
		return model.NumberCell(float64(col.(*array.Int32).Value(i)))
	case arrow.INT64:
		return intCell(col.(*array.Int64).Value(i))
	case arrow.UINT8:
		return model.NumberCell(float64(col.(*array.Uint8).Value(i)))
	case arrow.UINT16:
		return model.NumberCell(float64(col.(*array.Uint16).Value(i)))
	case arrow.UINT32:
		return model.NumberCell(float64(col.(*array.Uint32).Value(i)))
	case arrow.UINT64:
		v := col.(*array.Uint64).Value(i)
		if v > maxSafeInteger {
			return model.TextCell(strconv.FormatUint(v, 10))
		}
		return model.NumberCell(float64(v))
	case arrow.FLOAT16:
		return model.NumberCell(float64(col.(*array.Float16).Value(i).Float32()))
	case arrow.FLOAT32:
		return model.NumberCell(float64(col.(*array.Float32).Value(i)))
	case arrow.FLOAT64:
		return model.NumberCell(col.(*array.Float64).Value(i))
	case arrow.DECIMAL128:
		dt := col.DataType().(*arrow.Decimal128Type)
		return model.NumberCell(col.(*array.Decimal128).Value(i).ToFloat64(dt.Scale))
	case arrow.DATE32:
		return model.TextCell(col.(*array.Date32).Value(i).ToTime().Format(time.DateOnly))
	case arrow.DATE64:
		return model.TextCell(col.(*array.Date64).Value(i).ToTime().Format(time.DateOnly))
	case arrow.TIMESTAMP:
		dt := col.DataType().(*arrow.TimestampType)
		return model.TextCell(col.(*array.Timestamp).Value(i).ToTime(dt.Unit).UTC().Format(time.RFC3339Nano))
	default:
		b, err := json.Marshal(col.GetOneForMarshal(i))
		if err != nil {
			return model.TextCell(col.ValueStr(i))
		}
		return model.RawCell(string(b))
	}
}

func intCell(v int64) model.CellValue {
	if v > maxSafeInteger || v < -maxSafeInteger {
		return model.TextCell(strconv.FormatInt(v, 10))
	}
	return model.NumberCell(float64(v))
}

// ParquetCompression is the codec used by ConvertCSVToParquet.
type ParquetCompression string

const (
	// ParquetZstd is zstandard, the default
	ParquetZstd ParquetCompression = "zstd"
	// ParquetSnappy is snappy
	ParquetSnappy ParquetCompression = "snappy"
	// ParquetUncompressed disables compression
	ParquetUncompressed ParquetCompression = "uncompressed"
)

func (c ParquetCompression) codec() (compress.Compression, error) {
	switch c {
	case "", ParquetZstd:
		return compress.Codecs.Zstd, nil
	case ParquetSnappy:
		return compress.Codecs.Snappy, nil
	case ParquetUncompressed:
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unknown parquet compression %q", string(c))
	}
}

// CSVToParquetOptions configures ConvertCSVToParquet.
type CSVToParquetOptions struct {
	// Delimiter of the input; zero detects it from the content.
	Delimiter byte
	// NoHeader treats the first row as data and names columns column_1...
	NoHeader bool
	// InferSchemaLength is the number of rows used to pick column types.
	InferSchemaLength int
	// Compression defaults to zstd.
	Compression ParquetCompression
	// BatchSize is the number of rows per written record batch.
	BatchSize int
}

// ConvertResult summarizes a conversion.
type ConvertResult struct {
	Rows int
	// NullifiedCells counts non-empty cells that did not match the column
	// type inferred from the first rows and were written as null.
	NullifiedCells int
	Schema         *arrow.Schema
}

// ConvertCSVToParquet writes a delimited file (optionally compressed) as
// Parquet. Columns inferred as numeric become float64, temporal columns
// timestamp[ms] and everything else utf8. Empty cells are written as null.
func ConvertCSVToParquet(ctx context.Context, csvPath, parquetPath string, opts CSVToParquetOptions) (*ConvertResult, error) {
	ec := NewErrorContext("convert csv to parquet", csvPath)
	if err := validateInputPath(csvPath, FileTypeDelimited); err != nil {
		return nil, ec.Error(err)
	}
	if err := validateOutputPath(parquetPath); err != nil {
		return nil, ec.Error(err)
	}
	codec, err := opts.Compression.codec()
	if err != nil {
		return nil, ec.Error(err)
	}

	content, err := readFileText(csvPath)
	if err != nil {
		return nil, ec.Error(err)
	}
	if isBlankContent(content) {
		return nil, ec.Error(ErrEmptyInput)
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = DetectDelimiter(content)
	}
	if !ValidDelimiter(delimiter) {
		return nil, ec.Error(fmt.Errorf("%w: %q", ErrInvalidDelimiter, delimiter))
	}
	inferLen := opts.InferSchemaLength
	if inferLen <= 0 {
		inferLen = DefaultInferSampleSize
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = parquetBatchSize
	}

	sc := newRowScanner(content, delimiter)
	var headers model.Header
	var pending []model.Record
	for headers == nil {
		blank, ok := sc.next(true)
		if !ok {
			return nil, ec.Error(ErrNoValidRows)
		}
		if blank {
			continue
		}
		if opts.NoHeader {
			names := make([]string, len(sc.cells))
			for i := range names {
				names[i] = "column_" + strconv.Itoa(i+1)
			}
			headers = model.NewHeader(names)
			pending = append(pending, sc.record(len(headers)))
		} else {
			headers = sc.header()
		}
	}

	// buffer the rows used for inference; they are written first
	for len(pending) < inferLen {
		blank, ok := sc.next(true)
		if !ok {
			break
		}
		if !blank {
			pending = append(pending, sc.record(len(headers)))
		}
	}

	metas := InferColumnsWithSample(pending, headers, inferLen)
	fields := make([]arrow.Field, len(headers))
	for i, m := range metas {
		var typ arrow.DataType = arrow.BinaryTypes.String
		switch {
		case m.IsNumeric:
			typ = arrow.PrimitiveTypes.Float64
		case m.IsTemporal:
			typ = arrow.FixedWidthTypes.Timestamp_ms
		}
		fields[i] = arrow.Field{Name: m.Name, Type: typ, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	out, err := os.Create(filepath.Clean(parquetPath))
	if err != nil {
		return nil, ec.Error(fmt.Errorf("failed to create file: %w", err))
	}
	defer func() {
		_ = out.Close() // already closed by the parquet writer on success
	}()

	props := parquet.NewWriterProperties(parquet.WithCompression(codec))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	writer, err := pqarrow.NewFileWriter(schema, out, props, arrowProps)
	if err != nil {
		return nil, ec.Error(fmt.Errorf("failed to create parquet writer: %w", err))
	}

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	result := &ConvertResult{Schema: schema}
	buffered := 0
	flush := func() error {
		if buffered == 0 {
			return nil
		}
		rec := builder.NewRecord()
		defer rec.Release()
		buffered = 0
		return writer.Write(rec)
	}
	appendRow := func(row model.Record) error {
		for i, m := range metas {
			if !appendArrowCell(builder.Field(i), m, row.Get(i)) {
				result.NullifiedCells++
			}
		}
		result.Rows++
		buffered++
		if buffered >= batchSize {
			return flush()
		}
		return nil
	}

	for _, row := range pending {
		if err := appendRow(row); err != nil {
			_ = writer.Close()
			return nil, ec.Error(err)
		}
	}
	for {
		blank, ok := sc.next(true)
		if !ok {
			break
		}
		if blank {
			continue
		}
		if result.Rows%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				_ = writer.Close()
				return nil, ec.Error(fmt.Errorf("%w: %w", ErrCanceled, err))
			}
		}
		if err := appendRow(sc.record(len(headers))); err != nil {
			_ = writer.Close()
			return nil, ec.Error(err)
		}
	}
	if err := flush(); err != nil {
		_ = writer.Close()
		return nil, ec.Error(err)
	}
	if err := writer.Close(); err != nil {
		return nil, ec.Error(fmt.Errorf("failed to close parquet writer: %w", err))
	}
	return result, nil
}

// appendArrowCell appends a cell to a column builder. It returns false when
// a non-empty cell did not fit the column type and null was appended.
func appendArrowCell(b array.Builder, meta model.ColumnMeta, cell model.CellValue) bool {
	text := cell.ToText()
	if model.TrimSpace(text) == "" {
		b.AppendNull()
		return true
	}

	switch {
	case meta.IsNumeric:
		fb := b.(*array.Float64Builder)
		if v, ok := cell.ToNumber(); ok && !math.IsNaN(v) {
			fb.Append(v)
			return true
		}
		fb.AppendNull()
		return false
	case meta.IsTemporal:
		tb := b.(*array.TimestampBuilder)
		if ms, ok := ParseEpochMillis(text); ok {
			tb.Append(arrow.Timestamp(ms))
			return true
		}
		tb.AppendNull()
		return false
	default:
		b.(*array.StringBuilder).Append(text)
		return true
	}
}
