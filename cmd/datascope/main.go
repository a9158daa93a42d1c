// Command datascope inspects large delimited and Parquet files from the
// command line and prints JSON.
//
// Usage:
//
//	datascope [global flags] <command> [flags] <file>
//
// Commands:
//
//	info     row count, delimiter, pagination and column types
//	page     rows of one page
//	chart    chart series of one page
//	thumbs   thumbnails of every page
//	query    SQL over one page (table "page")
//	convert  CSV to Parquet
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/nao1215/datascope"
	"github.com/nao1215/datascope/domain/model"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "datascope:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    datascope.Config
	logger zerolog.Logger
	out    io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("datascope", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "path to a datascope.yaml configuration file")
	verbose := global.Bool("v", false, "enable debug logging")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	cfg, err := datascope.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{cfg: cfg, logger: logger, out: stdout}
	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "info":
		return a.info(ctx, rest)
	case "page":
		return a.page(ctx, rest)
	case "chart":
		return a.chart(ctx, rest)
	case "thumbs":
		return a.thumbs(ctx, rest)
	case "query":
		return a.query(ctx, rest)
	case "convert":
		return a.convert(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) emit(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// pageFlags are shared by the commands that read one page.
type pageFlags struct {
	page      int
	delimiter string
	columns   string
}

func (f *pageFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.page, "page", 0, "page index")
	fs.StringVar(&f.delimiter, "delimiter", "", "delimiter override: , tab ; |")
	fs.StringVar(&f.columns, "columns", "", "comma separated columns to read (parquet only)")
}

func (f *pageFlags) columnList() []string {
	if f.columns == "" {
		return nil
	}
	return strings.Split(f.columns, ",")
}

func fileArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one file argument", fs.Name())
	}
	return fs.Arg(0), nil
}

// openCSV loads a delimited file or workbook into a session.
func (a *app) openCSV(ctx context.Context, path, delimiter string) (*datascope.Session, datascope.LoadResult, error) {
	s := datascope.NewSession(a.cfg, datascope.WithLogger(a.logger))
	res, err := s.LoadFile(ctx, path)
	if err != nil {
		return nil, res, err
	}
	if delimiter != "" {
		d, err := datascope.ParseDelimiter(delimiter)
		if err != nil {
			return nil, res, err
		}
		if res, err = s.ChangeDelimiter(ctx, d); err != nil {
			return nil, res, err
		}
	}
	return s, res, nil
}

// loadPage reads one page of any supported file.
func (a *app) loadPage(ctx context.Context, path string, f pageFlags) (*model.ParsedPage, error) {
	if datascope.DetectFileType(path) == datascope.FileTypeParquet {
		ps := datascope.NewParquetSession(a.cfg, datascope.WithLogger(a.logger))
		if _, err := ps.Open(ctx, path); err != nil {
			return nil, err
		}
		plan, err := ps.Pagination()
		if err != nil {
			return nil, err
		}
		info, ok := plan.Page(f.page)
		if !ok {
			return nil, fmt.Errorf("%w: %d", datascope.ErrPageOutOfRange, f.page)
		}
		return ps.LoadPage(ctx, f.page, info, f.columnList())
	}

	s, _, err := a.openCSV(ctx, path, f.delimiter)
	if err != nil {
		return nil, err
	}
	return s.LoadPage(ctx, f.page, nil)
}

func (a *app) info(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	delimiter := fs.String("delimiter", "", "delimiter override: , tab ; |")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(fs)
	if err != nil {
		return err
	}

	if datascope.DetectFileType(path) == datascope.FileTypeParquet {
		ps := datascope.NewParquetSession(a.cfg, datascope.WithLogger(a.logger))
		res, err := ps.Open(ctx, path)
		if err != nil {
			return err
		}
		plan, err := ps.Pagination()
		if err != nil {
			return err
		}
		return a.emit(struct {
			*model.ParquetOpenResult
			Pagination *model.PaginationState `json:"pagination"`
		}{res, plan})
	}

	s, res, err := a.openCSV(ctx, path, *delimiter)
	if err != nil {
		return err
	}
	columns, err := s.Columns(ctx, 0)
	if err != nil {
		return err
	}
	return a.emit(struct {
		datascope.LoadResult
		Pagination *model.PaginationState `json:"pagination"`
		Columns    []model.ColumnMeta     `json:"columns"`
	}{res, s.Pagination(), columns})
}

func (a *app) page(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("page", flag.ContinueOnError)
	var f pageFlags
	f.register(fs)
	output := fs.String("o", "", "write the page as delimited text to this file instead of JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(fs)
	if err != nil {
		return err
	}
	page, err := a.loadPage(ctx, path, f)
	if err != nil {
		return err
	}
	if *output != "" {
		return datascope.SavePage(*output, page, datascope.DefaultDelimiter)
	}
	return a.emit(page)
}

func (a *app) chart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	var f pageFlags
	f.register(fs)
	x := fs.String("x", datascope.RowIndexKey, "axis column")
	y := fs.String("y", "", "comma separated value columns, the first one is the base column")
	axis := fs.String("axis", "", "axis type: value, time or category (default: inferred)")
	maxPoints := fs.Float64("max-points", 0, "point budget (default: from configuration)")
	noDownsample := fs.Bool("no-downsample", false, "keep every point")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(fs)
	if err != nil {
		return err
	}

	page, err := a.loadPage(ctx, path, f)
	if err != nil {
		return err
	}

	yColumns := datascope.NumericColumns(datascope.InferColumns(page.Rows, page.Headers))
	if *y != "" {
		yColumns = strings.Split(*y, ",")
	}
	axisType := model.AxisType(*axis)
	if !axisType.Valid() {
		axisType = datascope.DetermineAxisType(datascope.InferColumns(page.Rows, page.Headers), *x)
	}
	if *maxPoints == 0 {
		*maxPoints = float64(a.cfg.DefaultMaxPoints)
	}

	result, err := datascope.BuildChartData(page.Rows, page.Headers, datascope.ChartRequest{
		XColumn:        *x,
		YColumns:       yColumns,
		AxisType:       axisType,
		AutoDownsample: !*noDownsample,
		MaxPoints:      *maxPoints,
	})
	if err != nil {
		return err
	}
	a.logger.Debug().Int("raw", result.RawCount).Int("sampled", result.SampledCount).Int("dropped", result.DroppedRows).Msg("chart built")
	return a.emit(result)
}

func (a *app) thumbs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("thumbs", flag.ContinueOnError)
	delimiter := fs.String("delimiter", "", "delimiter override: , tab ; |")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(fs)
	if err != nil {
		return err
	}

	s, _, err := a.openCSV(ctx, path, *delimiter)
	if err != nil {
		return err
	}
	plan, err := s.PlanPages()
	if err != nil {
		return err
	}
	thumbs := make([]model.ThumbnailData, plan.TotalPages)
	if err := s.GenerateThumbnails(ctx, func(t model.ThumbnailData) {
		thumbs[t.PageIndex] = t
		a.logger.Debug().Int("page", t.PageIndex).Int("points", len(t.Points)).Msg("thumbnail ready")
	}); err != nil {
		return err
	}
	return a.emit(thumbs)
}

func (a *app) query(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	var f pageFlags
	f.register(fs)
	q := fs.String("q", "", "SELECT statement over the table \"page\"")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(fs)
	if err != nil {
		return err
	}
	page, err := a.loadPage(ctx, path, f)
	if err != nil {
		return err
	}
	result, err := datascope.QueryPageReadOnly(ctx, page, *q)
	if err != nil {
		return err
	}
	return a.emit(result)
}

func (a *app) convert(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	delimiter := fs.String("delimiter", "", "input delimiter (default: detected)")
	noHeader := fs.Bool("no-header", false, "the first row is data")
	inferLength := fs.Int("infer-schema-length", 0, "rows used to infer column types")
	compression := fs.String("compression", string(datascope.ParquetZstd), "zstd, snappy or uncompressed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("convert: expected <input.csv> <output.parquet>")
	}

	opts := datascope.CSVToParquetOptions{
		NoHeader:          *noHeader,
		InferSchemaLength: *inferLength,
		Compression:       datascope.ParquetCompression(*compression),
	}
	if *delimiter != "" {
		d, err := datascope.ParseDelimiter(*delimiter)
		if err != nil {
			return err
		}
		opts.Delimiter = d
	}

	res, err := datascope.ConvertCSVToParquet(ctx, fs.Arg(0), fs.Arg(1), opts)
	if err != nil {
		return err
	}
	if res.NullifiedCells > 0 {
		a.logger.Warn().Int("cells", res.NullifiedCells).Msg("cells not matching the inferred column type were written as null")
	}
	a.logger.Info().Int("rows", res.Rows).Str("output", fs.Arg(1)).Msg("converted")
	return nil
}
