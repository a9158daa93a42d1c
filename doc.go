// Package datascope ingests large delimited text files and prepares them for
// charting.
//
// datascope parses RFC4180-style CSV without loading a grammar library,
// infers which columns are numeric or temporal, splits files with more rows
// than a page into fixed-size pages that can be parsed independently, and
// downsamples series with an evenly spaced sampler (category axes) or
// Largest-Triangle-Three-Buckets (value and time axes) so that multi-million
// row inputs stay responsive to draw.
//
// # Features
//
//   - Quote-aware tokenizer with blank row skipping and header deduplication
//   - Column type inference over a bounded sample
//   - Pagination with a row offset index, so each page costs O(page size)
//   - Polled progress and context cancellation for long parses
//   - Evenly spaced and LTTB downsampling, chart series assembly
//   - Per-page thumbnails generated by a bounded worker pool
//   - Compressed inputs (gzip, bzip2, xz, zstandard) and Excel (XLSX) sheets
//   - Parquet paging with column pruning and CSV to Parquet conversion
//   - SQL over a loaded page through an in-memory SQLite table
//
// # Basic Usage
//
// Pure functions cover the small file path:
//
//	page, err := datascope.Parse(text, datascope.DetectDelimiter(text))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	chart, err := datascope.BuildChartData(page.Rows, page.Headers, datascope.ChartRequest{
//	    XColumn:        "time",
//	    YColumns:       []string{"value"},
//	    AxisType:       model.AxisTypeTime,
//	    AutoDownsample: true,
//	    MaxPoints:      datascope.DefaultMaxPoints,
//	})
//
// # Sessions
//
// A Session owns one dataset together with its page and thumbnail caches:
//
//	s := datascope.NewSession(datascope.DefaultConfig(), datascope.WithLogger(logger))
//	res, err := s.LoadFile(ctx, "measurements.csv.zst")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if plan := s.Pagination(); plan != nil {
//	    progress := datascope.NewProgress()
//	    page, err := s.LoadPage(ctx, 0, progress)
//	    ...
//	}
//
// ParquetSession offers the same operations for Parquet files, with an
// optional column selection per page.
package datascope
