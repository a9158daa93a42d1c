package datascope

import (
	"regexp"
	"strings"
	"time"

	"github.com/nao1215/datascope/domain/model"
)

const (
	// DefaultInferSampleSize is the number of rows inspected per column
	DefaultInferSampleSize = 500
	// numericRatioThreshold is the share of numeric cells that makes a column numeric
	numericRatioThreshold = 0.7
	// temporalRatioThreshold is the share of date cells that makes a column temporal
	temporalRatioThreshold = 0.6
	// thumbnailProbeRows is the number of rows inspected to pick a thumbnail column
	thumbnailProbeRows = 100
)

// Common datetime patterns to detect. Values without a zone are read as UTC.
var datetimePatterns = []struct {
	pattern *regexp.Regexp
	formats []string // Multiple formats for the same pattern
}{
	// ISO8601 formats with timezone, the offset with or without a colon
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05Z0700"},
	},
	// ISO8601 formats without timezone
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04"},
	},
	// ISO8601 date and time with space
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}(:\d{2}(\.\d+)?)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04"},
	},
	// ISO8601 date only, single digit month and day allowed
	{
		regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`),
		[]string{"2006-01-02", "2006-1-2"},
	},
	// Year and month, or year alone
	{
		regexp.MustCompile(`^\d{4}-\d{1,2}$`),
		[]string{"2006-01", "2006-1"},
	},
	{
		regexp.MustCompile(`^\d{4}$`),
		[]string{"2006"},
	},
	// Slash separated year first
	{
		regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}( \d{1,2}:\d{2}(:\d{2})?)?$`),
		[]string{"2006/1/2", "2006/1/2 15:04:05", "2006/1/2 15:04"},
	},
	// US formats
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4} \d{1,2}:\d{2}:\d{2}( (AM|PM))?$`),
		[]string{"1/2/2006 15:04:05", "1/2/2006 3:04:05 PM", "01/02/2006 15:04:05"},
	},
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		[]string{"1/2/2006", "01/02/2006"},
	},
	// European formats
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4} \d{1,2}:\d{2}:\d{2}$`),
		[]string{"2.1.2006 15:04:05", "02.01.2006 15:04:05"},
	},
	{
		regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`),
		[]string{"2.1.2006", "02.01.2006"},
	},
	// Month names
	{
		regexp.MustCompile(`^[A-Za-z]{3,9} \d{1,2}, \d{4}$`),
		[]string{"Jan 2, 2006", "January 2, 2006"},
	},
	{
		regexp.MustCompile(`^\d{1,2} [A-Za-z]{3,9} \d{4}$`),
		[]string{"2 Jan 2006", "2 January 2006"},
	},
	{
		regexp.MustCompile(`^[A-Za-z]{3,9} \d{1,2} \d{4}$`),
		[]string{"Jan 2 2006", "January 2 2006"},
	},
	// Date.prototype.toDateString and toString, zone comment removed
	{
		regexp.MustCompile(`^[A-Za-z]{3} [A-Za-z]{3} \d{1,2} \d{4}( \d{2}:\d{2}:\d{2}( GMT[+-]\d{4})?)?$`),
		[]string{"Mon Jan 2 2006", "Mon Jan 2 2006 15:04:05", "Mon Jan 2 2006 15:04:05 GMT-0700"},
	},
	// RFC1123
	{
		regexp.MustCompile(`^[A-Za-z]{3}, \d{2} [A-Za-z]{3} \d{4} \d{2}:\d{2}:\d{2} \S+$`),
		[]string{time.RFC1123Z, time.RFC1123},
	},
}

// ParseTime parses a date or date-time value. A bare year or year-month is
// the first instant of that period. Time-of-day values without a date are
// not accepted.
func ParseTime(value string) (time.Time, bool) {
	value = model.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	// "... GMT+0800 (China Standard Time)"
	if i := strings.Index(value, " ("); i > 0 && strings.HasSuffix(value, ")") {
		value = value[:i]
	}

	for _, dp := range datetimePatterns {
		if dp.pattern.MatchString(value) {
			// Try each format for this pattern
			for _, format := range dp.formats {
				if t, err := time.ParseInLocation(format, value, time.UTC); err == nil {
					return t, true
				}
			}
		}
	}

	return time.Time{}, false
}

// ParseEpochMillis parses a date or date-time value into Unix milliseconds.
func ParseEpochMillis(value string) (int64, bool) {
	t, ok := ParseTime(value)
	if !ok {
		return 0, false
	}
	return t.UnixMilli(), true
}

// InferColumns infers numeric and temporal columns from up to
// DefaultInferSampleSize rows.
func InferColumns(rows []model.Record, headers model.Header) []model.ColumnMeta {
	return InferColumnsWithSample(rows, headers, DefaultInferSampleSize)
}

// InferColumnsWithSample is InferColumns with an explicit sample size.
func InferColumnsWithSample(rows []model.Record, headers model.Header, sampleSize int) []model.ColumnMeta {
	if sampleSize <= 0 {
		sampleSize = DefaultInferSampleSize
	}
	sampleSize = min(sampleSize, len(rows))

	metas := make([]model.ColumnMeta, len(headers))
	for col, name := range headers {
		numericCount := 0
		temporalCount := 0
		nonEmpty := 0

		for i := range sampleSize {
			cell := rows[i].Get(col)
			if cell.IsNull() {
				continue
			}
			trimmed := model.TrimSpace(cell.ToText())
			if trimmed == "" {
				continue
			}
			nonEmpty++

			if _, ok := model.ParseNumber(trimmed); ok {
				numericCount++
				continue
			}
			if _, ok := ParseTime(trimmed); ok {
				temporalCount++
			}
		}

		numericRatio := 0.0
		temporalRatio := 0.0
		if nonEmpty > 0 {
			numericRatio = float64(numericCount) / float64(nonEmpty)
			temporalRatio = float64(temporalCount) / float64(nonEmpty)
		}

		metas[col] = model.ColumnMeta{
			Name:        name,
			IsNumeric:   numericRatio >= numericRatioThreshold,
			IsTemporal:  numericRatio < numericRatioThreshold && temporalRatio >= temporalRatioThreshold,
			SampleCount: nonEmpty,
		}
	}
	return metas
}

// DetermineAxisType picks the default axis for a column: numeric columns
// get a value axis, temporal ones a time axis, everything else a category
// axis.
func DetermineAxisType(metas []model.ColumnMeta, column string) model.AxisType {
	if column == "" {
		return model.AxisTypeCategory
	}
	if column == RowIndexKey {
		return model.AxisTypeValue
	}
	for _, m := range metas {
		if m.Name != column {
			continue
		}
		switch {
		case m.IsNumeric:
			return model.AxisTypeValue
		case m.IsTemporal:
			return model.AxisTypeTime
		default:
			return model.AxisTypeCategory
		}
	}
	return model.AxisTypeCategory
}

// NumericColumns returns the names of the columns inferred as numeric, in
// header order. These are the value column candidates of a chart.
func NumericColumns(metas []model.ColumnMeta) []string {
	var names []string
	for _, m := range metas {
		if m.IsNumeric {
			names = append(names, m.Name)
		}
	}
	return names
}

// firstNumericColumn returns the index of the first column whose first
// thumbnailProbeRows non-empty cells are at least 70% numeric.
func firstNumericColumn(headers model.Header, rows []model.Record) int {
	sampleSize := min(thumbnailProbeRows, len(rows))
	for col := range headers {
		numericCount := 0
		nonEmpty := 0
		for i := range sampleSize {
			trimmed := model.TrimSpace(rows[i].Get(col).ToText())
			if trimmed == "" {
				continue
			}
			nonEmpty++
			if _, ok := model.ParseNumber(trimmed); ok {
				numericCount++
			}
		}
		if nonEmpty > 0 && float64(numericCount)/float64(nonEmpty) >= numericRatioThreshold {
			return col
		}
	}
	return -1
}
