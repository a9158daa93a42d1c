package datascope

import (
	"context"

	"github.com/nao1215/datascope/domain/model"
)

// DefaultThumbnailPoints is the target size of a page preview
const DefaultThumbnailPoints = 1000

// SampleThumbnail parses the page's row range and samples its first numeric
// column. See SampleRecordsThumbnail for the sampling rule.
func SampleThumbnail(ctx context.Context, content string, delimiter byte, page model.PageInfo, targetPoints int) ([]model.ThumbnailPoint, error) {
	parsed, err := ParsePage(ctx, content, delimiter, page.StartRow, page.EndRow, nil)
	if err != nil {
		return nil, err
	}
	return SampleRecordsThumbnail(parsed.Headers, parsed.Rows, page, targetPoints), nil
}

// SampleRecordsThumbnail emits one point every max(1, rowCount/targetPoints)
// rows of the first column that is at least 70% numeric over its first 100
// rows. X is page.StartRow plus the local row index; rows whose value is not
// numeric are skipped. The result is empty when there is no such column.
func SampleRecordsThumbnail(headers model.Header, rows []model.Record, page model.PageInfo, targetPoints int) []model.ThumbnailPoint {
	points := []model.ThumbnailPoint{}
	if len(rows) == 0 {
		return points
	}
	col := firstNumericColumn(headers, rows)
	if col < 0 {
		return points
	}

	if targetPoints <= 0 {
		targetPoints = DefaultThumbnailPoints
	}
	step := max(1, page.RowCount/targetPoints)

	for i := 0; i < len(rows); i += step {
		v, ok := rows[i].Get(col).ToNumber()
		if !ok {
			continue
		}
		points = append(points, model.ThumbnailPoint{X: float64(page.StartRow + i), Y: v})
	}
	return points
}
