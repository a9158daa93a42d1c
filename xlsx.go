package datascope

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX converts one sheet of a workbook to comma-delimited text so it
// can go through the same pipeline as a CSV file. An empty sheet name
// selects the first sheet.
func ReadXLSX(ctx context.Context, path, sheet string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	r, cleanup, err := newDecompressor(f, DetectCompression(path))
	if err != nil {
		return "", err
	}
	defer func() { _ = cleanup() }()

	xlsxFile, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	sheetNames := xlsxFile.GetSheetList()
	if len(sheetNames) == 0 {
		return "", errors.New("no sheets found in XLSX file")
	}
	if sheet == "" {
		sheet = sheetNames[0]
	} else if !slices.Contains(sheetNames, sheet) {
		return "", fmt.Errorf("sheet %q not found in XLSX file", sheet)
	}

	iter, err := xlsxFile.Rows(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to open rows iterator for sheet %s: %w", sheet, err)
	}
	defer iter.Close()

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	n := 0
	for iter.Next() {
		n++
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return "", fmt.Errorf("%w: %w", ErrCanceled, err)
			}
		}
		cols, err := iter.Columns()
		if err != nil {
			return "", fmt.Errorf("failed to read row %d of sheet %s: %w", n, sheet, err)
		}
		if err := w.Write(cols); err != nil {
			return "", fmt.Errorf("failed to convert row %d: %w", n, err)
		}
	}
	if err := iter.Error(); err != nil {
		return "", fmt.Errorf("failed to iterate sheet %s: %w", sheet, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
