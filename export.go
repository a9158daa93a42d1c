package datascope

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/datascope/domain/model"
)

// WritePage writes a page as delimited text with a header row. Cells are
// quoted only when needed.
func WritePage(w io.Writer, page *model.ParsedPage, delimiter byte) error {
	if !ValidDelimiter(delimiter) {
		return fmt.Errorf("%w: %q", ErrInvalidDelimiter, delimiter)
	}
	cw := csv.NewWriter(w)
	cw.Comma = rune(delimiter)

	if err := cw.Write(page.Headers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(page.Headers))
	for i, row := range page.Rows {
		for j := range record {
			record[j] = row.Get(j).ToText()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SavePage writes a page to path. The compression is chosen from the
// extension (.gz, .xz, .zst); bzip2 output is not supported.
func SavePage(path string, page *model.ParsedPage, delimiter byte) (err error) {
	ec := NewErrorContext("save page", path)
	if DetectFileType(path) != FileTypeDelimited {
		return ec.WithDetails("output must be .csv, .tsv, .psv or .txt").Error(ErrUnsupportedFormat)
	}
	if err := validateOutputPath(path); err != nil {
		return ec.Error(err)
	}

	w, closeFn, err := createCompressedFile(path)
	if err != nil {
		return ec.Error(err)
	}
	defer func() {
		if closeErr := closeFn(); closeErr != nil && err == nil {
			err = ec.Error(closeErr)
		}
	}()

	if err := WritePage(w, page, delimiter); err != nil {
		return ec.Error(err)
	}
	return nil
}

// FormatPage returns a page as delimited text.
func FormatPage(page *model.ParsedPage, delimiter byte) (string, error) {
	var sb strings.Builder
	if err := WritePage(&sb, page, delimiter); err != nil {
		return "", err
	}
	return sb.String(), nil
}
