package datascope

import (
	"path/filepath"
	"strings"
)

// FileType is the kind of dataset a path holds.
type FileType int

const (
	// FileTypeUnsupported is a file datascope cannot read
	FileTypeUnsupported FileType = iota
	// FileTypeDelimited is CSV, TSV or another delimited text file
	FileTypeDelimited
	// FileTypeParquet is an Apache Parquet file
	FileTypeParquet
	// FileTypeXLSX is an Excel workbook
	FileTypeXLSX
)

const (
	extCSV     = ".csv"
	extTSV     = ".tsv"
	extPSV     = ".psv"
	extTXT     = ".txt"
	extParquet = ".parquet"
	extXLSX    = ".xlsx"
)

// String returns the file type name
func (t FileType) String() string {
	switch t {
	case FileTypeDelimited:
		return "delimited"
	case FileTypeParquet:
		return "parquet"
	case FileTypeXLSX:
		return "xlsx"
	default:
		return "unsupported"
	}
}

// DetectFileType determines the file type from the extension that remains
// after removing a compression extension.
func DetectFileType(path string) FileType {
	ext := strings.ToLower(filepath.Ext(trimCompressionExt(path)))
	switch ext {
	case extCSV, extTSV, extPSV, extTXT:
		return FileTypeDelimited
	case extParquet:
		return FileTypeParquet
	case extXLSX:
		return FileTypeXLSX
	default:
		return FileTypeUnsupported
	}
}
