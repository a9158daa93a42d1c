package datascope

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression is the compression applied to an input or output file.
type Compression int

const (
	// CompressionNone is an uncompressed file
	CompressionNone Compression = iota
	// CompressionGZ is gzip
	CompressionGZ
	// CompressionBZ2 is bzip2 (read only)
	CompressionBZ2
	// CompressionXZ is xz
	CompressionXZ
	// CompressionZSTD is zstandard
	CompressionZSTD
)

const (
	extGZ   = ".gz"
	extBZ2  = ".bz2"
	extXZ   = ".xz"
	extZSTD = ".zst"
)

// String returns the compression name
func (c Compression) String() string {
	switch c {
	case CompressionGZ:
		return "gzip"
	case CompressionBZ2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Extension returns the file extension of the compression, "" for none.
func (c Compression) Extension() string {
	switch c {
	case CompressionGZ:
		return extGZ
	case CompressionBZ2:
		return extBZ2
	case CompressionXZ:
		return extXZ
	case CompressionZSTD:
		return extZSTD
	default:
		return ""
	}
}

// DetectCompression detects the compression from a file path.
func DetectCompression(path string) Compression {
	path = strings.ToLower(path)

	switch {
	case strings.HasSuffix(path, extGZ):
		return CompressionGZ
	case strings.HasSuffix(path, extBZ2):
		return CompressionBZ2
	case strings.HasSuffix(path, extXZ):
		return CompressionXZ
	case strings.HasSuffix(path, extZSTD):
		return CompressionZSTD
	default:
		return CompressionNone
	}
}

// trimCompressionExt removes the compression extension from a file path if present
func trimCompressionExt(path string) string {
	if ext := DetectCompression(path).Extension(); ext != "" {
		return path[:len(path)-len(ext)]
	}
	return path
}

// newDecompressor wraps r with a decompression reader for c. The returned
// function releases the decoder.
func newDecompressor(r io.Reader, c Compression) (io.Reader, func() error, error) {
	switch c {
	case CompressionNone:
		return r, func() error { return nil }, nil

	case CompressionGZ:
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil

	case CompressionBZ2:
		// bzip2.NewReader doesn't need closing
		return bzip2.NewReader(r), func() error { return nil }, nil

	case CompressionXZ:
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, func() error { return nil }, nil

	case CompressionZSTD:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error {
			decoder.Close()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression type for reading: %v", c)
	}
}

// newCompressor wraps w with a compression writer for c. The returned
// function flushes and closes the encoder, not w.
func newCompressor(w io.Writer, c Compression) (io.Writer, func() error, error) {
	switch c {
	case CompressionNone:
		return w, func() error { return nil }, nil

	case CompressionGZ:
		gzWriter := gzip.NewWriter(w)
		return gzWriter, gzWriter.Close, nil

	case CompressionBZ2:
		// bzip2 doesn't have a writer in the standard library
		return nil, nil, errors.New("bzip2 compression is not supported for writing")

	case CompressionXZ:
		xzWriter, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xzWriter, xzWriter.Close, nil

	case CompressionZSTD:
		zstdWriter, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zstdWriter, zstdWriter.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression type for writing: %v", c)
	}
}

// readFileText reads a whole file, decompressing it according to its
// extension.
func readFileText(path string) (string, error) {
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

	var sb strings.Builder
	if info, statErr := f.Stat(); statErr == nil && DetectCompression(path) == CompressionNone {
		sb.Grow(int(info.Size()))
	}
	if _, err := io.Copy(&sb, r); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return sb.String(), nil
}

// createCompressedFile creates path and returns a writer compressing
// according to the path's extension. The close function flushes the
// encoder, syncs and closes the file.
func createCompressedFile(path string) (io.Writer, func() error, error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file: %w", err)
	}

	w, cleanup, err := newCompressor(f, DetectCompression(path))
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	return w, func() error {
		cleanupErr := cleanup()
		if syncErr := f.Sync(); syncErr != nil && cleanupErr == nil {
			cleanupErr = syncErr
		}
		if closeErr := f.Close(); closeErr != nil && cleanupErr == nil {
			cleanupErr = closeErr
		}
		return cleanupErr
	}, nil
}
