package datascope

import (
	"fmt"
	"strings"
)

// delimiterSampleSize is how much of the content delimiter detection looks at
const delimiterSampleSize = 2000

// Delimiters is the supported delimiter set, in tie-break order.
var Delimiters = []byte{',', '\t', ';', '|'}

// DefaultDelimiter is used when nothing else is known about the content
const DefaultDelimiter byte = ','

// DetectDelimiter counts each candidate delimiter on the first line of the
// first 2000 bytes and returns the most frequent one. Ties, including no
// candidate at all, resolve in the order of Delimiters, so ',' wins.
func DetectDelimiter(text string) byte {
	sample := text
	if len(sample) > delimiterSampleSize {
		sample = sample[:delimiterSampleSize]
	}
	if i := strings.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}

	best := DefaultDelimiter
	bestCount := -1
	for _, d := range Delimiters {
		if n := strings.Count(sample, string(d)); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best
}

// ValidDelimiter reports whether d is in the supported set.
func ValidDelimiter(d byte) bool {
	for _, c := range Delimiters {
		if c == d {
			return true
		}
	}
	return false
}

// ParseDelimiter converts a user supplied delimiter name to a byte. It
// accepts the delimiter itself as well as the escape "\t" and the words
// comma, tab, semicolon and pipe.
func ParseDelimiter(s string) (byte, error) {
	switch strings.ToLower(s) {
	case ",", "comma":
		return ',', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
}

// DelimiterName returns a printable name for d.
func DelimiterName(d byte) string {
	switch d {
	case '\t':
		return `\t`
	default:
		return string(d)
	}
}
