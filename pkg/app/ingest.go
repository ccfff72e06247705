package app

import (
	"path"
	"strings"

	"github.com/go-faster/errors"

	"orgmap/pkg/parser"
)

// MappedSuffix marks files that were already exported with a mapping; no
// suggestion is requested for them.
const MappedSuffix = "_mapped.csv"

// IsCSVName reports whether fileName carries the accepted suffix.
func IsCSVName(fileName string) bool {
	return strings.EqualFold(path.Ext(fileName), ".csv")
}

// ShouldSuggest reports whether an upload should trigger an automatic
// mapping suggestion.
func ShouldSuggest(fileName string) bool {
	return !strings.HasSuffix(strings.ToLower(fileName), MappedSuffix)
}

// Ingest validates and parses an uploaded file. Every failure is a
// *ParseError.
func Ingest(fileName string, data []byte) (*parser.ParseResult, error) {
	if !IsCSVName(fileName) {
		return nil, &ParseError{FileName: fileName, Err: ErrNotCSV}
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, &ParseError{FileName: fileName, Err: errors.Wrap(err, "read CSV")}
	}
	if len(res.Rows) == 0 {
		return nil, &ParseError{FileName: fileName, Err: ErrNoRows}
	}
	return res, nil
}
