package app

import (
	"github.com/go-faster/errors"
)

var (
	// ErrNotCSV is returned for uploads without a .csv suffix.
	ErrNotCSV = errors.New("only .csv files are accepted")
	// ErrNoRows is returned when a file has a header line but no data rows.
	ErrNoRows = errors.New("CSV has no data rows")
	// ErrIncompleteMapping is returned when applying a mapping that misses
	// required fields.
	ErrIncompleteMapping = errors.New("column mapping is incomplete")
	// ErrNoData is returned by operations that need an uploaded file.
	ErrNoData = errors.New("no file uploaded")
)

// ParseError is fatal to a single upload. It clears all downstream state.
type ParseError struct {
	FileName string
	Err      error
}

func (e *ParseError) Error() string {
	if e.FileName == "" {
		return "parse: " + e.Err.Error()
	}
	return "parse " + e.FileName + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// MappingSuggestionError is a non-fatal warning: the mapping is reset so the
// user can map columns by hand.
type MappingSuggestionError struct {
	Err error
}

func (e *MappingSuggestionError) Error() string {
	return "mapping suggestion: " + e.Err.Error()
}

func (e *MappingSuggestionError) Unwrap() error { return e.Err }

// ProcessingError is an unexpected failure while projecting or aggregating.
// The previously displayed hierarchy is kept.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return "processing: " + e.Err.Error()
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Kind names the error class of err for API responses.
func Kind(err error) string {
	var (
		pe *ParseError
		me *MappingSuggestionError
		xe *ProcessingError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &pe):
		return "parse_error"
	case errors.As(err, &me):
		return "mapping_suggestion_error"
	case errors.As(err, &xe):
		return "processing_error"
	case errors.Is(err, ErrIncompleteMapping):
		return "incomplete_mapping"
	case errors.Is(err, ErrNoData):
		return "no_data"
	default:
		return "error"
	}
}
