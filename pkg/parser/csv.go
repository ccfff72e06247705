package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmpty is returned when the input has no header line to work with.
var ErrEmpty = errors.New("empty file: no header row found")

// lineBreakRe matches both CRLF and LF line endings.
var lineBreakRe = regexp.MustCompile(`\r\n|\n`)

// ParseWarning represents a non-fatal issue encountered during CSV parsing.
type ParseWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// RawRow maps an original CSV header to the cell value of one data line.
type RawRow map[string]string

// ParseResult contains the parsed headers and rows alongside any warnings.
type ParseResult struct {
	Headers  []string       `json:"headers"`
	Rows     []RawRow       `json:"-"`
	Warnings []ParseWarning `json:"warnings"`
	Encoding string         `json:"encoding"`
}

// Parse decodes raw bytes to UTF-8 and parses them with ParseText.
func Parse(data []byte) (*ParseResult, error) {
	decoded, enc, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	result, err := ParseText(string(decoded))
	if err != nil {
		return nil, err
	}
	result.Encoding = enc
	return result, nil
}

// ParseText parses roster CSV text into headers and rows.
//
// The first line is the header line. Data lines are split on commas that are
// not inside a double-quoted span. A data line whose field count differs from
// the header count is skipped with a warning instead of failing the upload.
// Escaped quotes ("") and multi-line quoted fields are not supported.
func ParseText(text string) (*ParseResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmpty
	}

	lines := lineBreakRe.Split(text, -1)
	headers := parseHeader(lines[0])
	if len(headers) == 0 {
		return nil, ErrEmpty
	}

	result := &ParseResult{
		Headers:  headers,
		Rows:     make([]RawRow, 0, len(lines)-1),
		Warnings: make([]ParseWarning, 0),
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}

		values := splitQuoted(lines[i])
		if len(values) != len(headers) {
			result.Warnings = append(result.Warnings, ParseWarning{
				Row: i + 1,
				Message: fmt.Sprintf("skipping row due to mismatched column count: expected %d, got %d",
					len(headers), len(values)),
			})
			continue
		}

		row := make(RawRow, len(headers))
		for j, h := range headers {
			row[h] = values[j]
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// parseHeader splits the header line on every comma. Headers that are empty
// after cleaning get a positional placeholder so every column stays selectable.
func parseHeader(line string) []string {
	parts := strings.Split(line, ",")
	headers := make([]string, len(parts))
	for i, p := range parts {
		h := cleanField(p)
		if h == "" {
			h = UnnamedColumn(i + 1)
		}
		headers[i] = h
	}
	return headers
}

// UnnamedColumn returns the placeholder used for the 1-indexed column n.
func UnnamedColumn(n int) string {
	return fmt.Sprintf("(Unnamed Column %d)", n)
}

// splitQuoted splits a data line on commas that are followed by an even
// number of double quotes up to the end of the line.
func splitQuoted(line string) []string {
	remaining := strings.Count(line, `"`)
	var fields []string
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			remaining--
		case ',':
			if remaining%2 == 0 {
				fields = append(fields, cleanField(line[start:i]))
				start = i + 1
			}
		}
	}
	return append(fields, cleanField(line[start:]))
}

// cleanField trims whitespace and strips one leading and one trailing quote.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
