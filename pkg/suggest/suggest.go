// Package suggest produces best-effort column mapping suggestions from a CSV
// header line.
package suggest

import (
	"context"
	"slices"
	"strings"

	"github.com/go-faster/errors"

	"orgmap/pkg/schema"
)

// ErrUnusable is returned when a provider answered with nothing that can be
// read as a mapping.
var ErrUnusable = errors.New("suggestion response is unusable")

// Raw is a provider answer: target field name to suggested header. Values
// are unchecked and may name headers that do not exist.
type Raw map[string]string

// Suggester maps a comma-joined header line to a raw suggestion.
type Suggester interface {
	Name() string
	Suggest(ctx context.Context, headerLine string) (Raw, error)
}

// Result is a sanitized suggestion.
type Result struct {
	Mapping schema.ColumnMapping `json:"mapping"`
	Mapped  int                  `json:"mapped"`
}

// Run asks s for a mapping of headers and keeps only suggestions naming an
// existing header.
func Run(ctx context.Context, s Suggester, headers []string) (Result, error) {
	if len(headers) == 0 {
		return Result{}, errors.New("no headers to map")
	}
	raw, err := s.Suggest(ctx, strings.Join(headers, ","))
	if err != nil {
		return Result{}, errors.Wrapf(err, "%s suggestion", s.Name())
	}
	if raw == nil {
		return Result{}, ErrUnusable
	}
	m := Resolve(raw, headers)
	return Result{Mapping: m, Mapped: m.MappedCount()}, nil
}

// Resolve turns a raw answer into a mapping restricted to headers. Unknown
// field names and unknown headers are dropped. A header that matches only
// after trimming or case folding resolves to the real header.
func Resolve(raw Raw, headers []string) schema.ColumnMapping {
	m := schema.NewColumnMapping()
	for name, suggested := range raw {
		f, ok := schema.ParseField(name)
		if !ok {
			continue
		}
		if h, ok := matchHeader(suggested, headers); ok {
			m.Set(f, h)
		}
	}
	return m
}

func matchHeader(suggested string, headers []string) (string, bool) {
	if suggested == "" {
		return "", false
	}
	if slices.Contains(headers, suggested) {
		return suggested, true
	}
	trimmed := strings.TrimSpace(suggested)
	if trimmed == "" {
		return "", false
	}
	for _, h := range headers {
		if strings.EqualFold(h, trimmed) {
			return h, true
		}
	}
	return "", false
}
