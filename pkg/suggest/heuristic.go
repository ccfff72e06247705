package suggest

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"orgmap/pkg/schema"
)

// maxFuzzyDistance bounds how much longer than a known alias a header may be
// and still be picked by the fuzzy fallback.
const maxFuzzyDistance = 12

// Heuristic suggests mappings without a model: known header names first,
// then a fuzzy match of the remaining headers against the same aliases.
type Heuristic struct {
	aliases map[schema.Field][]string
}

// NewHeuristic builds the alias table from schema.HeaderMappings.
func NewHeuristic() *Heuristic {
	aliases := make(map[schema.Field][]string)
	for alias, f := range schema.HeaderMappings {
		aliases[f] = append(aliases[f], alias)
	}
	for f := range aliases {
		sort.Strings(aliases[f])
	}
	return &Heuristic{aliases: aliases}
}

func (h *Heuristic) Name() string { return "heuristic" }

// Suggest implements Suggester.
func (h *Heuristic) Suggest(_ context.Context, headerLine string) (Raw, error) {
	headers := strings.Split(headerLine, ",")
	m := schema.InferMappings(headers)

	claimed := make(map[string]bool)
	for _, f := range schema.Fields {
		if hdr, ok := m.Header(f); ok {
			claimed[hdr] = true
		}
	}

	for _, f := range schema.Fields {
		if m.IsMapped(f) {
			continue
		}
		if hdr, ok := h.fuzzyMatch(f, headers, claimed); ok {
			m.Set(f, hdr)
			claimed[hdr] = true
		}
	}

	raw := make(Raw, len(schema.Fields))
	for _, f := range schema.Fields {
		hdr, _ := m.Header(f)
		raw[string(f)] = hdr
	}
	return raw, nil
}

func (h *Heuristic) fuzzyMatch(f schema.Field, headers []string, claimed map[string]bool) (string, bool) {
	var (
		candidates []string
		original   []int
	)
	for i, hdr := range headers {
		if claimed[hdr] {
			continue
		}
		candidates = append(candidates, schema.NormalizeHeader(hdr))
		original = append(original, i)
	}
	if len(candidates) == 0 {
		return "", false
	}

	best, bestDist := -1, maxFuzzyDistance+1
	for _, alias := range h.aliases[f] {
		ranks := fuzzy.RankFindNormalizedFold(alias, candidates)
		sort.Sort(ranks)
		for _, rank := range ranks {
			idx := original[rank.OriginalIndex]
			if rank.Distance < bestDist || (rank.Distance == bestDist && idx < best) {
				best, bestDist = idx, rank.Distance
			}
		}
	}
	if best < 0 {
		return "", false
	}
	return headers[best], true
}
