package schema

import (
	"encoding/json"
	"slices"
)

// ColumnMapping assigns each target field to a CSV header. A field that is
// absent or maps to the empty string is unmapped.
type ColumnMapping map[Field]string

// NewColumnMapping returns a mapping with every field unmapped.
func NewColumnMapping() ColumnMapping {
	return make(ColumnMapping, len(Fields))
}

// Header returns the header mapped to f and whether f is mapped at all.
func (m ColumnMapping) Header(f Field) (string, bool) {
	h, ok := m[f]
	return h, ok && h != ""
}

// IsMapped reports whether f has a header assigned.
func (m ColumnMapping) IsMapped(f Field) bool {
	_, ok := m.Header(f)
	return ok
}

// Set overwrites the header for f. An empty header unmaps the field.
// The header is not checked against the current CSV; an unknown header
// simply yields empty values at projection time.
func (m ColumnMapping) Set(f Field, header string) {
	if header == "" {
		delete(m, f)
		return
	}
	m[f] = header
}

// Reset returns every field to unmapped.
func (m ColumnMapping) Reset() {
	clear(m)
}

// Clone returns an independent copy.
func (m ColumnMapping) Clone() ColumnMapping {
	out := make(ColumnMapping, len(m))
	for f, h := range m {
		if h != "" {
			out[f] = h
		}
	}
	return out
}

// With returns a copy of m with f set to header.
func (m ColumnMapping) With(f Field, header string) ColumnMapping {
	out := m.Clone()
	out.Set(f, header)
	return out
}

// IsComplete reports whether every field in required is mapped.
func (m ColumnMapping) IsComplete(required []Field) bool {
	for _, f := range required {
		if !m.IsMapped(f) {
			return false
		}
	}
	return true
}

// Missing lists the required fields that are not mapped, in display order.
func (m ColumnMapping) Missing(required []Field) []Field {
	var out []Field
	for _, f := range Fields {
		if slices.Contains(required, f) && !m.IsMapped(f) {
			out = append(out, f)
		}
	}
	return out
}

// MappedCount returns the number of mapped fields.
func (m ColumnMapping) MappedCount() int {
	n := 0
	for _, f := range Fields {
		if m.IsMapped(f) {
			n++
		}
	}
	return n
}

// Reconcile returns a copy of m with every header that is not part of
// headers reset to unmapped.
func (m ColumnMapping) Reconcile(headers []string) ColumnMapping {
	out := NewColumnMapping()
	for _, f := range Fields {
		if h, ok := m.Header(f); ok && slices.Contains(headers, h) {
			out[f] = h
		}
	}
	return out
}

// MarshalJSON renders every target field, using null for unmapped ones.
func (m ColumnMapping) MarshalJSON() ([]byte, error) {
	out := make(map[string]*string, len(Fields))
	for _, f := range Fields {
		if h, ok := m.Header(f); ok {
			out[string(f)] = &h
		} else {
			out[string(f)] = nil
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts an object of field name to header (or null).
// Unknown field names are ignored.
func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := NewColumnMapping()
	for name, h := range raw {
		f, ok := ParseField(name)
		if !ok || h == nil {
			continue
		}
		out.Set(f, *h)
	}
	*m = out
	return nil
}

// ParseColumnMapping parses the column mapping JSON. If the JSON is empty or
// invalid, it falls back to an entirely unmapped mapping.
func ParseColumnMapping(columnMapJSON string) ColumnMapping {
	if columnMapJSON == "" {
		return NewColumnMapping()
	}

	var mapping ColumnMapping
	if err := json.Unmarshal([]byte(columnMapJSON), &mapping); err != nil {
		return NewColumnMapping()
	}
	return mapping
}
