package schema

import (
	"strings"
	"unicode"
)

// Field is one of the fixed semantic roles CSV columns are mapped onto.
type Field string

const (
	FieldManager      Field = "manager"
	FieldLocation     Field = "location"
	FieldTeamProject  Field = "teamProject"
	FieldEmployeeType Field = "employeeType"
	FieldLevel        Field = "level"
	FieldUsername     Field = "username"
)

// Fields lists every target field in display order.
var Fields = []Field{
	FieldManager,
	FieldLocation,
	FieldTeamProject,
	FieldEmployeeType,
	FieldLevel,
	FieldUsername,
}

// DefaultRequired is the mapping completeness policy used when the caller
// does not supply one. Team/project is always optional.
var DefaultRequired = []Field{
	FieldManager,
	FieldLocation,
	FieldEmployeeType,
	FieldLevel,
	FieldUsername,
}

// ParseField resolves a field name, ignoring case.
func ParseField(name string) (Field, bool) {
	for _, f := range Fields {
		if strings.EqualFold(string(f), strings.TrimSpace(name)) {
			return f, true
		}
	}
	return "", false
}

// ParseFields resolves a list of field names, skipping unknown ones.
func ParseFields(names []string) []Field {
	out := make([]Field, 0, len(names))
	for _, n := range names {
		if f, ok := ParseField(n); ok {
			out = append(out, f)
		}
	}
	return out
}

// Label turns the camel-case field name into a title ("teamProject" -> "Team Project").
func (f Field) Label() string {
	var b strings.Builder
	for i, r := range string(f) {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
