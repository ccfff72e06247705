package engine

import (
	"sort"
	"strings"

	"orgmap/pkg/schema"
)

// FilterOptions holds the selectable values for each facet.
type FilterOptions struct {
	Levels        []string `json:"levels"`
	EmployeeTypes []string `json:"employeeTypes"`
	TeamProjects  []string `json:"teamProjects"`
}

// DeriveOptions scans the projected employees once per projection.
func DeriveOptions(employees []schema.Employee) FilterOptions {
	return FilterOptions{
		Levels:        DistinctValues(employees, schema.FieldLevel),
		EmployeeTypes: DistinctValues(employees, schema.FieldEmployeeType),
		TeamProjects:  DistinctValues(employees, schema.FieldTeamProject),
	}
}

// DistinctValues returns the sorted set of non-empty trimmed values of f.
func DistinctValues(employees []schema.Employee, f schema.Field) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for i := range employees {
		v := strings.TrimSpace(employees[i].Value(f))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// For returns the options of a facet field, or nil for non-facet fields.
func (o FilterOptions) For(f schema.Field) []string {
	switch f {
	case schema.FieldLevel:
		return o.Levels
	case schema.FieldEmployeeType:
		return o.EmployeeTypes
	case schema.FieldTeamProject:
		return o.TeamProjects
	}
	return nil
}
