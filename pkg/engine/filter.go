package engine

import (
	"slices"
	"sort"
	"strings"

	"orgmap/pkg/schema"
)

// DrillDown narrows the view to one manager and optionally one of its locations.
type DrillDown struct {
	Manager  string `json:"manager" yaml:"manager"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// FilterState is the set of active constraints. An empty facet set means no
// constraint on that dimension.
type FilterState struct {
	Levels          []string   `json:"levels" yaml:"levels,omitempty"`
	EmployeeTypes   []string   `json:"employeeTypes" yaml:"employeeTypes,omitempty"`
	TeamProjects    []string   `json:"teamProjects" yaml:"teamProjects,omitempty"`
	Drill           *DrillDown `json:"drill,omitempty" yaml:"drill,omitempty"`
	DifferentCampus bool       `json:"differentCampus" yaml:"differentCampus"`
}

// IsFacet reports whether f can be filtered with a multi-select.
func IsFacet(f schema.Field) bool {
	switch f {
	case schema.FieldLevel, schema.FieldEmployeeType, schema.FieldTeamProject:
		return true
	}
	return false
}

// Facet returns the selected values for a facet field.
func (s FilterState) Facet(f schema.Field) []string {
	switch f {
	case schema.FieldLevel:
		return s.Levels
	case schema.FieldEmployeeType:
		return s.EmployeeTypes
	case schema.FieldTeamProject:
		return s.TeamProjects
	}
	return nil
}

// WithFacet returns a copy with the facet set replaced. Changing a facet
// always returns the view to the top of the hierarchy, so the drill-down
// is cleared.
func (s FilterState) WithFacet(f schema.Field, values []string) FilterState {
	set := normalizeSet(values)
	out := s.clone()
	switch f {
	case schema.FieldLevel:
		out.Levels = set
	case schema.FieldEmployeeType:
		out.EmployeeTypes = set
	case schema.FieldTeamProject:
		out.TeamProjects = set
	default:
		return s
	}
	out.Drill = nil
	return out
}

// WithDrill returns a copy drilled into c. Facet sets are kept.
func (s FilterState) WithDrill(c Click) FilterState {
	out := s.clone()
	if c.Manager == "" {
		out.Drill = nil
		return out
	}
	out.Drill = &DrillDown{Manager: c.Manager, Location: c.Location}
	return out
}

// WithDifferentCampus returns a copy with the toggle set.
func (s FilterState) WithDifferentCampus(on bool) FilterState {
	out := s.clone()
	out.DifferentCampus = on
	return out
}

// IsZero reports whether no constraint is active.
func (s FilterState) IsZero() bool {
	return len(s.Levels) == 0 && len(s.EmployeeTypes) == 0 && len(s.TeamProjects) == 0 &&
		s.Drill == nil && !s.DifferentCampus
}

func (s FilterState) clone() FilterState {
	out := FilterState{
		Levels:          slices.Clone(s.Levels),
		EmployeeTypes:   slices.Clone(s.EmployeeTypes),
		TeamProjects:    slices.Clone(s.TeamProjects),
		DifferentCampus: s.DifferentCampus,
	}
	if s.Drill != nil {
		d := *s.Drill
		out.Drill = &d
	}
	return out
}

// normalizeSet dedupes and sorts values so equal selections compare equal.
// The empty string is a legitimate value and is kept.
func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	sort.Strings(out)
	return slices.Compact(out)
}

// Filter applies every active constraint to the full projected set. All
// constraints are AND-combined. idx may be nil, in which case it is built on
// demand when the different-campus predicate needs it.
func Filter(employees []schema.Employee, state FilterState, mapping schema.ColumnMapping, idx *ManagerIndex) []schema.Employee {
	levels := toSet(state.Levels)
	types := toSet(state.EmployeeTypes)
	var teams map[string]struct{}
	if mapping.IsMapped(schema.FieldTeamProject) {
		teams = toSet(state.TeamProjects)
	}

	campus := state.DifferentCampus &&
		mapping.IsMapped(schema.FieldUsername) &&
		mapping.IsMapped(schema.FieldLocation)
	if campus && idx == nil {
		idx = BuildManagerIndex(employees, mapping)
	}

	out := make([]schema.Employee, 0, len(employees))
	for i := range employees {
		e := &employees[i]
		if state.Drill != nil && !matchesDrill(e, state.Drill) {
			continue
		}
		if !inSet(levels, e.Level) || !inSet(types, e.EmployeeType) || !inSet(teams, e.TeamProject) {
			continue
		}
		if campus && !OnDifferentCampus(e, idx, mapping) {
			continue
		}
		out = append(out, *e)
	}
	return out
}

// matchesDrill compares against the trimmed values the aggregator groups by,
// so a node clicked in the hierarchy selects exactly the employees it counted.
func matchesDrill(e *schema.Employee, d *DrillDown) bool {
	if strings.TrimSpace(e.Manager) != d.Manager {
		return false
	}
	if d.Location == "" {
		return true
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return d.Location == UnknownLocation
	}
	return loc == d.Location
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// inSet treats a nil set as "no constraint".
func inSet(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}
