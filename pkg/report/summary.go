package report

import (
	"strings"

	"orgmap/pkg/app"
	"orgmap/pkg/engine"
	"orgmap/pkg/schema"
)

// LocationEntry is one manager/location cell of the report.
type LocationEntry struct {
	Manager  string  `json:"manager"`
	Location string  `json:"location"`
	Path     string  `json:"path"`
	Count    int     `json:"count"`
	Share    float64 `json:"share"`
}

// ManagerSummary groups the location entries of one manager.
type ManagerSummary struct {
	Manager   string          `json:"manager"`
	Count     int             `json:"count"`
	Share     float64         `json:"share"`
	Locations []LocationEntry `json:"locations"`
	// Found is true when the manager has a roster row of their own.
	Found bool `json:"found"`
}

// Totals are the headline numbers of a report.
type Totals struct {
	Employees         int `json:"employees"`
	Filtered          int `json:"filtered"`
	Placed            int `json:"placed"`
	ExcludedNoManager int `json:"excludedNoManager"`
	UnknownLocation   int `json:"unknownLocation"`
	Managers          int `json:"managers"`
	CampusMismatches  int `json:"campusMismatches"`
}

// Report is the compiled view of one applied roster.
type Report struct {
	FileName   string                  `json:"fileName"`
	Caption    string                  `json:"caption"`
	Totals     Totals                  `json:"totals"`
	Managers   []ManagerSummary        `json:"managers"`
	Mismatches []engine.CampusMismatch `json:"campusMismatches"`
	Index      engine.IndexStats       `json:"index"`
	Filtered   []schema.Employee       `json:"-"`
	Mapping    schema.ColumnMapping    `json:"mapping"`
}

// Input is everything Build needs from an applied session.
type Input struct {
	FileName  string
	Caption   string
	Mapping   schema.ColumnMapping
	Employees []schema.Employee
	Filtered  []schema.Employee
	Hierarchy engine.Hierarchy
	Index     *engine.ManagerIndex
}

// FromState collects the report input of an applied session state. The
// mapping is the one the employees were projected with.
func FromState(s app.State) Input {
	return Input{
		FileName:  s.FileName,
		Caption:   app.Caption(s),
		Mapping:   s.AppliedMapping,
		Employees: s.Employees,
		Filtered:  s.Filtered,
		Hierarchy: s.Hierarchy,
		Index:     s.Index,
	}
}

// Build compiles the report for the filtered employees. Campus mismatches
// are computed over the filtered set only.
func Build(in Input) *Report {
	r := &Report{
		FileName:   in.FileName,
		Caption:    in.Caption,
		Managers:   make([]ManagerSummary, 0, len(in.Hierarchy.Nodes)),
		Mismatches: make([]engine.CampusMismatch, 0),
		Filtered:   in.Filtered,
		Mapping:    in.Mapping,
	}

	idx := in.Index
	if idx == nil {
		idx = engine.BuildManagerIndex(in.Employees, in.Mapping)
	}
	r.Index = idx.Stats

	r.Totals.Employees = len(in.Employees)
	r.Totals.Filtered = len(in.Filtered)
	r.Totals.Placed = in.Hierarchy.Total
	for i := range in.Filtered {
		e := &in.Filtered[i]
		if strings.TrimSpace(e.Manager) == "" {
			r.Totals.ExcludedNoManager++
			continue
		}
		if strings.TrimSpace(e.Location) == "" {
			r.Totals.UnknownLocation++
		}
	}

	for _, node := range in.Hierarchy.Nodes {
		_, found := idx.ByUsername[node.Name]
		ms := ManagerSummary{
			Manager:   node.Name,
			Count:     node.Count,
			Share:     share(node.Count, in.Hierarchy.Total),
			Locations: make([]LocationEntry, 0, len(node.Children)),
			Found:     found,
		}
		for _, child := range node.Children {
			ms.Locations = append(ms.Locations, LocationEntry{
				Manager:  node.Name,
				Location: child.Name,
				Path:     child.Path,
				Count:    child.Count,
				Share:    share(child.Count, node.Count),
			})
		}
		r.Managers = append(r.Managers, ms)
	}
	r.Totals.Managers = len(r.Managers)

	if in.Mapping.IsMapped(schema.FieldUsername) {
		r.Mismatches = append(r.Mismatches, engine.DetectCampusMismatches(in.Filtered, idx, in.Mapping)...)
	}
	r.Totals.CampusMismatches = len(r.Mismatches)

	return r
}

func share(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
