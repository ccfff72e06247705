package engine

import "orgmap/pkg/schema"

// ManagerIndex resolves an employee's manager name to the roster row of the
// employee whose username column holds that name.
type ManagerIndex struct {
	ByUsername map[string]*schema.Employee `json:"-"`
	Stats      IndexStats                  `json:"stats"`
}

// IndexStats contains aggregate statistics about the index.
type IndexStats struct {
	TotalEmployees  int `json:"totalEmployees"`
	UniqueUsernames int `json:"uniqueUsernames"`
	WithManager     int `json:"withManager"`
	ManagersFound   int `json:"managersFound"`
}

// BuildManagerIndex indexes employees by the value of the mapped username
// column in their original row. The first occurrence wins for duplicates.
// Employees with an empty username are not indexed. The index holds
// pointers into employees, which must not be reallocated afterwards.
func BuildManagerIndex(employees []schema.Employee, mapping schema.ColumnMapping) *ManagerIndex {
	index := &ManagerIndex{
		ByUsername: make(map[string]*schema.Employee, len(employees)),
	}

	if mapping.IsMapped(schema.FieldUsername) {
		for i := range employees {
			username := employees[i].Column(mapping, schema.FieldUsername)
			if username == "" {
				continue
			}
			if _, exists := index.ByUsername[username]; !exists {
				index.ByUsername[username] = &employees[i]
			}
		}
	}

	withManager, found := 0, 0
	for i := range employees {
		if employees[i].Manager == "" {
			continue
		}
		withManager++
		if _, ok := index.ByUsername[employees[i].Manager]; ok {
			found++
		}
	}

	index.Stats = IndexStats{
		TotalEmployees:  len(employees),
		UniqueUsernames: len(index.ByUsername),
		WithManager:     withManager,
		ManagersFound:   found,
	}

	return index
}

// ManagerOf returns the roster row of e's manager, if present.
func (idx *ManagerIndex) ManagerOf(e *schema.Employee) (*schema.Employee, bool) {
	if idx == nil || e.Manager == "" {
		return nil, false
	}
	m, ok := idx.ByUsername[e.Manager]
	return m, ok
}
