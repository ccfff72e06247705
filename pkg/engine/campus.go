package engine

import "orgmap/pkg/schema"

// CampusMismatch describes an employee sitting at a different location than
// their manager.
type CampusMismatch struct {
	EmployeeID       int    `json:"employeeId"`
	Manager          string `json:"manager"`
	EmployeeLocation string `json:"employeeLocation"`
	ManagerLocation  string `json:"managerLocation"`
}

// OnDifferentCampus reports whether e passes the different-campus predicate.
// An employee whose manager has no roster row passes: missing manager data
// must not hide the employee.
func OnDifferentCampus(e *schema.Employee, idx *ManagerIndex, mapping schema.ColumnMapping) bool {
	mgr, ok := idx.ManagerOf(e)
	if !ok {
		return true
	}
	return mgr.Column(mapping, schema.FieldLocation) != e.Location
}

// DetectCampusMismatches lists every employee whose manager row was found
// and whose location differs from the manager's.
func DetectCampusMismatches(employees []schema.Employee, idx *ManagerIndex, mapping schema.ColumnMapping) []CampusMismatch {
	var out []CampusMismatch
	if !mapping.IsMapped(schema.FieldLocation) {
		return out
	}
	for i := range employees {
		e := &employees[i]
		mgr, ok := idx.ManagerOf(e)
		if !ok {
			continue
		}
		mgrLoc := mgr.Column(mapping, schema.FieldLocation)
		if mgrLoc == e.Location {
			continue
		}
		out = append(out, CampusMismatch{
			EmployeeID:       e.ID,
			Manager:          e.Manager,
			EmployeeLocation: e.Location,
			ManagerLocation:  mgrLoc,
		})
	}
	return out
}
