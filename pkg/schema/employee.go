package schema

import "orgmap/pkg/parser"

// Employee is one projected roster row.
type Employee struct {
	ID           int           `json:"id"`
	Manager      string        `json:"manager"`
	Location     string        `json:"location"`
	TeamProject  string        `json:"teamProject"`
	EmployeeType string        `json:"employeeType"`
	Level        string        `json:"level"`
	Username     string        `json:"username"`
	OriginalRow  parser.RawRow `json:"originalRow"`
}

// Value returns the projected value for f.
func (e *Employee) Value(f Field) string {
	switch f {
	case FieldManager:
		return e.Manager
	case FieldLocation:
		return e.Location
	case FieldTeamProject:
		return e.TeamProject
	case FieldEmployeeType:
		return e.EmployeeType
	case FieldLevel:
		return e.Level
	case FieldUsername:
		return e.Username
	}
	return ""
}

func (e *Employee) set(f Field, v string) {
	switch f {
	case FieldManager:
		e.Manager = v
	case FieldLocation:
		e.Location = v
	case FieldTeamProject:
		e.TeamProject = v
	case FieldEmployeeType:
		e.EmployeeType = v
	case FieldLevel:
		e.Level = v
	case FieldUsername:
		e.Username = v
	}
}

// Column reads the cell at the header mapped to f from the employee's
// original row. It returns "" when f is unmapped or the cell is absent.
func (e *Employee) Column(m ColumnMapping, f Field) string {
	h, ok := m.Header(f)
	if !ok {
		return ""
	}
	return e.OriginalRow[h]
}

// Project applies the column mapping to every row. The employee ID is the
// row's position; the original row is kept by reference. Missing headers
// degrade to empty strings.
func Project(rows []parser.RawRow, mapping ColumnMapping) []Employee {
	employees := make([]Employee, len(rows))
	for i, row := range rows {
		emp := Employee{ID: i, OriginalRow: row}
		for _, f := range Fields {
			if h, ok := mapping.Header(f); ok {
				emp.set(f, row[h])
			}
		}
		employees[i] = emp
	}
	return employees
}
