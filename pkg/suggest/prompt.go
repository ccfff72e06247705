package suggest

import (
	"strings"

	"orgmap/pkg/schema"
)

// fieldHints describes each target field with typical header names.
var fieldHints = map[schema.Field]string{
	schema.FieldManager:      "Identifies the direct manager of the employee (e.g., 'Manager', 'Manager User Name', 'Reports To', 'Direct Supervisor', 'Manager ID').",
	schema.FieldLocation:     "Specifies the work location of the employee (e.g., 'Location', 'Site', 'Office Location', 'Work Site', 'Location Unified').",
	schema.FieldTeamProject:  "The team, project, or department the employee is part of (e.g., 'Team', 'Project', 'Department', 'Cost Center', 'Org Unit').",
	schema.FieldEmployeeType: "The type of employment (e.g., 'Employee Type', 'Person Type', 'Worker Type', 'Employment Status', 'FTE/Contractor').",
	schema.FieldLevel:        "The job level, grade, or seniority of the employee (e.g., 'Level', 'Job Level', 'Grade', 'Rank').",
	schema.FieldUsername:     "The employee's own login or user name, the value other rows use to name them as manager (e.g., 'User Name', 'Username', 'Login', 'Alias').",
}

const promptHeader = `You are an expert in data mapping. Your task is to map CSV column headers to a predefined set of target fields.
Predefined Target Fields and common examples of CSV column names they might correspond to:
`

const promptRules = `
Instructions:
Carefully examine the provided CSV Header. For each of the predefined target fields listed above, identify the single best matching column header from the CSV.
- The value for each key must be the exact CSV column header name you've chosen as the best match.
- If you cannot find a reasonably confident match for a target field, use an empty string "" as the value.
- For 'manager', prefer 'Manager User Name' over 'Manager ID' if both are present.

Respond with only a JSON object of the form:
{"columnMapping": {"manager": "...", "location": "...", "teamProject": "...", "employeeType": "...", "level": "...", "username": "..."}}
`

// BuildPrompt renders the mapping instruction for a comma-joined header line.
func BuildPrompt(headerLine string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	for _, f := range schema.Fields {
		b.WriteString("- ")
		b.WriteString(string(f))
		b.WriteString(": ")
		b.WriteString(fieldHints[f])
		b.WriteString("\n")
	}
	b.WriteString("\nCSV Header Provided:\n")
	b.WriteString(headerLine)
	b.WriteString("\n")
	b.WriteString(promptRules)
	return b.String()
}
