package schema

import "strings"

// HeaderMappings maps normalized header names to target fields.
var HeaderMappings = map[string]Field{
	// Manager
	"manager":          FieldManager,
	"managername":      FieldManager,
	"managerusername":  FieldManager,
	"manageruser":      FieldManager,
	"supervisor":       FieldManager,
	"directsupervisor": FieldManager,
	"reportsto":        FieldManager,
	"linemanager":      FieldManager,

	// Location
	"location":        FieldLocation,
	"locationsite":    FieldLocation,
	"locationunified": FieldLocation,
	"site":            FieldLocation,
	"office":          FieldLocation,
	"officelocation":  FieldLocation,
	"worksite":        FieldLocation,
	"worklocation":    FieldLocation,
	"campus":          FieldLocation,

	// Team / project
	"team":        FieldTeamProject,
	"project":     FieldTeamProject,
	"teamproject": FieldTeamProject,
	"department":  FieldTeamProject,
	"dept":        FieldTeamProject,
	"costcenter":  FieldTeamProject,
	"orgunit":     FieldTeamProject,

	// Employee type
	"employeetype":     FieldEmployeeType,
	"persontype":       FieldEmployeeType,
	"workertype":       FieldEmployeeType,
	"employmentstatus": FieldEmployeeType,
	"employmenttype":   FieldEmployeeType,
	"ftecontractor":    FieldEmployeeType,

	// Level
	"level":    FieldLevel,
	"joblevel": FieldLevel,
	"grade":    FieldLevel,
	"paylevel": FieldLevel,
	"rank":     FieldLevel,

	// Username
	"username":       FieldUsername,
	"user":           FieldUsername,
	"userid":         FieldUsername,
	"login":          FieldUsername,
	"alias":          FieldUsername,
	"samaccountname": FieldUsername,
}

// substringMappings maps substrings to target fields for fuzzy inference.
// More specific substrings come first: "manager user name" must resolve to
// the manager field before "username" can claim it.
var substringMappings = []struct {
	Substring string
	Target    Field
}{
	{"manager", FieldManager},
	{"supervisor", FieldManager},
	{"reportsto", FieldManager},
	{"location", FieldLocation},
	{"office", FieldLocation},
	{"site", FieldLocation},
	{"campus", FieldLocation},
	{"project", FieldTeamProject},
	{"team", FieldTeamProject},
	{"department", FieldTeamProject},
	{"costcenter", FieldTeamProject},
	{"employeetype", FieldEmployeeType},
	{"persontype", FieldEmployeeType},
	{"workertype", FieldEmployeeType},
	{"employmentstatus", FieldEmployeeType},
	{"level", FieldLevel},
	{"grade", FieldLevel},
	{"username", FieldUsername},
	{"userid", FieldUsername},
	{"login", FieldUsername},
}

// InferMappings proposes a mapping from header names alone:
//  1. Normalize (lowercase, strip diacritics, whitespace, punctuation)
//  2. Exact match against HeaderMappings
//  3. Substring match
//  4. No match -> leave unmapped
//
// Exact matches are resolved across all headers before any substring match,
// so "Manager ID" cannot take the manager field from a later "Manager".
// Within a pass the first header to claim a field wins.
func InferMappings(headers []string) ColumnMapping {
	result := NewColumnMapping()
	claimed := make(map[string]bool, len(headers))

	for _, header := range headers {
		target, ok := HeaderMappings[NormalizeHeader(header)]
		if ok && !result.IsMapped(target) {
			result.Set(target, header)
			claimed[header] = true
		}
	}

	for _, header := range headers {
		normalized := NormalizeHeader(header)
		if normalized == "" || claimed[header] {
			continue
		}

		for _, sm := range substringMappings {
			if strings.Contains(normalized, sm.Substring) && !result.IsMapped(sm.Target) {
				result.Set(sm.Target, header)
				break
			}
		}
	}

	return result
}
