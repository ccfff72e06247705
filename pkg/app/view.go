package app

import (
	"orgmap/pkg/engine"
	"orgmap/pkg/parser"
	"orgmap/pkg/schema"
)

// View is the JSON shape of a State handed to clients.
type View struct {
	FileName        string                `json:"fileName"`
	Headers         []string              `json:"headers"`
	RowCount        int                   `json:"rowCount"`
	Warnings        []parser.ParseWarning `json:"warnings"`
	Encoding        string                `json:"encoding,omitempty"`
	Mapping         schema.ColumnMapping  `json:"mapping"`
	Required        []schema.Field        `json:"required"`
	MappingComplete bool                  `json:"mappingComplete"`
	Missing         []schema.Field        `json:"missing"`
	Suggestion      SuggestionStatus      `json:"suggestion"`
	SuggestedCount  int                   `json:"suggestedCount"`
	Applied         bool                  `json:"applied"`
	EmployeeCount   int                   `json:"employeeCount"`
	FilteredCount   int                   `json:"filteredCount"`
	Options         engine.FilterOptions  `json:"options"`
	Filters         engine.FilterState    `json:"filters"`
	FiltersActive   bool                  `json:"filtersActive"`
	Hierarchy       engine.Hierarchy      `json:"hierarchy"`
	Caption         string                `json:"caption"`
	Error           *Problem              `json:"error,omitempty"`
	Warning         *Problem              `json:"warning,omitempty"`
}

// Problem is a surfaced error.
type Problem struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func problem(err error) *Problem {
	if err == nil {
		return nil
	}
	return &Problem{Kind: Kind(err), Message: err.Error()}
}

// NewView renders s.
func NewView(s State) View {
	headers := s.Headers
	if headers == nil {
		headers = []string{}
	}
	warnings := s.Warnings
	if warnings == nil {
		warnings = []parser.ParseWarning{}
	}
	missing := s.Mapping.Missing(s.Required)
	if missing == nil {
		missing = []schema.Field{}
	}
	return View{
		FileName:        s.FileName,
		Headers:         headers,
		RowCount:        len(s.Rows),
		Warnings:        warnings,
		Encoding:        s.Encoding,
		Mapping:         s.Mapping,
		Required:        s.Required,
		MappingComplete: s.MappingComplete(),
		Missing:         missing,
		Suggestion:      s.Suggestion,
		SuggestedCount:  s.SuggestedCount,
		Applied:         s.Applied(),
		EmployeeCount:   len(s.Employees),
		FilteredCount:   len(s.Filtered),
		Options:         s.Options,
		Filters:         s.Filters,
		FiltersActive:   !s.Filters.IsZero(),
		Hierarchy:       s.Hierarchy,
		Caption:         Caption(s),
		Error:           problem(s.Err),
		Warning:         problem(s.Warning),
	}
}
