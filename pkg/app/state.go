package app

import (
	"orgmap/pkg/engine"
	"orgmap/pkg/parser"
	"orgmap/pkg/schema"
)

// SuggestionStatus tracks the single mapping suggestion of an upload.
type SuggestionStatus string

const (
	SuggestionIdle    SuggestionStatus = "idle"
	SuggestionPending SuggestionStatus = "pending"
	SuggestionDone    SuggestionStatus = "done"
	SuggestionFailed  SuggestionStatus = "failed"
	SuggestionSkipped SuggestionStatus = "skipped"
)

// State is the whole application state of one upload session. It is treated
// as immutable: Reduce returns a new value and never mutates slices or maps
// reachable from its input.
type State struct {
	FileName string
	// Token identifies the current upload. Suggestion results carrying a
	// different token are stale.
	Token    string
	Headers  []string
	Rows     []parser.RawRow
	Warnings []parser.ParseWarning
	Encoding string

	Mapping  schema.ColumnMapping
	Required []schema.Field

	Suggestion     SuggestionStatus
	SuggestedCount int

	// Employees and everything derived from them exist only after a mapping
	// was applied. AppliedMapping is the mapping they were projected with;
	// later edits to Mapping take effect on the next apply.
	AppliedMapping schema.ColumnMapping
	Employees      []schema.Employee
	Index     *engine.ManagerIndex
	Options   engine.FilterOptions

	Filters   engine.FilterState
	Filtered  []schema.Employee
	Hierarchy engine.Hierarchy

	// Err is the last surfaced error. Warning is a non-fatal notice.
	Err     error
	Warning error
}

// New returns the empty state for the given required-field policy.
func New(required []schema.Field) State {
	if required == nil {
		required = schema.DefaultRequired
	}
	return State{
		Mapping:    schema.NewColumnMapping(),
		Required:   required,
		Suggestion: SuggestionIdle,
		Hierarchy:  engine.Aggregate(nil, nil),
	}
}

// HasFile reports whether an upload was parsed successfully.
func (s State) HasFile() bool { return len(s.Headers) > 0 }

// Applied reports whether a mapping has been applied to the rows.
func (s State) Applied() bool { return s.Employees != nil }

// MappingComplete reports whether the mapping covers every required field.
func (s State) MappingComplete() bool { return s.Mapping.IsComplete(s.Required) }
