package app

import (
	"fmt"

	"github.com/go-faster/errors"

	"orgmap/pkg/engine"
	"orgmap/pkg/parser"
	"orgmap/pkg/schema"
)

// Action is a state transition request.
type Action interface{ action() }

type (
	// Uploaded replaces the session with a freshly parsed file.
	Uploaded struct {
		FileName string
		Token    string
		Result   *parser.ParseResult
	}
	// UploadFailed clears the session and surfaces err.
	UploadFailed struct {
		FileName string
		Err      error
	}
	// SuggestionStarted marks a suggestion request for Token as in flight.
	SuggestionStarted struct{ Token string }
	// SuggestionReceived carries a suggestion result. Mapping must already
	// be restricted to known headers; Err non-nil means the call failed.
	SuggestionReceived struct {
		Token   string
		Mapping schema.ColumnMapping
		Err     error
	}
	// MappingChanged overwrites one field.
	MappingChanged struct {
		Field  schema.Field
		Header string
	}
	// MappingReplaced overwrites the whole mapping. Headers the current
	// file lacks are dropped.
	MappingReplaced struct{ Mapping schema.ColumnMapping }
	// MappingsApplied projects the rows with the current mapping.
	MappingsApplied struct{}
	// FacetChanged replaces one multi-select set.
	FacetChanged struct {
		Field  schema.Field
		Values []string
	}
	// CampusToggled switches the different-campus predicate.
	CampusToggled struct{ On bool }
	// NodeClicked drills into a hierarchy node.
	NodeClicked struct{ Click engine.Click }
	// FiltersReset clears every filter.
	FiltersReset struct{}
)

func (Uploaded) action()           {}
func (UploadFailed) action()       {}
func (SuggestionStarted) action()  {}
func (SuggestionReceived) action() {}
func (MappingChanged) action()     {}
func (MappingReplaced) action()    {}
func (MappingsApplied) action()    {}
func (FacetChanged) action()       {}
func (CampusToggled) action()      {}
func (NodeClicked) action()        {}
func (FiltersReset) action()       {}

// Reduce applies a to s and returns the next state.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Uploaded:
		next := New(s.Required)
		next.FileName = a.FileName
		next.Token = a.Token
		next.Headers = a.Result.Headers
		next.Rows = a.Result.Rows
		next.Warnings = a.Result.Warnings
		next.Encoding = a.Result.Encoding
		if !ShouldSuggest(a.FileName) {
			next.Suggestion = SuggestionSkipped
		}
		return next

	case UploadFailed:
		next := New(s.Required)
		next.FileName = a.FileName
		err := a.Err
		var pe *ParseError
		if !errors.As(err, &pe) {
			err = &ParseError{FileName: a.FileName, Err: err}
		}
		next.Err = err
		return next

	case SuggestionStarted:
		if a.Token != s.Token || !s.HasFile() {
			return s
		}
		s.Suggestion = SuggestionPending
		return s

	case SuggestionReceived:
		if a.Token != s.Token || !s.HasFile() {
			return s
		}
		if a.Err != nil {
			s.Mapping = schema.NewColumnMapping()
			s.Suggestion = SuggestionFailed
			s.SuggestedCount = 0
			s.Warning = &MappingSuggestionError{Err: a.Err}
			return s
		}
		s.Mapping = a.Mapping.Reconcile(s.Headers)
		s.Suggestion = SuggestionDone
		s.SuggestedCount = s.Mapping.MappedCount()
		s.Warning = nil
		return s

	case MappingChanged:
		s.Mapping = s.Mapping.With(a.Field, a.Header)
		return s

	case MappingReplaced:
		s.Mapping = a.Mapping.Reconcile(s.Headers)
		return s

	case MappingsApplied:
		return apply(s)

	case FacetChanged:
		if !engine.IsFacet(a.Field) {
			return s
		}
		s.Filters = s.Filters.WithFacet(a.Field, a.Values)
		return Recompute(s)

	case CampusToggled:
		s.Filters = s.Filters.WithDifferentCampus(a.On)
		return Recompute(s)

	case NodeClicked:
		s.Filters = s.Filters.WithDrill(a.Click)
		return Recompute(s)

	case FiltersReset:
		s.Filters = engine.FilterState{}
		return Recompute(s)
	}
	return s
}

// apply projects the rows and rebuilds everything derived from employees.
func apply(s State) State {
	if !s.HasFile() {
		s.Err = ErrNoData
		return s
	}
	if missing := s.Mapping.Missing(s.Required); len(missing) > 0 {
		s.Err = errors.Wrap(ErrIncompleteMapping, fmt.Sprintf("missing %v", missing))
		return s
	}

	prev := s
	mapping := s.Mapping.Clone()
	err := guard(func() {
		s.Employees = schema.Project(s.Rows, mapping)
		s.Index = engine.BuildManagerIndex(s.Employees, mapping)
		s.Options = engine.DeriveOptions(s.Employees)
	})
	if err != nil {
		prev.Err = err
		return prev
	}
	s.AppliedMapping = mapping
	s.Err = nil
	return Recompute(s)
}

// Recompute re-runs filter and aggregation over the applied employees. On
// failure the previous hierarchy is kept and a *ProcessingError surfaced.
func Recompute(s State) State {
	if !s.Applied() {
		return s
	}
	var (
		filtered  []schema.Employee
		hierarchy engine.Hierarchy
	)
	err := guard(func() {
		filtered = engine.Filter(s.Employees, s.Filters, s.AppliedMapping, s.Index)
		hierarchy = engine.Aggregate(filtered, s.Employees)
	})
	if err != nil {
		s.Err = err
		return s
	}
	s.Filtered = filtered
	s.Hierarchy = hierarchy
	s.Err = nil
	return s
}

func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ProcessingError{Err: errors.Errorf("%v", r)}
		}
	}()
	fn()
	return nil
}

// Caption describes the current drill-down for display.
func Caption(s State) string {
	d := s.Filters.Drill
	if d == nil {
		return "Overview of managers and their locations by employee count."
	}
	if d.Location == "" {
		return "Displaying: " + d.Manager
	}
	return "Displaying: " + d.Manager + " > " + d.Location
}
