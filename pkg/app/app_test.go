package app

import (
	"encoding/json"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmap/pkg/engine"
	"orgmap/pkg/schema"
)

const rosterCSV = `Name,User,Manager,Site,Level,Type,Team
Eve,eve,bob,NYC,3,FTE,Apollo
Bob,bob,ann,SF,5,FTE,Apollo
Tim,tim,bob,SF,3,Contractor,Gemini
Ann,ann,,SF,7,FTE,
`

func fullMapping() schema.ColumnMapping {
	m := schema.NewColumnMapping()
	m.Set(schema.FieldManager, "Manager")
	m.Set(schema.FieldLocation, "Site")
	m.Set(schema.FieldLevel, "Level")
	m.Set(schema.FieldEmployeeType, "Type")
	m.Set(schema.FieldUsername, "User")
	return m
}

func uploaded(t *testing.T, fileName string) State {
	t.Helper()
	res, err := Ingest(fileName, []byte(rosterCSV))
	require.NoError(t, err)
	return Reduce(New(nil), Uploaded{FileName: fileName, Token: "t1", Result: res})
}

func applied(t *testing.T) State {
	t.Helper()
	s := uploaded(t, "roster.csv")
	s = Reduce(s, MappingReplaced{Mapping: fullMapping()})
	s = Reduce(s, MappingsApplied{})
	require.NoError(t, s.Err)
	return s
}

func TestIngest(t *testing.T) {
	_, err := Ingest("roster.txt", []byte(rosterCSV))
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, ErrNotCSV)

	_, err = Ingest("roster.csv", []byte("   \n"))
	require.True(t, errors.As(err, &pe))

	_, err = Ingest("roster.csv", []byte("a,b,c\n"))
	assert.ErrorIs(t, err, ErrNoRows)

	res, err := Ingest("ROSTER.CSV", []byte(rosterCSV))
	require.NoError(t, err)
	assert.Len(t, res.Rows, 4)
}

func TestShouldSuggest(t *testing.T) {
	assert.True(t, ShouldSuggest("roster.csv"))
	assert.False(t, ShouldSuggest("roster_mapped.csv"))
	assert.False(t, ShouldSuggest("Roster_MAPPED.csv"))
}

func TestReduce_UploadResetsState(t *testing.T) {
	s := applied(t)
	s = Reduce(s, NodeClicked{Click: engine.Click{Manager: "bob"}})

	res, err := Ingest("next.csv", []byte("Boss,Office\nx,y\n"))
	require.NoError(t, err)
	s = Reduce(s, Uploaded{FileName: "next.csv", Token: "t2", Result: res})

	assert.Equal(t, []string{"Boss", "Office"}, s.Headers)
	assert.Equal(t, 0, s.Mapping.MappedCount())
	assert.False(t, s.Applied())
	assert.Nil(t, s.Filters.Drill)
	assert.False(t, s.Hierarchy.Loaded)
	assert.Equal(t, SuggestionIdle, s.Suggestion)
}

func TestReduce_UploadFailedClearsState(t *testing.T) {
	s := applied(t)
	s = Reduce(s, UploadFailed{FileName: "bad.csv", Err: errors.New("boom")})

	var pe *ParseError
	require.True(t, errors.As(s.Err, &pe))
	assert.False(t, s.HasFile())
	assert.False(t, s.Applied())
	assert.Equal(t, "parse_error", Kind(s.Err))
}

func TestReduce_SkipsSuggestionForMappedFiles(t *testing.T) {
	s := uploaded(t, "roster_mapped.csv")
	assert.Equal(t, SuggestionSkipped, s.Suggestion)
}

func TestReduce_SuggestionLifecycle(t *testing.T) {
	s := uploaded(t, "roster.csv")
	s = Reduce(s, SuggestionStarted{Token: "t1"})
	assert.Equal(t, SuggestionPending, s.Suggestion)

	suggested := schema.NewColumnMapping()
	suggested.Set(schema.FieldManager, "Manager")
	suggested.Set(schema.FieldLocation, "Campus")
	s = Reduce(s, SuggestionReceived{Token: "t1", Mapping: suggested})

	assert.Equal(t, SuggestionDone, s.Suggestion)
	assert.Equal(t, 1, s.SuggestedCount, "unknown headers are dropped")
	assert.True(t, s.Mapping.IsMapped(schema.FieldManager))
	assert.False(t, s.Mapping.IsMapped(schema.FieldLocation))
}

func TestReduce_StaleSuggestionDiscarded(t *testing.T) {
	s := uploaded(t, "roster.csv")
	s = Reduce(s, MappingChanged{Field: schema.FieldLevel, Header: "Level"})

	stale := schema.NewColumnMapping()
	stale.Set(schema.FieldManager, "Manager")
	next := Reduce(s, SuggestionReceived{Token: "old", Mapping: stale})

	assert.Equal(t, s.Mapping, next.Mapping)
	assert.Equal(t, SuggestionIdle, next.Suggestion)
}

func TestReduce_SuggestionFailureResetsMapping(t *testing.T) {
	s := uploaded(t, "roster.csv")
	s = Reduce(s, MappingChanged{Field: schema.FieldLevel, Header: "Level"})
	s = Reduce(s, SuggestionReceived{Token: "t1", Err: errors.New("quota")})

	assert.Equal(t, SuggestionFailed, s.Suggestion)
	assert.Equal(t, 0, s.Mapping.MappedCount())
	assert.NoError(t, s.Err)
	assert.Equal(t, "mapping_suggestion_error", Kind(s.Warning))
}

func TestReduce_ApplyRequiresCompleteMapping(t *testing.T) {
	s := uploaded(t, "roster.csv")
	s = Reduce(s, MappingChanged{Field: schema.FieldManager, Header: "Manager"})
	s = Reduce(s, MappingsApplied{})

	assert.ErrorIs(t, s.Err, ErrIncompleteMapping)
	assert.False(t, s.Applied())

	assert.ErrorIs(t, Reduce(New(nil), MappingsApplied{}).Err, ErrNoData)
}

func TestReduce_ApplyWithoutTeamProject(t *testing.T) {
	s := applied(t)

	assert.Len(t, s.Employees, 4)
	assert.Equal(t, []string{"3", "5", "7"}, s.Options.Levels)
	assert.Empty(t, s.Options.TeamProjects)
	assert.True(t, s.Hierarchy.Loaded)
	assert.Equal(t, 3, s.Hierarchy.Total, "ann has no manager")
}

func TestReduce_FiltersAndDrillDown(t *testing.T) {
	s := applied(t)

	s = Reduce(s, FacetChanged{Field: schema.FieldLevel, Values: []string{"3"}})
	assert.Len(t, s.Filtered, 2)

	s = Reduce(s, NodeClicked{Click: engine.Click{Manager: "bob", Location: "SF"}})
	require.Len(t, s.Filtered, 1)
	assert.Equal(t, "tim", s.Filtered[0].Username)
	assert.Equal(t, []string{"3"}, s.Filters.Levels)
	assert.Equal(t, "Displaying: bob > SF", Caption(s))

	s = Reduce(s, FacetChanged{Field: schema.FieldEmployeeType, Values: []string{"FTE"}})
	assert.Nil(t, s.Filters.Drill, "facet change returns to the top")
	assert.Len(t, s.Filtered, 1)

	s = Reduce(s, FacetChanged{Field: schema.FieldEmployeeType, Values: []string{"Nope"}})
	assert.Empty(t, s.Filtered)
	assert.True(t, s.Hierarchy.FilteredOut)
	assert.Empty(t, s.Hierarchy.Nodes)

	s = Reduce(s, FiltersReset{})
	assert.True(t, s.Filters.IsZero())
	assert.Len(t, s.Filtered, 4)
	assert.Equal(t, "Overview of managers and their locations by employee count.", Caption(s))
}

func TestReduce_DifferentCampus(t *testing.T) {
	s := applied(t)
	s = Reduce(s, CampusToggled{On: true})

	var users []string
	for _, e := range s.Filtered {
		users = append(users, e.Username)
	}
	// eve (NYC) reports to bob (SF); bob (SF) reports to ann (SF); tim (SF)
	// reports to bob (SF); ann has no manager row.
	assert.ElementsMatch(t, []string{"eve", "ann"}, users)
}

func TestReduce_MappingEditWaitsForApply(t *testing.T) {
	usernames := func(s State) []string {
		var out []string
		for _, e := range s.Filtered {
			out = append(out, e.Username)
		}
		return out
	}

	s := applied(t)
	s = Reduce(s, MappingChanged{Field: schema.FieldLocation, Header: "Name"})
	s = Reduce(s, CampusToggled{On: true})
	assert.ElementsMatch(t, []string{"eve", "ann"}, usernames(s))
	h, _ := s.AppliedMapping.Header(schema.FieldLocation)
	assert.Equal(t, "Site", h)

	s = uploaded(t, "roster.csv")
	s = Reduce(s, MappingReplaced{Mapping: fullMapping().With(schema.FieldTeamProject, "Team")})
	s = Reduce(s, MappingsApplied{})
	require.NoError(t, s.Err)
	s = Reduce(s, FacetChanged{Field: schema.FieldTeamProject, Values: []string{"Gemini"}})
	assert.Equal(t, []string{"tim"}, usernames(s))

	s = Reduce(s, MappingChanged{Field: schema.FieldTeamProject, Header: ""})
	s = Reduce(s, FacetChanged{Field: schema.FieldTeamProject, Values: []string{"Gemini"}})
	assert.Equal(t, []string{"tim"}, usernames(s))
}

func TestReduce_MappingReplacedDropsUnknownHeaders(t *testing.T) {
	s := uploaded(t, "roster.csv")
	s = Reduce(s, MappingReplaced{Mapping: fullMapping().With(schema.FieldTeamProject, "Squad")})

	assert.False(t, s.Mapping.IsMapped(schema.FieldTeamProject))
	assert.Equal(t, 5, s.Mapping.MappedCount())

	res, err := Ingest("next.csv", []byte("Boss,Office\nx,y\n"))
	require.NoError(t, err)
	s = Reduce(s, Uploaded{FileName: "next.csv", Token: "t2", Result: res})
	s = Reduce(s, MappingReplaced{Mapping: fullMapping()})
	assert.Zero(t, s.Mapping.MappedCount())
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := uploaded(t, "roster.csv")
	before := s.Mapping.Clone()

	_ = Reduce(s, MappingChanged{Field: schema.FieldManager, Header: "Manager"})
	assert.Equal(t, before, s.Mapping)

	a := applied(t)
	_ = Reduce(a, FacetChanged{Field: schema.FieldLevel, Values: []string{"5"}})
	assert.Empty(t, a.Filters.Levels)
}

func TestGuard_ConvertsPanics(t *testing.T) {
	err := guard(func() { panic("index out of range") })
	var xe *ProcessingError
	require.True(t, errors.As(err, &xe))
	assert.Contains(t, err.Error(), "index out of range")
	assert.NoError(t, guard(func() {}))
}

func TestNewView_JSON(t *testing.T) {
	s := applied(t)
	data, err := json.Marshal(NewView(s))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "roster.csv", got["fileName"])
	assert.Equal(t, true, got["applied"])
	assert.Equal(t, true, got["mappingComplete"])
	assert.Nil(t, got["error"])
	assert.Equal(t, false, got["filtersActive"])

	assert.True(t, NewView(Reduce(s, CampusToggled{On: true})).FiltersActive)

	empty, err := json.Marshal(NewView(New(nil)))
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"headers":[]`)
}
