package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmap/pkg/parser"
	"orgmap/pkg/schema"
)

func rosterMapping() schema.ColumnMapping {
	m := schema.NewColumnMapping()
	m.Set(schema.FieldManager, "Manager")
	m.Set(schema.FieldLocation, "Site")
	m.Set(schema.FieldLevel, "Level")
	m.Set(schema.FieldEmployeeType, "Type")
	m.Set(schema.FieldUsername, "User")
	return m
}

func roster(rows ...parser.RawRow) []schema.Employee {
	return schema.Project(rows, rosterMapping())
}

func TestFilter_FacetAndDrillIntersect(t *testing.T) {
	employees := []schema.Employee{
		{ID: 0, Manager: "M1", Location: "L1", Level: "3"},
		{ID: 1, Manager: "M1", Location: "L2", Level: "5"},
	}
	m := rosterMapping()

	byLevel := FilterState{}.WithFacet(schema.FieldLevel, []string{"3"})
	got := Filter(employees, byLevel, m, nil)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].ID)

	both := byLevel.WithDrill(Click{Manager: "M1"})
	got = Filter(employees, both, m, nil)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, []string{"3"}, both.Levels, "drill-down keeps facet selections")
}

func TestFilter_DrillLocation(t *testing.T) {
	employees := []schema.Employee{
		{ID: 0, Manager: "M1", Location: "L1"},
		{ID: 1, Manager: "M1", Location: "L2"},
		{ID: 2, Manager: "M1", Location: "  "},
		{ID: 3, Manager: "M2", Location: "L1"},
	}
	m := rosterMapping()

	got := Filter(employees, FilterState{}.WithDrill(Click{Manager: "M1", Location: "L1"}), m, nil)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].ID)

	got = Filter(employees, FilterState{}.WithDrill(Click{Manager: "M1", Location: UnknownLocation}), m, nil)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)

	got = Filter(employees, FilterState{}.WithDrill(Click{Manager: "M1"}), m, nil)
	assert.Len(t, got, 3)
}

func TestFilterState_FacetClearsDrill(t *testing.T) {
	st := FilterState{}.WithDrill(Click{Manager: "M1", Location: "L1"})
	require.NotNil(t, st.Drill)

	st = st.WithFacet(schema.FieldEmployeeType, []string{"FTE", "FTE", "Contractor"})
	assert.Nil(t, st.Drill)
	assert.Equal(t, []string{"Contractor", "FTE"}, st.EmployeeTypes)

	unchanged := st.WithFacet(schema.FieldManager, []string{"x"})
	assert.Equal(t, st, unchanged, "non-facet fields are ignored")
}

func TestFilter_EmptyValuesAreMatchable(t *testing.T) {
	employees := []schema.Employee{
		{ID: 0, Manager: "", Level: ""},
		{ID: 1, Manager: "M1", Level: "2"},
	}
	got := Filter(employees, FilterState{}.WithFacet(schema.FieldLevel, []string{""}), rosterMapping(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].ID)
}

func TestFilter_TeamProjectSkippedWhenUnmapped(t *testing.T) {
	employees := []schema.Employee{
		{ID: 0, Manager: "M1", TeamProject: "Apollo"},
		{ID: 1, Manager: "M1", TeamProject: "Gemini"},
	}
	st := FilterState{}.WithFacet(schema.FieldTeamProject, []string{"Apollo"})

	assert.Len(t, Filter(employees, st, rosterMapping(), nil), 2)

	m := rosterMapping().With(schema.FieldTeamProject, "Team")
	assert.Len(t, Filter(employees, st, m, nil), 1)
}

func TestFilter_DifferentCampus(t *testing.T) {
	employees := roster(
		parser.RawRow{"User": "eve", "Manager": "Bob", "Site": "NYC", "Level": "", "Type": ""},
		parser.RawRow{"User": "Bob", "Manager": "Ann", "Site": "SF", "Level": "", "Type": ""},
		parser.RawRow{"User": "zed", "Manager": "Nobody", "Site": "LA", "Level": "", "Type": ""},
	)
	m := rosterMapping()
	st := FilterState{}.WithDifferentCampus(true)

	got := Filter(employees, st, m, nil)
	ids := employeeIDs(got)
	assert.Contains(t, ids, 0, "manager Bob sits in SF, employee in NYC")
	assert.Contains(t, ids, 1, "manager Ann has no row, employee is kept")
	assert.Contains(t, ids, 2, "manager Nobody has no row, employee is kept")

	employees[1].OriginalRow["Site"] = "NYC"
	got = Filter(employees, st, m, BuildManagerIndex(employees, m))
	assert.NotContains(t, employeeIDs(got), 0, "same campus is excluded")
}

func TestFilter_DifferentCampusNeedsUsernameAndLocation(t *testing.T) {
	employees := roster(
		parser.RawRow{"User": "eve", "Manager": "Bob", "Site": "NYC"},
		parser.RawRow{"User": "Bob", "Manager": "", "Site": "NYC"},
	)
	st := FilterState{}.WithDifferentCampus(true)

	m := rosterMapping()
	assert.Len(t, Filter(employees, st, m, nil), 1)

	m.Set(schema.FieldUsername, "")
	assert.Len(t, Filter(employees, st, m, nil), 2, "toggle is inert without a username column")
}

func TestBuildManagerIndex_FirstOccurrenceWins(t *testing.T) {
	employees := roster(
		parser.RawRow{"User": "bob", "Manager": "", "Site": "SF"},
		parser.RawRow{"User": "bob", "Manager": "", "Site": "LA"},
		parser.RawRow{"User": "", "Manager": "bob", "Site": "NYC"},
	)
	idx := BuildManagerIndex(employees, rosterMapping())

	mgr, ok := idx.ManagerOf(&employees[2])
	require.True(t, ok)
	assert.Equal(t, 0, mgr.ID)
	assert.Equal(t, 1, idx.Stats.UniqueUsernames)
	assert.Equal(t, 1, idx.Stats.WithManager)
	assert.Equal(t, 1, idx.Stats.ManagersFound)

	_, ok = idx.ManagerOf(&employees[0])
	assert.False(t, ok, "empty manager never resolves")

	var nilIdx *ManagerIndex
	_, ok = nilIdx.ManagerOf(&employees[2])
	assert.False(t, ok)
}

func TestDetectCampusMismatches(t *testing.T) {
	employees := roster(
		parser.RawRow{"User": "eve", "Manager": "Bob", "Site": "NYC"},
		parser.RawRow{"User": "Bob", "Manager": "", "Site": "SF"},
		parser.RawRow{"User": "tim", "Manager": "Bob", "Site": "SF"},
	)
	m := rosterMapping()
	got := DetectCampusMismatches(employees, BuildManagerIndex(employees, m), m)
	require.Len(t, got, 1)
	assert.Equal(t, CampusMismatch{EmployeeID: 0, Manager: "Bob", EmployeeLocation: "NYC", ManagerLocation: "SF"}, got[0])
}

func TestDeriveOptions(t *testing.T) {
	employees := []schema.Employee{
		{Level: " 5 ", EmployeeType: "FTE"},
		{Level: "3", EmployeeType: ""},
		{Level: "5", EmployeeType: "Contractor"},
	}
	opts := DeriveOptions(employees)
	assert.Equal(t, []string{"3", "5"}, opts.Levels)
	assert.Equal(t, []string{"Contractor", "FTE"}, opts.EmployeeTypes)
	assert.NotNil(t, opts.TeamProjects)
	assert.Empty(t, opts.TeamProjects)
	assert.Equal(t, opts.Levels, opts.For(schema.FieldLevel))
}

func TestAggregate_Shape(t *testing.T) {
	employees := []schema.Employee{
		{ID: 0, Manager: "M1", Location: "L1"},
		{ID: 1, Manager: "M1", Location: "L2"},
		{ID: 2, Manager: "M2", Location: "L1"},
		{ID: 3, Manager: "M1", Location: "L1"},
		{ID: 4, Manager: "M2", Location: ""},
	}
	h := Aggregate(employees, employees)

	require.True(t, h.Loaded)
	assert.False(t, h.FilteredOut)
	assert.Equal(t, 5, h.Total)
	require.Len(t, h.Nodes, 2)

	m1 := h.Nodes[0]
	assert.Equal(t, "M1", m1.Name)
	assert.Equal(t, NodeManager, m1.Type)
	assert.Equal(t, 3, m1.Count)
	require.Len(t, m1.Children, 2)
	assert.Equal(t, "L1", m1.Children[0].Name)
	assert.Equal(t, 2, m1.Children[0].Count)
	assert.Equal(t, "M1/L1", m1.Children[0].Path)

	m2, ok := h.Find("M2")
	require.True(t, ok)
	assert.Equal(t, "M2/L1", m2.Children[0].Path, "same location under another manager is a distinct node")
	assert.Equal(t, UnknownLocation, m2.Children[1].Name)
}

func TestAggregate_MissingManagerExcluded(t *testing.T) {
	employees := []schema.Employee{
		{ID: 0, Manager: "", Location: "L1", Level: "1"},
		{ID: 1, Manager: "  ", Location: "L1", Level: "1"},
		{ID: 2, Manager: "M1", Location: "L1", Level: "1"},
	}
	visible := Filter(employees, FilterState{}.WithFacet(schema.FieldLevel, []string{"1"}), rosterMapping(), nil)
	assert.Len(t, visible, 3)

	h := Aggregate(visible, employees)
	require.Len(t, h.Nodes, 1)
	assert.Equal(t, 1, h.Total)
}

func TestAggregate_OrderIndependentCounts(t *testing.T) {
	var employees []schema.Employee
	for i, pair := range [][2]string{
		{"A", "x"}, {"B", "y"}, {"A", "y"}, {"A", "x"}, {"C", ""}, {"B", "y"}, {"C", "z"},
	} {
		employees = append(employees, schema.Employee{ID: i, Manager: pair[0], Location: pair[1]})
	}

	want := pairCounts(Aggregate(employees, employees))

	r := rand.New(rand.NewSource(7))
	for range 20 {
		shuffled := append([]schema.Employee(nil), employees...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, pairCounts(Aggregate(shuffled, shuffled)))
	}

	first := Aggregate(employees, employees)
	assert.Equal(t, first, Aggregate(employees, employees), "same input renders identically")
}

func TestAggregate_EmptySignals(t *testing.T) {
	none := Aggregate(nil, nil)
	assert.False(t, none.Loaded)
	assert.False(t, none.FilteredOut)
	assert.NotNil(t, none.Nodes)

	all := []schema.Employee{{Manager: "M1", Location: "L1"}}
	out := Aggregate(nil, all)
	assert.True(t, out.Loaded)
	assert.True(t, out.FilteredOut)
	assert.Empty(t, out.Nodes)
}

func TestParseClick(t *testing.T) {
	tests := []struct {
		name    string
		ev      ClickEvent
		want    Click
		wantErr bool
	}{
		{"manager", ClickEvent{Type: NodeManager, Name: "Bob", Path: "Bob"}, Click{Manager: "Bob"}, false},
		{"location", ClickEvent{Type: NodeLocation, Name: "NYC", Path: "Bob/NYC"}, Click{Manager: "Bob", Location: "NYC"}, false},
		{"location path only", ClickEvent{Type: NodeLocation, Path: "Bob/NYC"}, Click{Manager: "Bob", Location: "NYC"}, false},
		{"slash in manager", ClickEvent{Type: NodeLocation, Name: "NYC", Path: "R&D/Ops/NYC"}, Click{Manager: "R&D/Ops", Location: "NYC"}, false},
		{"no slash", ClickEvent{Type: NodeLocation, Path: "Bob"}, Click{}, true},
		{"unknown type", ClickEvent{Type: "team", Name: "x"}, Click{}, true},
		{"empty manager", ClickEvent{Type: NodeManager}, Click{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClick(tt.ev)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorFor_Cycles(t *testing.T) {
	assert.Equal(t, Palette[0], ColorFor(0, NodeManager))
	assert.Equal(t, Palette[1], ColorFor(0, NodeLocation))
	assert.Equal(t, ColorFor(2, NodeManager), ColorFor(2+len(Palette), NodeManager))
}

func employeeIDs(employees []schema.Employee) []int {
	ids := make([]int, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	return ids
}

func pairCounts(h Hierarchy) map[string]int {
	out := make(map[string]int)
	for _, m := range h.Nodes {
		sum := 0
		for _, l := range m.Children {
			out[l.Path] = l.Count
			sum += l.Count
		}
		out[m.Name] = m.Count
		if sum != m.Count {
			out["mismatch:"+m.Name] = sum
		}
	}
	return out
}
