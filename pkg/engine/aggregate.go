package engine

import (
	"strings"

	"orgmap/pkg/schema"
)

// UnknownLocation stands in for an empty or whitespace-only location.
const UnknownLocation = "(Unknown Location)"

// NodeType distinguishes the two hierarchy levels.
type NodeType string

const (
	NodeManager  NodeType = "manager"
	NodeLocation NodeType = "location"
)

// Node is one entry of the manager → location hierarchy. A manager node's
// count is the sum of its children; a location node is a leaf whose path is
// "<manager>/<location>".
type Node struct {
	Type     NodeType `json:"type" yaml:"type"`
	Name     string   `json:"name" yaml:"name"`
	Count    int      `json:"value" yaml:"value"`
	Path     string   `json:"path" yaml:"path"`
	Color    string   `json:"color" yaml:"color"`
	Children []Node   `json:"children,omitempty" yaml:"children,omitempty"`
}

// Hierarchy is the aggregator output. Nodes is never nil. Loaded is false
// when there was no data to aggregate at all; FilteredOut is true when data
// exists but the active filters excluded every employee.
type Hierarchy struct {
	Nodes       []Node `json:"nodes" yaml:"nodes"`
	Loaded      bool   `json:"loaded" yaml:"loaded"`
	FilteredOut bool   `json:"filteredOut" yaml:"filteredOut"`
	Total       int    `json:"total" yaml:"total"`
}

// Aggregate folds filtered employees into the two-level count hierarchy.
// all is the unfiltered set and is only consulted to tell "filters excluded
// everything" apart from "nothing loaded". Managers and locations are
// emitted in first-seen order.
func Aggregate(filtered, all []schema.Employee) Hierarchy {
	h := Hierarchy{Nodes: []Node{}, Loaded: len(all) > 0}
	if len(filtered) == 0 {
		h.FilteredOut = h.Loaded
		return h
	}

	type group struct {
		locations []string
		counts    map[string]int
	}
	var order []string
	groups := make(map[string]*group)

	for i := range filtered {
		manager := strings.TrimSpace(filtered[i].Manager)
		if manager == "" {
			continue
		}
		location := strings.TrimSpace(filtered[i].Location)
		if location == "" {
			location = UnknownLocation
		}

		g, ok := groups[manager]
		if !ok {
			g = &group{counts: make(map[string]int)}
			groups[manager] = g
			order = append(order, manager)
		}
		if _, seen := g.counts[location]; !seen {
			g.locations = append(g.locations, location)
		}
		g.counts[location]++
	}

	for mi, manager := range order {
		g := groups[manager]
		node := Node{
			Type:     NodeManager,
			Name:     manager,
			Path:     manager,
			Color:    ColorFor(mi, NodeManager),
			Children: make([]Node, 0, len(g.locations)),
		}
		for li, location := range g.locations {
			count := g.counts[location]
			node.Count += count
			node.Children = append(node.Children, Node{
				Type:  NodeLocation,
				Name:  location,
				Count: count,
				Path:  LocationPath(manager, location),
				Color: ColorFor(li, NodeLocation),
			})
		}
		h.Total += node.Count
		h.Nodes = append(h.Nodes, node)
	}
	return h
}

// LocationPath builds the drill-down address of a location node.
func LocationPath(manager, location string) string {
	return manager + "/" + location
}

// Find returns the manager node with the given name.
func (h Hierarchy) Find(manager string) (Node, bool) {
	for _, n := range h.Nodes {
		if n.Name == manager {
			return n, true
		}
	}
	return Node{}, false
}
