package engine

import (
	"fmt"
	"strings"
)

// Click is what the renderer reports when a node is selected. Location is
// empty for a manager click.
type Click struct {
	Manager  string `json:"manager"`
	Location string `json:"location,omitempty"`
}

// ClickEvent is the raw node payload sent by a renderer.
type ClickEvent struct {
	Type NodeType `json:"type" validate:"required,oneof=manager location"`
	Name string   `json:"name"`
	Path string   `json:"path"`
}

// ParseClick turns a clicked node into a drill-down selection.
//
// A location path is "<manager>/<location>". Manager names may themselves
// contain a slash, so when the node name is known the manager is whatever
// precedes "/<name>"; otherwise the path is split on its first slash.
func ParseClick(ev ClickEvent) (Click, error) {
	switch ev.Type {
	case NodeManager:
		name := ev.Name
		if name == "" {
			name = ev.Path
		}
		if name == "" {
			return Click{}, fmt.Errorf("manager click without a name")
		}
		return Click{Manager: name}, nil
	case NodeLocation:
		if ev.Name != "" {
			if mgr, ok := strings.CutSuffix(ev.Path, "/"+ev.Name); ok && mgr != "" {
				return Click{Manager: mgr, Location: ev.Name}, nil
			}
		}
		mgr, loc, ok := strings.Cut(ev.Path, "/")
		if !ok || mgr == "" {
			return Click{}, fmt.Errorf("malformed location path %q", ev.Path)
		}
		return Click{Manager: mgr, Location: loc}, nil
	default:
		return Click{}, fmt.Errorf("unknown node type %q", ev.Type)
	}
}
