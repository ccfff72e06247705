package engine

// Palette is the cycle of node colors. Colors are cosmetic; they only need
// to be repeatable for the same input.
var Palette = []string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F",
	"#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC",
}

// ColorFor returns the palette color for the node at position index among
// its siblings. Location nodes are shifted by one so a manager and its
// first location do not share a color.
func ColorFor(index int, t NodeType) string {
	if index < 0 {
		index = -index
	}
	if t == NodeLocation {
		index++
	}
	return Palette[index%len(Palette)]
}
