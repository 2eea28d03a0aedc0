package particles

// ColorGroup selects the palette a node is drawn with
type ColorGroup string

const (
	GroupPrimary ColorGroup = "primary"
	GroupAccent  ColorGroup = "accent"
)

// EdgeColor classifies an edge by the groups of its endpoints
type EdgeColor string

const (
	EdgePrimary  EdgeColor = "primary"
	EdgeAccent   EdgeColor = "accent"
	EdgeGradient EdgeColor = "gradient"
)

func edgeColor(a, b ColorGroup) EdgeColor {
	if a != b {
		return EdgeGradient
	}
	if a == GroupAccent {
		return EdgeAccent
	}
	return EdgePrimary
}

// Node is one decorative point of the field. While Held, the node follows
// the pointer at DragOffset and its velocity stays zero.
type Node struct {
	ID         int        `json:"id"`
	Position   Vec2       `json:"position"`
	Velocity   Vec2       `json:"velocity"`
	Opacity    float64    `json:"opacity"`
	Group      ColorGroup `json:"group"`
	Held       bool       `json:"held"`
	DragOffset Vec2       `json:"-"`
}

// Edge connects two nodes closer than the connection threshold. A is always
// the smaller id.
type Edge struct {
	A       int       `json:"a"`
	B       int       `json:"b"`
	Opacity float64   `json:"opacity"`
	Color   EdgeColor `json:"color"`
}

// Frame is a committed, read-only view of the field after a tick
type Frame struct {
	Tick     uint64   `json:"tick"`
	Viewport Viewport `json:"viewport"`
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
}
