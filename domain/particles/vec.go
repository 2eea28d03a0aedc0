package particles

import "math"

// Vec2 is a point or displacement in screen pixels
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

func (v Vec2) Scale(k float64) Vec2 { return Vec2{X: v.X * k, Y: v.Y * k} }

// Len returns the Euclidean length of v
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the Euclidean distance between v and o
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// Viewport is the drawable area the field is clamped to
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pointer is the latest pointer reading. Present is false once the pointer
// has left the viewport.
type Pointer struct {
	Position Vec2 `json:"position"`
	Present  bool `json:"present"`
}

// clampAxis bounds p to [margin, dim-margin]. Viewports narrower than two
// margins collapse to the single point margin.
func clampAxis(p, margin, dim float64) (float64, int) {
	lo := margin
	hi := math.Max(lo, dim-margin)
	switch {
	case p < lo:
		return lo, -1
	case p > hi:
		return hi, 1
	default:
		return p, 0
	}
}

func (vp Viewport) clamp(p Vec2, margin float64) Vec2 {
	x, _ := clampAxis(p.X, margin, vp.Width)
	y, _ := clampAxis(p.Y, margin, vp.Height)
	return Vec2{X: x, Y: y}
}
