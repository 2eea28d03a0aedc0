// Package particles simulates the decorative node field drawn behind the
// studio pages: nodes drift, shy away from the pointer, bounce off the
// viewport edges and are linked by proximity edges.
package particles

import (
	"math"
)

// zeroDistance is the distance below which the pointer has no direction
const zeroDistance = 1e-9

// RandomSource supplies uniform values in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Field owns the node set. It is not safe for concurrent use; a runner
// serializes ticks and input.
type Field struct {
	params   Params
	viewport Viewport
	rng      RandomSource

	nodes []Node
	edges []Edge
	tick  uint64
	held  int
}

// NewField seeds params.NodeCount nodes inside the viewport bounds with small
// random velocities, alternating colour groups.
func NewField(params Params, viewport Viewport, rng RandomSource) *Field {
	nodes := make([]Node, params.NodeCount)
	for i := range nodes {
		group := GroupPrimary
		if i%2 == 1 {
			group = GroupAccent
		}
		nodes[i] = Node{
			ID: i,
			Position: Vec2{
				X: spread(rng, params.Margin, viewport.Width),
				Y: spread(rng, params.Margin, viewport.Height),
			},
			Velocity: randomVelocity(rng, params.InitialSpeed),
			Opacity:  params.MinOpacity,
			Group:    group,
		}
	}
	return NewFieldWithNodes(params, viewport, rng, nodes)
}

// NewFieldWithNodes builds a field from explicit nodes. Ids are reassigned to
// the slice index and positions clamped to the viewport.
func NewFieldWithNodes(params Params, viewport Viewport, rng RandomSource, nodes []Node) *Field {
	f := &Field{
		params:   params,
		viewport: viewport,
		rng:      rng,
		nodes:    make([]Node, len(nodes)),
		held:     -1,
	}
	for i, n := range nodes {
		n.ID = i
		n.Held = false
		n.Position = viewport.clamp(n.Position, params.Margin)
		n.Opacity = clamp(n.Opacity, params.MinOpacity, 1)
		f.nodes[i] = n
	}
	f.edges = computeEdges(f.nodes, params)
	return f
}

func spread(rng RandomSource, margin, dim float64) float64 {
	span := dim - 2*margin
	if span <= 0 {
		return margin
	}
	return margin + rng.Float64()*span
}

func randomVelocity(rng RandomSource, speed float64) Vec2 {
	return Vec2{X: symmetric(rng, speed), Y: symmetric(rng, speed)}
}

// symmetric returns a uniform value in [-bound, bound)
func symmetric(rng RandomSource, bound float64) float64 {
	return (rng.Float64()*2 - 1) * bound
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Params returns the tunables the field was built with
func (f *Field) Params() Params { return f.params }

// Viewport returns the bounds used by the last tick
func (f *Field) Viewport() Viewport { return f.viewport }

// HeldID returns the id of the held node, if any
func (f *Field) HeldID() (int, bool) {
	return f.held, f.held >= 0
}

// Press grabs the nearest free node within the grab radius of at. The drag
// offset is recorded so the node keeps its position relative to the pointer.
// Pressing while a node is already held keeps that node.
func (f *Field) Press(at Vec2) (int, bool) {
	if f.held >= 0 {
		return f.held, true
	}

	best := -1
	bestDist := math.Inf(1)
	for i, n := range f.nodes {
		d := n.Position.Dist(at)
		if d <= f.params.GrabRadius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return -1, false
	}

	n := &f.nodes[best]
	n.Held = true
	n.DragOffset = at.Sub(n.Position)
	n.Velocity = Vec2{}
	f.held = best
	return best, true
}

// Release frees the held node with a small random velocity so it resumes
// drifting. It reports whether a node was held.
func (f *Field) Release() bool {
	if f.held < 0 {
		return false
	}
	n := &f.nodes[f.held]
	n.Held = false
	n.DragOffset = Vec2{}
	n.Velocity = randomVelocity(f.rng, f.params.ReleaseSpeed)
	f.held = -1
	return true
}

// Tick advances the field one step. Every node is computed from the current
// committed state into a fresh buffer which then replaces it, so no node
// observes another node's update from the same tick. Edges are rebuilt from
// the committed nodes.
func (f *Field) Tick(pointer Pointer, viewport Viewport) Frame {
	f.viewport = viewport

	next := make([]Node, len(f.nodes))
	for i, n := range f.nodes {
		if n.Held {
			next[i] = f.stepHeld(n, pointer)
		} else {
			next[i] = f.stepFree(n, pointer)
		}
	}

	f.nodes = next
	f.edges = computeEdges(f.nodes, f.params)
	f.tick++
	return f.Snapshot()
}

func (f *Field) stepHeld(n Node, pointer Pointer) Node {
	if pointer.Present {
		n.Position = f.viewport.clamp(pointer.Position.Sub(n.DragOffset), f.params.Margin)
	}
	n.Velocity = Vec2{}
	return n
}

func (f *Field) stepFree(n Node, pointer Pointer) Node {
	p := f.params

	repelled := false
	if pointer.Present {
		toPointer := pointer.Position.Sub(n.Position)
		d := toPointer.Len()
		if d < p.RepulsionThreshold {
			repelled = true
			if d > zeroDistance {
				angle := math.Atan2(toPointer.Y, toPointer.X)
				force := (p.RepulsionThreshold - d) * p.RepulsionStrength
				n.Velocity.X -= math.Cos(angle) * force
				n.Velocity.Y -= math.Sin(angle) * force
			}
		}
	}

	if repelled {
		n.Opacity = math.Min(1, n.Opacity+p.OpacityStep)
	} else {
		n.Opacity = math.Max(p.MinOpacity, n.Opacity-p.OpacityDecay)
	}

	n.Position = n.Position.Add(n.Velocity)

	var hit int
	n.Position.X, hit = clampAxis(n.Position.X, p.Margin, f.viewport.Width)
	if hit != 0 {
		n.Velocity.X = bounce(n.Velocity.X, hit, p.BounceDamping)
	}
	n.Position.Y, hit = clampAxis(n.Position.Y, p.Margin, f.viewport.Height)
	if hit != 0 {
		n.Velocity.Y = bounce(n.Velocity.Y, hit, p.BounceDamping)
	}

	n.Velocity = n.Velocity.Scale(p.VelocityDamping)
	n.Velocity.X += symmetric(f.rng, p.Jitter)
	n.Velocity.Y += symmetric(f.rng, p.Jitter)
	return n
}

// bounce reflects a velocity component off the wall it hit, losing energy.
// side is -1 for the low wall and 1 for the high wall; the result always
// points back into the viewport.
func bounce(v float64, side int, damping float64) float64 {
	out := math.Abs(v) * damping
	if side > 0 {
		return -out
	}
	return out
}

// Edges returns a copy of the proximity graph of the committed nodes
func (f *Field) Edges() []Edge {
	return append([]Edge(nil), f.edges...)
}

// Nodes returns a copy of the committed nodes
func (f *Field) Nodes() []Node {
	return append([]Node(nil), f.nodes...)
}

// Snapshot returns the committed state as a frame
func (f *Field) Snapshot() Frame {
	return Frame{
		Tick:     f.tick,
		Viewport: f.viewport,
		Nodes:    f.Nodes(),
		Edges:    f.Edges(),
	}
}

// computeEdges links every unordered pair closer than the connection
// threshold. Opacity falls off linearly with distance and is capped.
func computeEdges(nodes []Node, p Params) []Edge {
	edges := make([]Edge, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			d := nodes[i].Position.Dist(nodes[j].Position)
			if d >= p.ConnectionThreshold {
				continue
			}
			edges = append(edges, Edge{
				A:       nodes[i].ID,
				B:       nodes[j].ID,
				Opacity: math.Min(p.MaxEdgeOpacity, (p.ConnectionThreshold-d)/p.ConnectionThreshold),
				Color:   edgeColor(nodes[i].Group, nodes[j].Group),
			})
		}
	}
	return edges
}
