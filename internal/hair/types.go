// Package hair implements hair fiber generation: follicle distribution on a
// scalp mesh, binding of follicles to guide strands, guide curve subdivision,
// frame transport and the dependency tracked export cache consumed by
// renderers and exporters.
package hair

import (
	gomath "math"

	"github.com/Faultbox/strandforge/pkg/math"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

// StrandIndexNone marks an unused parent slot of a follicle.
const StrandIndexNone = uint32(gomath.MaxUint32)

// MaxParents is the number of parent slots per follicle.
const MaxParents = 4

// Follicle is the root of one output fiber on the scalp, bound to up to
// MaxParents guide strands. Parents are sorted by descending weight.
type Follicle struct {
	Sample       mesh.Sample
	ParentIndex  [MaxParents]uint32
	ParentWeight [MaxParents]float32
}

// ClearParents marks every parent slot unused.
func (f *Follicle) ClearParents() {
	for k := 0; k < MaxParents; k++ {
		f.ParentIndex[k] = StrandIndexNone
		f.ParentWeight[k] = 0
	}
}

// IsBound reports whether the follicle has at least one parent strand.
func (f *Follicle) IsBound() bool {
	return f.ParentIndex[0] != StrandIndexNone && f.ParentWeight[0] > 0
}

// Pattern is the set of follicles of a hair system.
type Pattern struct {
	Follicles []Follicle
}

// Clone returns a deep copy.
func (p *Pattern) Clone() *Pattern {
	return &Pattern{Follicles: append([]Follicle(nil), p.Follicles...)}
}

// FiberCurve is a guide curve. Its vertices are
// CurveData.Verts[VertStart : VertStart+NumVerts].
type FiberCurve struct {
	Sample         mesh.Sample // Root position on the scalp
	NumVerts       int
	VertStart      int
	TaperLength    float32
	TaperThickness float32
}

// FiberVertex is one guide curve vertex in curve local space.
type FiberVertex struct {
	Co   math.Vec3
	Flag int32
}

// CurveData holds guide curves and the flat vertex array they index.
type CurveData struct {
	Curves []FiberCurve
	Verts  []FiberVertex
}

// Clone returns a deep copy.
func (d *CurveData) Clone() *CurveData {
	return &CurveData{
		Curves: append([]FiberCurve(nil), d.Curves...),
		Verts:  append([]FiberVertex(nil), d.Verts...),
	}
}

// CurveVerts returns the vertices of curve i.
func (d *CurveData) CurveVerts(i int) []FiberVertex {
	c := &d.Curves[i]
	return d.Verts[c.VertStart : c.VertStart+c.NumVerts]
}

// calcVertStart assigns vertex offsets as a prefix sum over curve lengths and
// returns the total vertex count.
func (d *CurveData) calcVertStart() int {
	start := 0
	for i := range d.Curves {
		d.Curves[i].VertStart = start
		start += d.Curves[i].NumVerts
	}
	return start
}
