package hair

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/strandforge/pkg/math"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

// ExportData is a set of export cache categories.
type ExportData uint8

// Export cache categories.
const (
	ExportFiberCurves ExportData = 1 << iota
	ExportFiberVertices
	ExportFollicleBinding
	ExportFiberRootPositions
	ExportFiberVertexCounts

	ExportAll = ExportFiberCurves | ExportFiberVertices | ExportFollicleBinding |
		ExportFiberRootPositions | ExportFiberVertexCounts
)

// exportDeps lists what each category requires.
var exportDeps = []struct {
	data     ExportData
	requires ExportData
}{
	{ExportFiberCurves, ExportFiberVertices | ExportFollicleBinding},
	{ExportFollicleBinding, ExportFiberRootPositions | ExportFiberVertexCounts},
}

// exportOrder is the order in which categories are computed.
var exportOrder = []ExportData{
	ExportFiberRootPositions,
	ExportFiberVertexCounts,
	ExportFollicleBinding,
	ExportFiberVertices,
	ExportFiberCurves,
}

var exportNames = map[ExportData]string{
	ExportFiberCurves:        "curves",
	ExportFiberVertices:      "vertices",
	ExportFollicleBinding:    "binding",
	ExportFiberRootPositions: "root_positions",
	ExportFiberVertexCounts:  "vertex_counts",
}

// WithDependencies returns d plus everything it transitively requires.
func (d ExportData) WithDependencies() ExportData {
	for {
		next := d
		for _, dep := range exportDeps {
			if next&dep.data != 0 {
				next |= dep.requires
			}
		}
		if next == d {
			return d
		}
		d = next
	}
}

// WithDependents returns d plus every category that transitively requires
// something in d.
func (d ExportData) WithDependents() ExportData {
	for {
		next := d
		for _, dep := range exportDeps {
			if next&dep.requires != 0 {
				next |= dep.data
			}
		}
		if next == d {
			return d
		}
		d = next
	}
}

// Has reports whether all of other is in d.
func (d ExportData) Has(other ExportData) bool {
	return d&other == other
}

// String returns the category names joined by '|'.
func (d ExportData) String() string {
	if d == 0 {
		return "none"
	}
	var names []string
	for _, cat := range exportOrder {
		if d&cat != 0 {
			names = append(names, exportNames[cat])
		}
	}
	return strings.Join(names, "|")
}

// ExportCache holds fiber data derived from a hair system for rendering and
// export. Each category is either fully computed or absent.
//
// The cache is not safe for concurrent use; Update and Invalidate must be
// serialized by the caller.
type ExportCache struct {
	// Subdivided guide curves; VertStart indexes Verts.
	Curves     []FiberCurve
	TotalVerts int

	// Subdivided guide vertices and their frames.
	Verts    []FiberVertex
	Tangents []math.Vec3
	Normals  []math.Vec3

	// Follicles of the hair system. Borrowed, not owned by the cache.
	Follicles []Follicle

	// Per-fiber vertex counts and root positions, one per follicle.
	FiberNumVerts      []int
	TotalFiberVerts    int
	FiberRootPositions []math.Vec3

	// OnCompute is called for every category right after it was computed.
	OnCompute func(ExportData)

	present  ExportData
	subdiv   int
	system   *System
	revision uint64
}

// NewExportCache creates an empty export cache.
func NewExportCache() *ExportCache {
	return &ExportCache{}
}

// Present returns the categories currently cached.
func (c *ExportCache) Present() ExportData {
	return c.present
}

// Subdivision returns the subdivision level of the cached curve data.
func (c *ExportCache) Subdivision() int {
	return c.subdiv
}

// Clear invalidates everything.
func (c *ExportCache) Clear() {
	c.Invalidate(ExportAll)
}

// Invalidate drops the given categories, everything they require and
// everything that requires them.
func (c *ExportCache) Invalidate(data ExportData) {
	data = data.WithDependencies().WithDependents()
	c.release(data)
}

func (c *ExportCache) release(data ExportData) {
	if data&ExportFiberCurves != 0 {
		c.Curves = nil
		c.TotalVerts = 0
	}
	if data&ExportFiberVertices != 0 {
		c.Verts = nil
		c.Tangents = nil
		c.Normals = nil
	}
	if data&ExportFollicleBinding != 0 {
		c.Follicles = nil
	}
	if data&ExportFiberRootPositions != 0 {
		c.FiberRootPositions = nil
	}
	if data&ExportFiberVertexCounts != 0 {
		c.FiberNumVerts = nil
		c.TotalFiberVerts = 0
	}
	c.present &^= data
}

// Update makes sure the requested categories and their dependencies are
// cached, computing only what is missing. Returns the categories that were
// computed. Modifications of the hair system since the last update, or a
// different system or subdivision level, invalidate the affected data first.
//
// On error every category of this update is left absent.
func (c *ExportCache) Update(sys *System, subdiv int, scalp *mesh.Mesh, requested ExportData) (ExportData, error) {
	if err := checkSubdivision(subdiv); err != nil {
		return 0, err
	}

	if c.system != sys || c.revision != sys.Revision() {
		c.Clear()
		c.system = sys
		c.revision = sys.Revision()
	}
	if subdiv != c.subdiv {
		// Binding and root positions do not depend on the level
		c.release(ExportFiberCurves | ExportFiberVertices | ExportFiberVertexCounts)
		c.subdiv = subdiv
	}

	data := requested.WithDependencies() &^ c.present
	if data == 0 {
		return 0, nil
	}

	if err := c.compute(sys, scalp, data); err != nil {
		c.release(data)
		return 0, err
	}

	log().Debug("export cache updated",
		zap.Stringer("requested", requested),
		zap.Stringer("computed", data))
	return data, nil
}

func (c *ExportCache) compute(sys *System, scalp *mesh.Mesh, data ExportData) error {
	if data&(ExportFollicleBinding|ExportFiberVertexCounts) != 0 {
		if _, err := sys.BindFollicles(scalp); err != nil {
			return fmt.Errorf("binding follicles: %w", err)
		}
	}

	for _, cat := range exportOrder {
		if data&cat == 0 {
			continue
		}

		var err error
		switch cat {
		case ExportFiberRootPositions:
			c.computeRootPositions(sys, scalp)
		case ExportFiberVertexCounts:
			err = c.computeVertexCounts(sys)
		case ExportFollicleBinding:
			c.Follicles = sys.Pattern().Follicles
		case ExportFiberVertices:
			err = c.computeVertices(sys, scalp)
		case ExportFiberCurves:
			c.computeCurves(sys)
		}
		if err != nil {
			return fmt.Errorf("computing %s: %w", cat, err)
		}

		c.present |= cat
		if c.OnCompute != nil {
			c.OnCompute(cat)
		}
	}
	return nil
}

func (c *ExportCache) computeRootPositions(sys *System, scalp *mesh.Mesh) {
	follicles := sys.Pattern().Follicles
	c.FiberRootPositions = make([]math.Vec3, len(follicles))

	failed := 0
	for i := range follicles {
		pos, _, _, ok := scalp.Evaluate(follicles[i].Sample)
		if !ok {
			failed++
			continue
		}
		c.FiberRootPositions[i] = pos
	}
	if failed > 0 {
		log().Warn("fiber roots without valid surface sample", zap.Int("count", failed))
	}
}

// computeVertexCounts sets each fiber's length to the weighted average of
// its parents' subdivided lengths.
func (c *ExportCache) computeVertexCounts(sys *System) error {
	follicles := sys.Pattern().Follicles
	curves := sys.CurveData().Curves

	c.FiberNumVerts = make([]int, len(follicles))
	c.TotalFiberVerts = 0

	for i := range follicles {
		f := &follicles[i]
		var length float32
		for k := 0; k < MaxParents; k++ {
			si := f.ParentIndex[k]
			sw := f.ParentWeight[k]
			if si == StrandIndexNone || sw == 0 {
				break
			}
			if int(si) >= len(curves) {
				return fmt.Errorf("follicle %d slot %d: %w: %d of %d", i, k, ErrParentIndex, si, len(curves))
			}
			length += float32(SubdivLength(curves[si].NumVerts, c.subdiv)) * sw
		}

		// Rounded number of vertices
		n := int(length + 0.5)
		c.FiberNumVerts[i] = n
		c.TotalFiberVerts += n
	}
	return nil
}

// subdivLayout returns subdivided copies of the guide curves with vertex
// offsets into the subdivided vertex array.
func (c *ExportCache) subdivLayout(sys *System) ([]FiberCurve, int) {
	orig := sys.CurveData().Curves
	curves := make([]FiberCurve, len(orig))

	total := 0
	for i := range orig {
		curves[i] = orig[i]
		curves[i].NumVerts = SubdivLength(orig[i].NumVerts, c.subdiv)
		curves[i].VertStart = total
		total += curves[i].NumVerts
	}
	return curves, total
}

func (c *ExportCache) computeVertices(sys *System, scalp *mesh.Mesh) error {
	data := sys.CurveData()
	layout, total := c.subdivLayout(sys)

	c.Verts = make([]FiberVertex, total)
	c.Tangents = make([]math.Vec3, total)
	c.Normals = make([]math.Vec3, total)

	for i := range layout {
		curve := &layout[i]
		src := &data.Curves[i]
		if src.NumVerts < 1 {
			return fmt.Errorf("curve %d: %w", i, ErrCurveTooShort)
		}
		if src.VertStart < 0 || src.VertStart+src.NumVerts > len(data.Verts) {
			return fmt.Errorf("curve %d: %w", i, ErrVertexCountMismatch)
		}

		end := curve.VertStart + curve.NumVerts
		verts := c.Verts[curve.VertStart:end]
		tangents := c.Tangents[curve.VertStart:end]
		normals := c.Normals[curve.VertStart:end]

		// Root frame: fibers leave the scalp along the surface normal
		rootPos, surfNormal, surfTangent, ok := scalp.Evaluate(curve.Sample)
		if !ok {
			rootPos = math.Vec3{}
			surfNormal = math.Vec3{X: 0, Y: 0, Z: 1}
			surfTangent = math.Vec3{X: 1, Y: 0, Z: 0}
		}

		if _, err := SubdivideCurve(data.CurveVerts(i), c.subdiv, rootPos, verts); err != nil {
			return fmt.Errorf("curve %d: %w", i, err)
		}

		if curve.NumVerts < 2 {
			tangents[0] = surfNormal
			normals[0] = surfTangent
			continue
		}
		if err := CalcCurveFrames(verts, surfNormal, surfTangent, tangents, normals); err != nil {
			return fmt.Errorf("curve %d: %w", i, err)
		}
	}
	return nil
}

func (c *ExportCache) computeCurves(sys *System) {
	c.Curves, c.TotalVerts = c.subdivLayout(sys)
}
