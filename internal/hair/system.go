package hair

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/strandforge/internal/logger"
	"github.com/Faultbox/strandforge/pkg/math"
	"github.com/Faultbox/strandforge/pkg/mesh"
	"github.com/Faultbox/strandforge/pkg/shared"
)

// Hair system errors.
var (
	ErrCurveIndex          = errors.New("curve index out of range")
	ErrVertexIndex         = errors.New("vertex index out of range")
	ErrCurveTooShort       = errors.New("curve has too few vertices")
	ErrInvalidSubdivision  = errors.New("invalid subdivision level")
	ErrVertexCountMismatch = errors.New("curve vertex counts exceed vertex array")
	ErrWeightInvariant     = errors.New("follicle weights violate invariant")
	ErrParentIndex         = errors.New("follicle parent index out of range")
)

func log() *zap.Logger {
	return logger.Named("hair")
}

// System owns a follicle pattern and guide curve data. Copies share both
// containers until one side modifies them.
//
// A System is not safe for concurrent mutation.
type System struct {
	pattern shared.Handle[*Pattern]
	curves  shared.Handle[*CurveData]

	bindingDirty bool
	revision     uint64
}

// New creates an empty hair system.
func New() *System {
	return &System{
		pattern: shared.NewHandle(&Pattern{}),
		curves:  shared.NewHandle(&CurveData{}),
	}
}

// Copy returns an independent hair system. The data is copied lazily on the
// first modification of either system.
func (s *System) Copy() *System {
	return &System{
		pattern:      s.pattern.Share(),
		curves:       s.curves.Share(),
		bindingDirty: s.bindingDirty,
		revision:     s.revision,
	}
}

// Release drops the system's data. The system is empty afterwards.
func (s *System) Release() {
	s.pattern.Replace(&Pattern{})
	s.curves.Replace(&CurveData{})
	s.bindingDirty = false
	s.changed()
}

// Pattern returns the follicle pattern for reading.
func (s *System) Pattern() *Pattern {
	return s.pattern.Read()
}

// CurveData returns the guide curves for reading.
func (s *System) CurveData() *CurveData {
	return s.curves.Read()
}

// NumFollicles returns the follicle count.
func (s *System) NumFollicles() int {
	return len(s.pattern.Read().Follicles)
}

// NumCurves returns the guide curve count.
func (s *System) NumCurves() int {
	return len(s.curves.Read().Curves)
}

// NumVerts returns the guide vertex count.
func (s *System) NumVerts() int {
	return len(s.curves.Read().Verts)
}

// BindingDirty reports whether follicles must be bound again.
func (s *System) BindingDirty() bool {
	return s.bindingDirty
}

// Revision increases with every modification of follicles or guide curves.
func (s *System) Revision() uint64 {
	return s.revision
}

func (s *System) changed() {
	s.revision++
}

func (s *System) invalidateBinding() {
	s.bindingDirty = true
	s.changed()
}

// BeginFiberCurves resizes the guide curve array to n curves. Existing
// curves within the new size are kept.
func (s *System) BeginFiberCurves(n int) {
	if n < 0 {
		n = 0
	}
	if n == len(s.curves.Read().Curves) {
		return
	}

	data := s.curves.Write()
	if n < len(data.Curves) {
		data.Curves = data.Curves[:n]
	} else {
		data.Curves = append(data.Curves, make([]FiberCurve, n-len(data.Curves))...)
	}
	s.invalidateBinding()
}

// SetFiberCurve defines guide curve i.
func (s *System) SetFiberCurve(i int, sample mesh.Sample, numVerts int, taperLength, taperThickness float32) error {
	if i < 0 || i >= s.NumCurves() {
		return fmt.Errorf("%w: %d of %d", ErrCurveIndex, i, s.NumCurves())
	}
	if numVerts < 1 {
		return fmt.Errorf("curve %d: %w: %d", i, ErrCurveTooShort, numVerts)
	}

	data := s.curves.Write()
	c := &data.Curves[i]
	c.Sample = sample
	c.NumVerts = numVerts
	c.TaperLength = taperLength
	c.TaperThickness = taperThickness

	s.invalidateBinding()
	return nil
}

// EndFiberCurves computes vertex offsets and resizes the vertex array to
// the total curve length. Returns the total vertex count.
func (s *System) EndFiberCurves() int {
	data := s.curves.Write()
	total := data.calcVertStart()

	if total < len(data.Verts) {
		data.Verts = data.Verts[:total]
	} else if total > len(data.Verts) {
		data.Verts = append(data.Verts, make([]FiberVertex, total-len(data.Verts))...)
	}
	s.changed()
	return total
}

// SetFiberVertex sets guide vertex i.
func (s *System) SetFiberVertex(i int, flag int32, co math.Vec3) error {
	if i < 0 || i >= s.NumVerts() {
		return fmt.Errorf("%w: %d of %d", ErrVertexIndex, i, s.NumVerts())
	}

	data := s.curves.Write()
	data.Verts[i] = FiberVertex{Co: co, Flag: flag}
	s.changed()
	return nil
}

// SetFiberCurves replaces all guide curves with a copy of data. Vertex
// offsets are recomputed from the curve lengths.
func (s *System) SetFiberCurves(data *CurveData) error {
	c := data.Clone()
	if total := c.calcVertStart(); total > len(c.Verts) {
		return fmt.Errorf("%w: curves need %d, have %d", ErrVertexCountMismatch, total, len(c.Verts))
	}

	s.curves.Replace(c)
	s.invalidateBinding()
	return nil
}

// ClearFiberCurves removes all guide curves. Follicles become unbound on
// the next binding.
func (s *System) ClearFiberCurves() {
	s.curves.Replace(&CurveData{})
	s.invalidateBinding()
}
