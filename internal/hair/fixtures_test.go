package hair

import (
	"testing"

	"github.com/Faultbox/strandforge/pkg/math"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

// gridScalp returns an n x n grid of quads with the given cell size in the
// XY plane, facing +Z.
func gridScalp(t *testing.T, n int, cell float32) *mesh.Mesh {
	t.Helper()

	var verts []math.Vec3
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			verts = append(verts, math.Vec3{X: float32(i) * cell, Y: float32(j) * cell})
		}
	}

	var faces [][]int
	row := n + 1
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := j*row + i
			faces = append(faces, []int{a, a + 1, a + row + 1, a + row})
		}
	}

	m, err := mesh.New(verts, faces)
	if err != nil {
		t.Fatalf("mesh.New() error: %v", err)
	}
	return m
}

// centerSample returns the centroid sample of triangle tri.
func centerSample(tri int) mesh.Sample {
	return mesh.Sample{Tri: tri, Bary: [3]float32{1.0 / 3, 1.0 / 3, 1.0 / 3}}
}

// addStraightGuides adds one guide per sample pointing along +Z with
// numVerts vertices spaced one unit apart.
func addStraightGuides(t *testing.T, sys *System, samples []mesh.Sample, numVerts int) {
	t.Helper()

	sys.BeginFiberCurves(len(samples))
	for i, s := range samples {
		if err := sys.SetFiberCurve(i, s, numVerts, 0.5, 1); err != nil {
			t.Fatalf("SetFiberCurve(%d) error: %v", i, err)
		}
	}
	sys.EndFiberCurves()

	for i := range samples {
		start := sys.CurveData().Curves[i].VertStart
		for k := 0; k < numVerts; k++ {
			if err := sys.SetFiberVertex(start+k, 0, math.Vec3{Z: float32(k)}); err != nil {
				t.Fatalf("SetFiberVertex() error: %v", err)
			}
		}
	}
}

// newTestSystem returns a hair system on a 4x4 grid with follicles and
// guides on every fourth triangle.
func newTestSystem(t *testing.T) (*System, *mesh.Mesh) {
	t.Helper()

	scalp := gridScalp(t, 4, 1)
	sys := New()
	if n := sys.GenerateFollicles(scalp, 1, 200); n != 200 {
		t.Fatalf("GenerateFollicles() = %d, want 200", n)
	}

	var guides []mesh.Sample
	for tri := 0; tri < scalp.NumTriangles(); tri += 4 {
		guides = append(guides, centerSample(tri))
	}
	addStraightGuides(t, sys, guides, 4)
	return sys, scalp
}

func vecNear(a, b math.Vec3, eps float32) bool {
	return a.Sub(b).Length() <= eps
}
