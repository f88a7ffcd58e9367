// Package mesh provides the read-only scalp surface consumed by the hair core:
// polygon topology, per-face area, surface samples and their evaluation.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/strandforge/pkg/math"
)

// Mesh errors.
var (
	ErrFaceTooSmall = errors.New("face has fewer than 3 vertices")
	ErrVertexIndex  = errors.New("face vertex index out of range")
	ErrNormalCount  = errors.New("normal count does not match vertex count")
)

// Triangle is one triangle of the fan triangulation of a polygon face.
type Triangle struct {
	V    [3]int // Vertex indices
	Face int    // Source polygon
}

// Mesh is a polygon surface. Faces are triangulated as fans on construction;
// samples address triangles, not polygons.
type Mesh struct {
	Vertices []math.Vec3
	Normals  []math.Vec3 // Optional per-vertex normals, empty for flat shading
	Faces    [][]int

	tris  []Triangle
	areas []float32 // Per triangle
}

// New builds a mesh from vertex positions and polygon faces.
func New(vertices []math.Vec3, faces [][]int) (*Mesh, error) {
	return NewWithNormals(vertices, nil, faces)
}

// NewWithNormals builds a mesh with smooth per-vertex normals.
func NewWithNormals(vertices, normals []math.Vec3, faces [][]int) (*Mesh, error) {
	if len(normals) != 0 && len(normals) != len(vertices) {
		return nil, fmt.Errorf("%w: %d normals, %d vertices", ErrNormalCount, len(normals), len(vertices))
	}

	m := &Mesh{
		Vertices: vertices,
		Normals:  normals,
		Faces:    faces,
	}

	for fi, face := range faces {
		if len(face) < 3 {
			return nil, fmt.Errorf("face %d: %w", fi, ErrFaceTooSmall)
		}
		for _, vi := range face {
			if vi < 0 || vi >= len(vertices) {
				return nil, fmt.Errorf("face %d: %w: %d", fi, ErrVertexIndex, vi)
			}
		}
		for k := 1; k < len(face)-1; k++ {
			tri := Triangle{V: [3]int{face[0], face[k], face[k+1]}, Face: fi}
			m.tris = append(m.tris, tri)
			m.areas = append(m.areas, math.TriangleArea(vertices[tri.V[0]], vertices[tri.V[1]], vertices[tri.V[2]]))
		}
	}

	return m, nil
}

// Triangles returns the triangulation. The slice must not be modified.
func (m *Mesh) Triangles() []Triangle {
	return m.tris
}

// NumTriangles returns the triangle count.
func (m *Mesh) NumTriangles() int {
	return len(m.tris)
}

// TriangleArea returns the area of triangle i.
func (m *Mesh) TriangleArea(i int) float32 {
	return m.areas[i]
}

// FaceArea returns the area of polygon face f.
func (m *Mesh) FaceArea(f int) float32 {
	var area float32
	for i, tri := range m.tris {
		if tri.Face == f {
			area += m.areas[i]
		}
	}
	return area
}

// Area returns the total surface area.
func (m *Mesh) Area() float32 {
	var area float32
	for _, a := range m.areas {
		area += a
	}
	return area
}

// Translated returns a copy of the mesh moved by offset.
// Topology is shared with the receiver.
func (m *Mesh) Translated(offset math.Vec3) *Mesh {
	verts := make([]math.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		verts[i] = v.Add(offset)
	}
	return &Mesh{
		Vertices: verts,
		Normals:  m.Normals,
		Faces:    m.Faces,
		tris:     m.tris,
		areas:    m.areas,
	}
}
