package mesh

import "github.com/Faultbox/strandforge/pkg/math"

// Sample is a point on the mesh surface: a triangle and barycentric
// weights of its three corners.
type Sample struct {
	Tri  int
	Bary [3]float32
}

// Evaluate returns the position, normal and tangent of a surface sample.
// ok is false if the sample does not address a valid triangle.
func (m *Mesh) Evaluate(s Sample) (pos, normal, tangent math.Vec3, ok bool) {
	if s.Tri < 0 || s.Tri >= len(m.tris) {
		return pos, normal, tangent, false
	}

	tri := m.tris[s.Tri]
	v0 := m.Vertices[tri.V[0]]
	v1 := m.Vertices[tri.V[1]]
	v2 := m.Vertices[tri.V[2]]

	pos = math.InterpVec3(v0, v1, v2, s.Bary)

	if len(m.Normals) != 0 {
		normal = math.InterpVec3(m.Normals[tri.V[0]], m.Normals[tri.V[1]], m.Normals[tri.V[2]], s.Bary).Normalize()
	} else {
		normal = math.TriangleNormal(v0, v1, v2)
	}
	if normal.IsZero() {
		return pos, normal, tangent, false
	}

	// First edge projected onto the tangent plane
	edge := v1.Sub(v0)
	tangent = edge.Sub(normal.Scale(edge.Dot(normal))).Normalize()
	if tangent.IsZero() {
		tangent = normal.Ortho()
	}

	return pos, normal, tangent, true
}
