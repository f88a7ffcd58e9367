package hair

import (
	"fmt"

	"github.com/Faultbox/strandforge/pkg/math"
)

// transportFrame advances the frame along the segment co1 -> co2 by the
// minimal rotation between the previous and the new tangent.
func transportFrame(co1, co2 math.Vec3, prevTang, prevNor *math.Vec3) (tang, nor math.Vec3) {
	tang = co2.Sub(co1).Normalize()
	if tang.IsZero() {
		// Coincident points keep the previous frame
		return *prevTang, *prevNor
	}

	rot := math.QuatBetween(*prevTang, tang)
	nor = rot.Rotate(*prevNor)

	*prevTang = tang
	*prevNor = nor
	return tang, nor
}

// CalcCurveFrames computes per-vertex tangents and normals of a curve by
// parallel transport. rootTangent and rootNormal form the frame at the
// scalp, typically the surface normal and surface tangent. tangents and
// normals must hold len(verts) entries.
func CalcCurveFrames(verts []FiberVertex, rootTangent, rootNormal math.Vec3, tangents, normals []math.Vec3) error {
	n := len(verts)
	if n < 2 {
		return fmt.Errorf("%w: %d", ErrCurveTooShort, n)
	}
	if len(tangents) < n || len(normals) < n {
		return fmt.Errorf("%w: frame buffers hold %d/%d, need %d", ErrVertexIndex, len(tangents), len(normals), n)
	}

	prevTang := rootTangent
	prevNor := rootNormal

	tangents[0], normals[0] = transportFrame(verts[0].Co, verts[1].Co, &prevTang, &prevNor)
	for i := 1; i < n-1; i++ {
		tangents[i], normals[i] = transportFrame(verts[i-1].Co, verts[i+1].Co, &prevTang, &prevNor)
	}
	tangents[n-1], normals[n-1] = transportFrame(verts[n-2].Co, verts[n-1].Co, &prevTang, &prevNor)

	return nil
}
