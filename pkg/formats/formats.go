// Package formats reads and writes the YAML files of the hair tools: scene
// files with scalp geometry, guide curves and scalp motion, and bake
// summaries.
package formats

import (
	"github.com/Faultbox/strandforge/pkg/math"
)

// Vec is a point or direction stored as a YAML sequence.
type Vec [3]float32

// Vec3 converts v to a math vector.
func (v Vec) Vec3() math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// FromVec3 converts a math vector to its stored form.
func FromVec3(v math.Vec3) Vec {
	return Vec{v.X, v.Y, v.Z}
}

func toVec3s(vs []Vec) []math.Vec3 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]math.Vec3, len(vs))
	for i, v := range vs {
		out[i] = v.Vec3()
	}
	return out
}
