package hair

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/strandforge/pkg/mesh"
)

// Densest circle packing without the pi factor: 1 / (2 * sqrt(3)).
const maxPackingFactor = 0.288675135

// CalcSurfaceArea returns the total area of a scalp mesh.
func CalcSurfaceArea(scalp *mesh.Mesh) float32 {
	return scalp.Area()
}

// CalcDensityFromCount returns the areal density of count samples.
func CalcDensityFromCount(area float32, count int) float32 {
	if area > 0 {
		return float32(count) / area
	}
	return 0
}

// CalcMaxCountFromDensity returns the sample count for a density.
func CalcMaxCountFromDensity(area, density float32) int {
	return int(density * area)
}

// CalcDensityFromMinDistance returns the density of the tightest packing
// with the given minimum sample distance.
func CalcDensityFromMinDistance(minDistance float32) float32 {
	if minDistance > 0 {
		return maxPackingFactor / (minDistance * minDistance)
	}
	return 0
}

// CalcMinDistanceFromDensity is the inverse of CalcDensityFromMinDistance.
func CalcMinDistanceFromDensity(density float32) float32 {
	if density > 0 {
		return float32(gomath.Sqrt(float64(maxPackingFactor / density)))
	}
	return 0
}

// GenerateFollicles distributes count follicles uniformly over the scalp.
// Returns the number of follicles created.
func (s *System) GenerateFollicles(scalp *mesh.Mesh, seed uint32, count int) int {
	return s.GenerateFolliclesEx(scalp, seed, count, nil)
}

// GenerateFolliclesEx distributes count follicles with optional per-face
// density weights. The result has exactly count follicles unless the scalp
// has no weighted area, in which case it is empty.
func (s *System) GenerateFolliclesEx(scalp *mesh.Mesh, seed uint32, count int, faceWeights []float32) int {
	gen := mesh.NewScatterGenerator(seed, faceWeights)
	gen.Bind(scalp)
	samples := mesh.GenerateBatch(gen, count)

	s.setFollicles(samples)

	area := CalcSurfaceArea(scalp)
	log().Debug("generated follicles",
		zap.Int("requested", count),
		zap.Int("count", len(samples)),
		zap.Float32("area", area),
		zap.Float32("min_distance", CalcMinDistanceFromDensity(CalcDensityFromCount(area, count))))
	return len(samples)
}

// GenerateFolliclesDensity scatters follicles with an expected areal density.
// The count varies with the stochastic rounding per triangle. A non-positive
// density clears all follicles.
func (s *System) GenerateFolliclesDensity(scalp *mesh.Mesh, seed uint32, density float32, faceWeights []float32) int {
	samples := mesh.ScatterDensity(scalp, density, seed, faceWeights)
	s.setFollicles(samples)

	log().Debug("scattered follicles",
		zap.Float32("density", density),
		zap.Int("count", len(samples)))
	return len(samples)
}

func (s *System) setFollicles(samples []mesh.Sample) {
	follicles := make([]Follicle, len(samples))
	for i, smp := range samples {
		follicles[i].Sample = smp
		follicles[i].ClearParents()
	}

	s.pattern.Replace(&Pattern{Follicles: follicles})
	s.invalidateBinding()
}
