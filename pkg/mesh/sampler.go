package mesh

import (
	"math/bits"
	"math/rand/v2"
	"sort"
)

// Generator produces surface samples on a bound mesh.
type Generator interface {
	// Bind attaches the generator to a mesh. It must be called before Generate.
	Bind(m *Mesh)
	// Generate returns up to count samples.
	Generate(count int) []Sample
}

// GenerateBatch draws count samples from a bound generator.
func GenerateBatch(gen Generator, count int) []Sample {
	if count <= 0 {
		return nil
	}
	return gen.Generate(count)
}

// hashInt2D mixes two integers into a well distributed 32-bit hash
// (Jenkins lookup3 final mix).
func hashInt2D(kx, ky uint32) uint32 {
	a := uint32(0xdeadbeef + (2 << 2) + 13)
	b, c := a, a
	a += kx
	b += ky

	c ^= b
	c -= bits.RotateLeft32(b, 14)
	a ^= c
	a -= bits.RotateLeft32(c, 11)
	b ^= a
	b -= bits.RotateLeft32(a, 25)
	c ^= b
	c -= bits.RotateLeft32(b, 16)
	a ^= c
	a -= bits.RotateLeft32(c, 4)
	b ^= a
	b -= bits.RotateLeft32(a, 14)
	c ^= b
	c -= bits.RotateLeft32(b, 24)
	return c
}

// triangleRand returns the random stream of one triangle.
// Streams depend only on the seed and the triangle index.
func triangleRand(seed uint32, tri int) *rand.Rand {
	h := hashInt2D(uint32(tri), seed)
	return rand.New(rand.NewPCG(uint64(h), uint64(seed)))
}

// randomBarycentric returns weights uniformly distributed over a triangle.
func randomBarycentric(r *rand.Rand) [3]float32 {
	u := r.Float32()
	v := r.Float32()
	if u+v > 1 {
		u = 1 - u
		v = 1 - v
	}
	return [3]float32{1 - u - v, u, v}
}

// faceWeight returns the density multiplier of face f.
func faceWeight(weights []float32, f int) float32 {
	if f < len(weights) {
		if w := weights[f]; w > 0 {
			return w
		}
		return 0
	}
	return 1
}

// ScatterDensity places samples with the given areal density. Each triangle
// receives floor(area*density) samples plus one more with probability equal
// to the fractional part. faceWeights optionally scales the density per
// polygon face; missing entries count as 1. A non-positive density gives no
// samples.
func ScatterDensity(m *Mesh, density float32, seed uint32, faceWeights []float32) []Sample {
	if density <= 0 {
		return nil
	}

	var samples []Sample
	for i, tri := range m.tris {
		r := triangleRand(seed, i)

		amount := m.areas[i] * density * faceWeight(faceWeights, tri.Face)
		n := int(amount)
		if amount-float32(n) > r.Float32() {
			n++
		}

		for k := 0; k < n; k++ {
			samples = append(samples, Sample{Tri: i, Bary: randomBarycentric(r)})
		}
	}
	return samples
}

// ScatterGenerator distributes samples by density scatter and then trims or
// tops up the result so that exactly count samples are returned.
type ScatterGenerator struct {
	Seed        uint32
	FaceWeights []float32 // Optional per-face density multipliers

	mesh *Mesh
}

// NewScatterGenerator creates a generator with the given seed.
func NewScatterGenerator(seed uint32, faceWeights []float32) *ScatterGenerator {
	return &ScatterGenerator{Seed: seed, FaceWeights: faceWeights}
}

// Bind attaches the generator to a mesh.
func (g *ScatterGenerator) Bind(m *Mesh) {
	g.mesh = m
}

// weightedArea returns the cumulative weighted triangle areas.
func (g *ScatterGenerator) weightedArea() []float32 {
	cdf := make([]float32, len(g.mesh.tris))
	var total float32
	for i, tri := range g.mesh.tris {
		total += g.mesh.areas[i] * faceWeight(g.FaceWeights, tri.Face)
		cdf[i] = total
	}
	return cdf
}

// Generate returns exactly count samples, or none if the mesh has no
// weighted area.
func (g *ScatterGenerator) Generate(count int) []Sample {
	if g.mesh == nil || count <= 0 {
		return nil
	}

	cdf := g.weightedArea()
	if len(cdf) == 0 || cdf[len(cdf)-1] <= 0 {
		return nil
	}
	total := cdf[len(cdf)-1]

	samples := ScatterDensity(g.mesh, float32(count)/total, g.Seed, g.FaceWeights)

	// Separate stream from the per-triangle ones
	r := rand.New(rand.NewPCG(uint64(g.Seed), 0x9e3779b97f4a7c15))

	if len(samples) > count {
		// Partial shuffle picks a uniform subset, then restore triangle order
		idx := make([]int, len(samples))
		for i := range idx {
			idx[i] = i
		}
		for i := 0; i < count; i++ {
			j := i + r.IntN(len(idx)-i)
			idx[i], idx[j] = idx[j], idx[i]
		}
		keep := idx[:count]
		sort.Ints(keep)

		trimmed := make([]Sample, count)
		for i, k := range keep {
			trimmed[i] = samples[k]
		}
		return trimmed
	}

	for len(samples) < count {
		x := r.Float32() * total
		tri := sort.Search(len(cdf), func(i int) bool { return cdf[i] > x })
		if tri >= len(cdf) {
			tri = len(cdf) - 1
		}
		samples = append(samples, Sample{Tri: tri, Bary: randomBarycentric(r)})
	}
	return samples
}
