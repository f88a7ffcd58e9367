package hair

import (
	"fmt"

	"github.com/Faultbox/strandforge/pkg/math"
)

// MaxSubdivision bounds the subdivision level.
const MaxSubdivision = 12

// SubdivLength returns the vertex count of a curve after subdivision.
func SubdivLength(numVerts, subdiv int) int {
	return ((numVerts - 1) << subdiv) + 1
}

// SubdivTotalVerts returns the total vertex count of numStrands curves with
// numVerts vertices in total after subdivision.
func SubdivTotalVerts(numStrands, numVerts, subdiv int) int {
	return ((numVerts - numStrands) << subdiv) + numStrands
}

func checkSubdivision(subdiv int) error {
	if subdiv < 0 || subdiv > MaxSubdivision {
		return fmt.Errorf("%w: %d (allowed 0..%d)", ErrInvalidSubdivision, subdiv, MaxSubdivision)
	}
	return nil
}

// SubdivideCurve subdivides the control points in verts subdiv times and
// writes SubdivLength(len(verts), subdiv) vertices into dst. All points are
// first moved so that the curve starts at root.
//
// Every level inserts edge midpoints, then moves each interior original
// point to the average of its two new neighbours.
func SubdivideCurve(verts []FiberVertex, subdiv int, root math.Vec3, dst []FiberVertex) (int, error) {
	if len(verts) < 1 {
		return 0, fmt.Errorf("%w: %d", ErrCurveTooShort, len(verts))
	}
	if err := checkSubdivision(subdiv); err != nil {
		return 0, err
	}
	numVerts := SubdivLength(len(verts), subdiv)
	if len(dst) < numVerts {
		return 0, fmt.Errorf("%w: destination holds %d, need %d", ErrVertexIndex, len(dst), numVerts)
	}

	// Spread control points to their final slots
	step := 1 << subdiv
	offset := root.Sub(verts[0].Co)
	for i, v := range verts {
		dst[i*step] = FiberVertex{Co: v.Co.Add(offset)}
	}

	for d := 0; d < subdiv; d++ {
		numEdges := (len(verts) - 1) << d
		hstep := 1 << (subdiv - d - 1)
		step := 1 << (subdiv - d)

		// Edge points
		for k, index := 0, 0; k < numEdges; k, index = k+1, index+step {
			dst[index+hstep].Co = dst[index].Co.Midpoint(dst[index+step].Co)
		}

		// Original points
		for k, index := 1, step; k < numEdges; k, index = k+1, index+step {
			dst[index].Co = dst[index-hstep].Co.Midpoint(dst[index+hstep].Co)
		}
	}

	return numVerts, nil
}
