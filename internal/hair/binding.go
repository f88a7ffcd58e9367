package hair

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/strandforge/pkg/kdtree"
	"github.com/Faultbox/strandforge/pkg/math"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

// weightEpsilon is the tolerance of the weight sum around 1.
const weightEpsilon = 1e-2

// BindFollicles assigns every follicle its nearest guide strands and blend
// weights. It only does work after follicles or curves changed; otherwise
// it is a no-op.
//
// Returns false when there are no guide strands, in which case every
// follicle is left unbound. An error means a follicle violates the weight
// invariants; the binding then stays dirty.
func (s *System) BindFollicles(scalp *mesh.Mesh) (bool, error) {
	numStrands := s.NumCurves()
	if !s.bindingDirty {
		return numStrands > 0, nil
	}

	pattern := s.pattern.Write()

	if numStrands == 0 {
		for i := range pattern.Follicles {
			pattern.Follicles[i].ClearParents()
		}
		s.bindingDirty = false
		return false, nil
	}

	curves := s.curves.Read().Curves
	strandLoc := make([]math.Vec3, numStrands)
	tree := kdtree.New(numStrands)
	for i := range curves {
		loc, _, _, ok := scalp.Evaluate(curves[i].Sample)
		if !ok {
			loc = math.Vec3{}
		}
		strandLoc[i] = loc
		tree.Insert(i, loc)
	}
	tree.Balance()

	unbound := 0
	for i := range pattern.Follicles {
		f := &pattern.Follicles[i]
		loc, _, _, ok := scalp.Evaluate(f.Sample)
		if !ok {
			f.ClearParents()
			unbound++
			continue
		}

		bindFollicle(f, loc, tree, strandLoc)
		if err := verifyWeights(f); err != nil {
			return true, fmt.Errorf("follicle %d: %w", i, err)
		}
	}

	if unbound > 0 {
		log().Warn("follicles without valid surface sample", zap.Int("unbound", unbound))
	}
	log().Debug("bound follicles",
		zap.Int("follicles", len(pattern.Follicles)),
		zap.Int("strands", numStrands))

	s.bindingDirty = false
	return true, nil
}

// bindFollicle interpolates between the three closest strands. Only a
// triangle is searched although a follicle has four slots.
func bindFollicle(f *Follicle, loc math.Vec3, tree *kdtree.Tree, strandLoc []math.Vec3) {
	nearest := tree.FindNearestN(loc, 3)

	f.ClearParents()
	var sloc [3]math.Vec3
	for k, n := range nearest {
		f.ParentIndex[k] = uint32(n.Index)
		sloc[k] = strandLoc[n.Index]
	}

	found := len(nearest)
	if found == 3 {
		closest := math.ClosestPointOnTriangle(loc, sloc[0], sloc[1], sloc[2])
		w, ok := math.TriangleWeights(closest, sloc[0], sloc[1], sloc[2])
		if ok {
			// Float precision can give slightly negative weights
			for k := 0; k < 3; k++ {
				f.ParentWeight[k] = math.Clamp(w[k], 0, 1)
			}
		} else {
			// Collinear roots: interpolate along the two closest
			f.ParentIndex[2] = StrandIndexNone
			found = 2
		}
	}
	if found == 2 {
		t := math.LinePointFactor(loc, sloc[0], sloc[1])
		f.ParentWeight[1] = math.Clamp(t, 0, 1)
		f.ParentWeight[0] = math.Clamp(1-t, 0, 1)
	}
	if found == 1 {
		f.ParentWeight[0] = 1
	}

	sortWeights(f)

	// Slots without weight do not reference a strand
	for k := 0; k < MaxParents; k++ {
		if f.ParentWeight[k] == 0 {
			f.ParentIndex[k] = StrandIndexNone
		}
	}
}

// sortWeights orders parent slots by descending weight.
func sortWeights(f *Follicle) {
	idx := &f.ParentIndex
	w := &f.ParentWeight

	for k := 0; k < MaxParents-1; k++ {
		maxi := k
		maxw := w[k]
		for i := k + 1; i < MaxParents; i++ {
			if w[i] > maxw {
				maxi = i
				maxw = w[i]
			}
		}
		if maxi != k {
			idx[k], idx[maxi] = idx[maxi], idx[k]
			w[k], w[maxi] = w[maxi], w[k]
		}
	}
}

// verifyWeights checks that weights are non-negative, sum to one within
// weightEpsilon and are sorted. Unbound follicles pass.
func verifyWeights(f *Follicle) error {
	w := f.ParentWeight
	if !f.IsBound() {
		return nil
	}

	var sum float32
	for k := 0; k < MaxParents; k++ {
		if w[k] < 0 {
			return fmt.Errorf("%w: negative weight %v in slot %d", ErrWeightInvariant, w[k], k)
		}
		sum += w[k]
	}
	if sum <= 1-weightEpsilon || sum >= 1+weightEpsilon {
		return fmt.Errorf("%w: weights sum to %v", ErrWeightInvariant, sum)
	}
	if w[0] < w[1] || w[1] < w[2] || w[2] < w[3] {
		return fmt.Errorf("%w: weights not sorted %v", ErrWeightInvariant, w)
	}
	return nil
}
