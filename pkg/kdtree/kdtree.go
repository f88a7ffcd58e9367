// Package kdtree provides a static 3D k-d tree for nearest neighbour queries.
package kdtree

import (
	gomath "math"
	"sort"

	"github.com/Faultbox/strandforge/pkg/math"
)

const none = -1

type node struct {
	point       math.Vec3
	index       int
	left, right int
	axis        int
}

// Nearest is one query result.
type Nearest struct {
	Index int       // Caller supplied index of the point
	Dist  float32   // Euclidean distance to the query point
	Point math.Vec3 // Stored point
}

// Tree is a k-d tree over 3D points. Points are added with Insert and the
// tree must be balanced before it can be queried. A balanced tree is safe
// for concurrent queries.
type Tree struct {
	nodes    []node
	root     int
	balanced bool
}

// New creates an empty tree with room for capacity points.
func New(capacity int) *Tree {
	return &Tree{
		nodes: make([]node, 0, capacity),
		root:  none,
	}
}

// Build creates a balanced tree where point i has index i.
func Build(points []math.Vec3) *Tree {
	t := New(len(points))
	for i, p := range points {
		t.Insert(i, p)
	}
	t.Balance()
	return t
}

// Insert adds a point. The tree must be balanced again before querying.
func (t *Tree) Insert(index int, p math.Vec3) {
	t.nodes = append(t.nodes, node{point: p, index: index, left: none, right: none})
	t.balanced = false
}

// Len returns the number of points.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Balance arranges the inserted points into a balanced tree.
func (t *Tree) Balance() {
	t.root = t.balance(0, len(t.nodes))
	t.balanced = true
}

// balance builds the subtree over nodes[lo:hi] and returns its root.
func (t *Tree) balance(lo, hi int) int {
	if lo >= hi {
		return none
	}
	if hi-lo == 1 {
		t.nodes[lo].left, t.nodes[lo].right = none, none
		return lo
	}

	// Split on the axis with the largest extent
	minP, maxP := t.nodes[lo].point, t.nodes[lo].point
	for i := lo + 1; i < hi; i++ {
		p := t.nodes[i].point
		minP = math.Vec3{X: min(minP.X, p.X), Y: min(minP.Y, p.Y), Z: min(minP.Z, p.Z)}
		maxP = math.Vec3{X: max(maxP.X, p.X), Y: max(maxP.Y, p.Y), Z: max(maxP.Z, p.Z)}
	}
	ext := maxP.Sub(minP)
	axis := 0
	if ext.Y > ext.Axis(axis) {
		axis = 1
	}
	if ext.Z > ext.Axis(axis) {
		axis = 2
	}

	sub := t.nodes[lo:hi]
	sort.SliceStable(sub, func(i, j int) bool {
		return sub[i].point.Axis(axis) < sub[j].point.Axis(axis)
	})

	mid := lo + (hi-lo)/2
	t.nodes[mid].axis = axis
	t.nodes[mid].left = t.balance(lo, mid)
	t.nodes[mid].right = t.balance(mid+1, hi)
	return mid
}

// FindNearest returns the point closest to p. ok is false for an empty or
// unbalanced tree.
func (t *Tree) FindNearest(p math.Vec3) (Nearest, bool) {
	res := t.FindNearestN(p, 1)
	if len(res) == 0 {
		return Nearest{}, false
	}
	return res[0], true
}

// FindNearestN returns up to n points closest to p, ordered by increasing
// distance. Returns nil if the tree is empty or has not been balanced.
func (t *Tree) FindNearestN(p math.Vec3, n int) []Nearest {
	if !t.balanced || t.root == none || n <= 0 {
		return nil
	}

	q := query{tree: t, p: p, n: n, found: make([]candidate, 0, n)}
	q.search(t.root)

	res := make([]Nearest, len(q.found))
	for i, c := range q.found {
		nd := &t.nodes[c.node]
		res[i] = Nearest{Index: nd.index, Dist: float32(gomath.Sqrt(float64(c.distSq))), Point: nd.point}
	}
	return res
}

type candidate struct {
	node   int
	distSq float32
}

type query struct {
	tree  *Tree
	p     math.Vec3
	n     int
	found []candidate // Sorted by distance, at most n entries
}

func (q *query) worst() float32 {
	return q.found[len(q.found)-1].distSq
}

// add inserts a candidate keeping found sorted and bounded.
func (q *query) add(c candidate) {
	if len(q.found) == q.n && c.distSq >= q.worst() {
		return
	}
	i := sort.Search(len(q.found), func(i int) bool { return q.found[i].distSq > c.distSq })
	if len(q.found) < q.n {
		q.found = append(q.found, candidate{})
	}
	copy(q.found[i+1:], q.found[i:len(q.found)-1])
	q.found[i] = c
}

func (q *query) search(ni int) {
	if ni == none {
		return
	}
	nd := &q.tree.nodes[ni]
	q.add(candidate{node: ni, distSq: nd.point.DistanceSquared(q.p)})

	diff := q.p.Axis(nd.axis) - nd.point.Axis(nd.axis)
	near, far := nd.left, nd.right
	if diff > 0 {
		near, far = far, near
	}

	q.search(near)
	if len(q.found) < q.n || diff*diff < q.worst() {
		q.search(far)
	}
}
