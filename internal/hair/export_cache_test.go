package hair

import (
	"errors"
	"testing"

	"github.com/Faultbox/strandforge/pkg/math"
	"github.com/Faultbox/strandforge/pkg/mesh"
)

// recordCompute returns a pointer to the list of computed categories.
func recordCompute(c *ExportCache) *[]ExportData {
	var order []ExportData
	c.OnCompute = func(d ExportData) {
		order = append(order, d)
	}
	return &order
}

func TestExportDataDependencies(t *testing.T) {
	tests := []struct {
		data ExportData
		deps ExportData
		dpts ExportData
	}{
		{ExportFiberCurves, ExportAll, ExportFiberCurves},
		{ExportFiberVertices, ExportFiberVertices, ExportFiberVertices | ExportFiberCurves},
		{ExportFollicleBinding,
			ExportFollicleBinding | ExportFiberRootPositions | ExportFiberVertexCounts,
			ExportFollicleBinding | ExportFiberCurves},
		{ExportFiberRootPositions, ExportFiberRootPositions,
			ExportFiberRootPositions | ExportFollicleBinding | ExportFiberCurves},
		{ExportFiberVertexCounts, ExportFiberVertexCounts,
			ExportFiberVertexCounts | ExportFollicleBinding | ExportFiberCurves},
	}

	for _, tt := range tests {
		t.Run(tt.data.String(), func(t *testing.T) {
			if got := tt.data.WithDependencies(); got != tt.deps {
				t.Errorf("WithDependencies() = %v, want %v", got, tt.deps)
			}
			if got := tt.data.WithDependents(); got != tt.dpts {
				t.Errorf("WithDependents() = %v, want %v", got, tt.dpts)
			}
		})
	}
}

func TestExportDataString(t *testing.T) {
	if got := ExportData(0).String(); got != "none" {
		t.Errorf("String() = %q, want none", got)
	}
	if got := (ExportFiberCurves | ExportFiberRootPositions).String(); got != "root_positions|curves" {
		t.Errorf("String() = %q", got)
	}
	if !ExportAll.Has(ExportFiberVertices | ExportFollicleBinding) {
		t.Error("ExportAll should contain every category")
	}
	if ExportFiberVertices.Has(ExportAll) {
		t.Error("single category should not contain all")
	}
}

func TestExportCacheUpdateAll(t *testing.T) {
	sys, scalp := newTestSystem(t)
	cache := NewExportCache()
	order := recordCompute(cache)

	computed, err := cache.Update(sys, 2, scalp, ExportAll)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if computed != ExportAll {
		t.Errorf("computed = %v, want all", computed)
	}

	want := []ExportData{
		ExportFiberRootPositions,
		ExportFiberVertexCounts,
		ExportFollicleBinding,
		ExportFiberVertices,
		ExportFiberCurves,
	}
	if len(*order) != len(want) {
		t.Fatalf("compute order = %v, want %v", *order, want)
	}
	for i := range want {
		if (*order)[i] != want[i] {
			t.Errorf("compute step %d = %v, want %v", i, (*order)[i], want[i])
		}
	}
	if cache.Present() != ExportAll {
		t.Errorf("Present() = %v, want all", cache.Present())
	}

	// Nothing changed: no work
	*order = nil
	computed, err = cache.Update(sys, 2, scalp, ExportAll)
	if err != nil {
		t.Fatalf("second Update() error: %v", err)
	}
	if computed != 0 || len(*order) != 0 {
		t.Errorf("second Update() computed %v (%v)", computed, *order)
	}
}

func TestExportCacheInvalidateBindingFresh(t *testing.T) {
	sys, scalp := newTestSystem(t)
	cache := NewExportCache()
	order := recordCompute(cache)

	cache.Invalidate(ExportFollicleBinding)
	computed, err := cache.Update(sys, 1, scalp, ExportFiberCurves)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if computed != ExportAll {
		t.Errorf("computed = %v, want all", computed)
	}
	want := []ExportData{
		ExportFiberRootPositions,
		ExportFiberVertexCounts,
		ExportFollicleBinding,
		ExportFiberVertices,
		ExportFiberCurves,
	}
	for i := range want {
		if i >= len(*order) || (*order)[i] != want[i] {
			t.Fatalf("compute order = %v, want %v", *order, want)
		}
	}

	*order = nil
	computed, err = cache.Update(sys, 1, scalp, ExportFiberRootPositions)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if computed != 0 || len(*order) != 0 {
		t.Errorf("root positions recomputed: %v", computed)
	}
}

func TestExportCacheInvalidateWarm(t *testing.T) {
	sys, scalp := newTestSystem(t)
	cache := NewExportCache()
	if _, err := cache.Update(sys, 1, scalp, ExportAll); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	cache.Invalidate(ExportFollicleBinding)
	wantGone := ExportFollicleBinding | ExportFiberRootPositions | ExportFiberVertexCounts | ExportFiberCurves
	if cache.Present() != ExportFiberVertices {
		t.Errorf("Present() = %v, want vertices", cache.Present())
	}
	if cache.Follicles != nil || cache.FiberRootPositions != nil || cache.FiberNumVerts != nil || cache.Curves != nil {
		t.Error("invalidated data not released")
	}

	computed, err := cache.Update(sys, 1, scalp, ExportFiberCurves)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if computed != wantGone {
		t.Errorf("computed = %v, want %v", computed, wantGone)
	}

	// Vertices have no dependencies or dependents besides curves
	cache.Invalidate(ExportFiberVertices)
	if cache.Present() != ExportFollicleBinding|ExportFiberRootPositions|ExportFiberVertexCounts {
		t.Errorf("Present() = %v after invalidating vertices", cache.Present())
	}
}

func TestExportCacheVertexCounts(t *testing.T) {
	sys, scalp := newTestSystem(t)
	cache := NewExportCache()
	if _, err := cache.Update(sys, 2, scalp, ExportFiberVertexCounts); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if !cache.Present().Has(ExportFiberVertexCounts) {
		t.Fatal("vertex counts missing")
	}
	if len(cache.FiberNumVerts) != sys.NumFollicles() {
		t.Fatalf("len(FiberNumVerts) = %d, want %d", len(cache.FiberNumVerts), sys.NumFollicles())
	}

	total := 0
	for i, n := range cache.FiberNumVerts {
		// Every guide has 4 vertices: 13 after two levels
		if n != 13 {
			t.Errorf("fiber %d: %d vertices, want 13", i, n)
		}
		total += n
	}
	if cache.TotalFiberVerts != total {
		t.Errorf("TotalFiberVerts = %d, want %d", cache.TotalFiberVerts, total)
	}
}

func TestExportCacheVertexCountsWeighted(t *testing.T) {
	scalp, err := mesh.New(
		[]math.Vec3{{0, 0, 0}, {4, 0, 0}, {4, 1, 0}, {0, 1, 0}},
		[][]int{{0, 1, 2, 3}},
	)
	if err != nil {
		t.Fatalf("mesh.New() error: %v", err)
	}

	sys := New()
	sys.BeginFiberCurves(2)
	if err := sys.SetFiberCurve(0, mesh.Sample{Tri: 0, Bary: [3]float32{1, 0, 0}}, 2, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := sys.SetFiberCurve(1, mesh.Sample{Tri: 0, Bary: [3]float32{0, 1, 0}}, 6, 0, 0); err != nil {
		t.Fatal(err)
	}
	sys.EndFiberCurves()
	sys.setFollicles([]mesh.Sample{{Tri: 0, Bary: [3]float32{0.75, 0.25, 0}}})

	cache := NewExportCache()
	if _, err := cache.Update(sys, 1, scalp, ExportFiberVertexCounts); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	// 0.75 * 3 + 0.25 * 11 = 5
	if got := cache.FiberNumVerts[0]; got != 5 {
		t.Errorf("FiberNumVerts[0] = %d, want 5", got)
	}
}

func TestExportCacheRootsAndVertices(t *testing.T) {
	sys, scalp := newTestSystem(t)
	cache := NewExportCache()
	if _, err := cache.Update(sys, 2, scalp, ExportAll); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	follicles := sys.Pattern().Follicles
	for i := range follicles {
		pos, _, _, _ := scalp.Evaluate(follicles[i].Sample)
		if cache.FiberRootPositions[i] != pos {
			t.Errorf("root %d = %v, want %v", i, cache.FiberRootPositions[i], pos)
		}
	}

	if want := SubdivTotalVerts(sys.NumCurves(), sys.NumVerts(), 2); cache.TotalVerts != want || len(cache.Verts) != want {
		t.Fatalf("TotalVerts = %d, len(Verts) = %d, want %d", cache.TotalVerts, len(cache.Verts), want)
	}
	if len(cache.Tangents) != len(cache.Verts) || len(cache.Normals) != len(cache.Verts) {
		t.Fatal("frame buffers do not match vertex count")
	}

	for i, curve := range cache.Curves {
		if curve.NumVerts != 13 {
			t.Errorf("curve %d: %d vertices, want 13", i, curve.NumVerts)
		}
		root, _, _, _ := scalp.Evaluate(curve.Sample)
		first := cache.Verts[curve.VertStart]
		if !vecNear(first.Co, root, 1e-5) {
			t.Errorf("curve %d starts at %v, want %v", i, first.Co, root)
		}
		last := cache.Verts[curve.VertStart+curve.NumVerts-1]
		if !vecNear(last.Co, root.Add(math.Vec3{Z: 3}), 1e-5) {
			t.Errorf("curve %d ends at %v", i, last.Co)
		}
		// Guides grow along the scalp normal
		if !vecNear(cache.Tangents[curve.VertStart], math.Vec3{Z: 1}, 1e-5) {
			t.Errorf("curve %d root tangent = %v", i, cache.Tangents[curve.VertStart])
		}
	}

	if len(cache.Follicles) != len(follicles) {
		t.Errorf("len(Follicles) = %d, want %d", len(cache.Follicles), len(follicles))
	}
}

func TestExportCacheSystemChange(t *testing.T) {
	sys, scalp := newTestSystem(t)
	cache := NewExportCache()
	if _, err := cache.Update(sys, 1, scalp, ExportAll); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if err := sys.SetFiberVertex(1, 0, math.Vec3{X: 1, Z: 1}); err != nil {
		t.Fatal(err)
	}
	computed, err := cache.Update(sys, 1, scalp, ExportFiberRootPositions)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if computed != ExportFiberRootPositions || cache.Present() != ExportFiberRootPositions {
		t.Errorf("computed %v, present %v after modification", computed, cache.Present())
	}

	// A different system drops everything as well
	other, _ := newTestSystem(t)
	computed, err = cache.Update(other, 1, scalp, ExportFiberRootPositions)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if computed != ExportFiberRootPositions {
		t.Errorf("computed = %v for new system", computed)
	}
}

func TestExportCacheSubdivisionChange(t *testing.T) {
	sys, scalp := newTestSystem(t)
	cache := NewExportCache()
	if _, err := cache.Update(sys, 1, scalp, ExportAll); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	computed, err := cache.Update(sys, 3, scalp, ExportAll)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	want := ExportFiberCurves | ExportFiberVertices | ExportFiberVertexCounts
	if computed != want {
		t.Errorf("computed = %v, want %v", computed, want)
	}
	if cache.Subdivision() != 3 {
		t.Errorf("Subdivision() = %d, want 3", cache.Subdivision())
	}
	if got := cache.Curves[0].NumVerts; got != SubdivLength(4, 3) {
		t.Errorf("curve vertices = %d, want %d", got, SubdivLength(4, 3))
	}

	if _, err := cache.Update(sys, MaxSubdivision+1, scalp, ExportAll); !errors.Is(err, ErrInvalidSubdivision) {
		t.Errorf("error = %v, want ErrInvalidSubdivision", err)
	}
	if cache.Present() != ExportAll {
		t.Error("invalid subdivision should leave the cache untouched")
	}
}

func TestExportCacheError(t *testing.T) {
	scalp := gridScalp(t, 2, 1)
	sys := New()
	sys.GenerateFollicles(scalp, 1, 10)
	// Curve without vertices
	sys.BeginFiberCurves(1)

	cache := NewExportCache()
	_, err := cache.Update(sys, 1, scalp, ExportAll)
	if !errors.Is(err, ErrCurveTooShort) {
		t.Fatalf("error = %v, want ErrCurveTooShort", err)
	}
	if cache.Present() != 0 {
		t.Errorf("Present() = %v after failed update", cache.Present())
	}
	if cache.Verts != nil || cache.FiberRootPositions != nil {
		t.Error("failed update left data behind")
	}
}

func TestExportCacheNoStrands(t *testing.T) {
	scalp := gridScalp(t, 2, 1)
	sys := New()
	sys.GenerateFollicles(scalp, 1, 25)

	cache := NewExportCache()
	if _, err := cache.Update(sys, 2, scalp, ExportAll); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if cache.TotalFiberVerts != 0 {
		t.Errorf("TotalFiberVerts = %d, want 0", cache.TotalFiberVerts)
	}
	for i, n := range cache.FiberNumVerts {
		if n != 0 {
			t.Errorf("fiber %d: %d vertices without guides", i, n)
		}
	}
	if len(cache.Curves) != 0 || cache.TotalVerts != 0 {
		t.Errorf("unexpected curves: %d", len(cache.Curves))
	}
}
