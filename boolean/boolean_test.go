package boolean

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/soypat/simplex"
	"github.com/soypat/simplex/triangulate"
)

func TestIntersectSquareTriangle(t *testing.T) {
	square := mustTriangulate(t, box(2, 0, 1))
	tri := mustTriangulate(t, [][]float64{{0.5, 0.5}, {2, 0.5}, {0.5, 2}})
	for _, decomposed := range []bool{false, true} {
		it := NewIntersector()
		it.Decompose = decomposed
		got, err := it.Intersect2(square, tri)
		if err != nil {
			t.Fatal(err)
		}
		if err := got.Validate(); err != nil {
			t.Fatal(err)
		}
		// The hypotenuse x+y=2.5 misses the square so the overlap is [0.5,1]^2.
		if vol := got.Volume(); math.Abs(vol-0.25) > 1e-12 {
			t.Errorf("decompose=%v: got area %g. want 0.25", decomposed, vol)
		}
	}
}

func TestIntersectShiftedCubes(t *testing.T) {
	a := mustTriangulate(t, box(3, 0, 1))
	b := mustTriangulate(t, box(3, 0.5, 1.5))
	got, err := NewIntersector().Intersect2(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if vol := got.Volume(); math.Abs(vol-0.125) > 1e-9 {
		t.Errorf("got volume %g. want 0.125", vol)
	}
	lo, hi := got.Bounds()
	for k := range lo {
		if math.Abs(lo[k]-0.5) > 1e-12 || math.Abs(hi[k]-1) > 1e-12 {
			t.Errorf("got bounds %v %v. want [0.5,1]^3", lo, hi)
			break
		}
	}
}

func TestIntersectSelf(t *testing.T) {
	for dim := 2; dim <= 4; dim++ {
		m := mustTriangulate(t, box(dim, -1, 1))
		got, err := NewIntersector().Intersect2(m, m)
		if err != nil {
			t.Fatalf("dim %d: %v", dim, err)
		}
		want := math.Pow(2, float64(dim))
		if vol := got.Volume(); math.Abs(vol-want) > 1e-9 {
			t.Errorf("dim %d: got volume %g. want %g", dim, vol, want)
		}
	}
}

func TestIntersectDisjoint(t *testing.T) {
	a := mustTriangulate(t, box(3, 0, 1))
	b := mustTriangulate(t, box(3, 2, 3))
	touching := mustTriangulate(t, box(3, 1, 2))
	for _, other := range []simplex.Mesh{b, touching} {
		got, err := NewIntersector().Intersect2(a, other)
		if err != nil {
			t.Fatal(err)
		}
		if got.Dim != 3 || len(got.Simplices) != 0 {
			t.Errorf("got dim %d with %d simplices. want 3 and 0", got.Dim, len(got.Simplices))
		}
	}
}

func TestIntersectHullsLowDimensional(t *testing.T) {
	it := NewIntersector()
	// Squares sharing the edge x=1.
	got, err := it.IntersectHulls(box(2, 0, 1), [][]float64{{1, 0}, {2, 0}, {1, 1}, {2, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Simplices) != 0 {
		t.Errorf("got %d simplices for a shared edge. want 0", len(got.Simplices))
	}
	got, err = it.IntersectHulls(box(2, 0, 1), [][]float64{{0, 0}, {1, 0}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Simplices) != 1 || math.Abs(got.Volume()-0.5) > 1e-12 {
		t.Errorf("got %d simplices of area %g. want one of 0.5", len(got.Simplices), got.Volume())
	}
}

func TestIntersectList(t *testing.T) {
	it := NewIntersector()
	got, err := it.Intersect(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Dim != 0 || len(got.Vertices) != 0 {
		t.Errorf("got %+v for no meshes. want empty dimension 0 mesh", got)
	}
	a := mustTriangulate(t, box(2, 0, 2))
	got, err = it.Intersect([]simplex.Mesh{a})
	if err != nil {
		t.Fatal(err)
	}
	if got.Volume() != a.Volume() {
		t.Errorf("got area %g for a single mesh. want %g", got.Volume(), a.Volume())
	}
	got.Vertices[0][0] = 100
	if a.Vertices[0][0] == 100 {
		t.Error("single mesh result aliases its input")
	}
	meshes := []simplex.Mesh{
		mustTriangulate(t, box(2, 0, 2)),
		mustTriangulate(t, box(2, 1, 3)),
		mustTriangulate(t, box(2, 0.5, 1.5)),
	}
	for name, fn := range map[string]func([]simplex.Mesh) (simplex.Mesh, error){
		"general": it.Intersect,
		"convex":  it.IntersectConvex,
	} {
		got, err := fn(meshes)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if vol := got.Volume(); math.Abs(vol-0.25) > 1e-12 {
			t.Errorf("%s: got area %g. want 0.25", name, vol)
		}
	}
}

func TestIntersectDimensionMismatch(t *testing.T) {
	a := mustTriangulate(t, box(2, 0, 1))
	b := mustTriangulate(t, box(3, 0, 1))
	it := NewIntersector()
	if _, err := it.Intersect2(a, b); !errors.Is(err, simplex.ErrInvalidArgument) {
		t.Errorf("got error %v. want ErrInvalidArgument", err)
	}
	if _, err := it.Intersect([]simplex.Mesh{a, a, b}); !errors.Is(err, simplex.ErrInvalidArgument) {
		t.Errorf("list: got error %v. want ErrInvalidArgument", err)
	}
	if _, err := Union(a, b); !errors.Is(err, simplex.ErrInvalidArgument) {
		t.Errorf("union: got error %v. want ErrInvalidArgument", err)
	}
}

func TestIntersectDecomposeUnsupported(t *testing.T) {
	m := mustTriangulate(t, box(4, 0, 1))
	it := &Intersector{Decompose: true}
	if _, err := it.Intersect2(m, m); !errors.Is(err, simplex.ErrNotSupported) {
		t.Errorf("got error %v. want ErrNotSupported", err)
	}
}

func TestUnion(t *testing.T) {
	a := mustTriangulate(t, box(2, 0, 1))
	b := mustTriangulate(t, [][]float64{{1, 0}, {2, 0}, {1, 1}, {2, 1}})
	u, err := Union(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(u.Vertices) != 8 || len(u.Simplices) != 4 {
		t.Errorf("got %d vertices %d simplices. want 8 and 4", len(u.Vertices), len(u.Simplices))
	}
	for k, idx := range u.Simplices[2] {
		if idx != b.Simplices[0][k]+4 {
			t.Errorf("got index %d. want %d", idx, b.Simplices[0][k]+4)
		}
	}
	// The squares share the corners (1,0) and (1,1).
	if c := simplex.Compress(u); len(c.Vertices) != 6 {
		t.Errorf("got %d compressed vertices. want 6", len(c.Vertices))
	}
	empty, err := Union()
	if err != nil || empty.Dim != 0 || len(empty.Vertices) != 0 {
		t.Errorf("got %+v, %v for empty union", empty, err)
	}
}

func TestIntersectorConfig(t *testing.T) {
	it := NewIntersector()
	if !it.Recompress || it.Decompose || it.Method != triangulate.Basic {
		t.Errorf("unexpected defaults %+v", it)
	}
	it.Method = triangulate.Delaunay
	b, err := json.Marshal(it)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"recompress":true,"decompose":false,"method":"delaunay"}`
	if string(b) != want {
		t.Errorf("got %s. want %s", b, want)
	}
	var got Intersector
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got != (Intersector{Recompress: true, Method: triangulate.Delaunay}) {
		t.Errorf("got %+v after round trip", got)
	}
}

func TestIntersectorZeroValue(t *testing.T) {
	sq := mustTriangulate(t, box(2, 0, 1))
	for _, test := range []struct {
		it   *Intersector
		want int
	}{
		{&Intersector{}, 6},
		{NewIntersector(), 4},
	} {
		got, err := test.it.Intersect2(sq, sq)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Vertices) != test.want {
			t.Errorf("recompress=%v: got %d vertices. want %d", test.it.Recompress, len(got.Vertices), test.want)
		}
		if v := got.Volume(); math.Abs(v-1) > 1e-12 {
			t.Errorf("recompress=%v: got area %g. want 1", test.it.Recompress, v)
		}
	}
}

func TestIntersectorLog(t *testing.T) {
	var buf bytes.Buffer
	it := NewIntersector()
	it.Log = log.New(&buf, "", 0)
	a := mustTriangulate(t, box(2, 0, 1))
	if _, err := it.Intersect2(a, a); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "recompressed") {
		t.Errorf("missing recompression statistics in log %q", buf.String())
	}
}

func mustTriangulate(t *testing.T, pts [][]float64) simplex.Mesh {
	t.Helper()
	m, err := triangulate.Triangulate(pts)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// box returns the corners of the cube [lo,hi]^dim.
func box(dim int, lo, hi float64) [][]float64 {
	pts := make([][]float64, 1<<dim)
	for i := range pts {
		pts[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			pts[i][j] = lo
			if i&(1<<j) != 0 {
				pts[i][j] = hi
			}
		}
	}
	return pts
}
