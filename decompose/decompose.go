// Package decompose splits two and three dimensional meshes into convex
// pieces.
//
// The boundary of the input is extracted and its facet planes recursively
// cut an enclosing box (a binary space partition restricted to the planes
// of the boundary itself). Every leaf region is convex and lies entirely
// inside or entirely outside the solid; leaves are classified by the
// winding number of the boundary around an interior point.
package decompose

import (
	"log"
	"math"

	"github.com/soypat/simplex"
	"github.com/soypat/simplex/internal/d2"
	"github.com/soypat/simplex/internal/d3"
	"github.com/soypat/simplex/internal/dn"
	"github.com/soypat/simplex/polytope"
	"github.com/soypat/simplex/triangulate"
	"gonum.org/v1/gonum/spatial/r3"
)

// Decomposer splits meshes into convex pieces. The zero value is ready to
// use.
type Decomposer struct {
	// Log receives partition statistics when not nil.
	Log *log.Logger
}

// Convex decomposes m with the zero Decomposer.
func Convex(m simplex.Mesh) ([]simplex.Mesh, error) {
	return Decomposer{}.Convex(m)
}

// plane is the facet plane n·x = c, n pointing out of the solid.
type plane struct {
	n []float64
	c float64
}

func (p plane) eval(x []float64) float64 { return dn.Dot(p.n, x) - p.c }

type region struct {
	a        [][]float64
	b        []float64
	vertices [][]float64
}

type partition struct {
	d      int
	planes []plane
	facets [][][]float64
	// eps is the distance below which a point lies on a plane.
	eps    float64
	minVol float64
	leaves [][][]float64
	inside func(p []float64) bool
	split  int
}

// Convex returns convex meshes whose union is the solid bounded by m and
// whose interiors are pairwise disjoint. m is a volumetric mesh or a closed
// boundary of dimension 2 or 3. Each piece is triangulated as a fan from
// one of its vertices.
func (dc Decomposer) Convex(m simplex.Mesh) ([]simplex.Mesh, error) {
	if m.Dim != 2 && m.Dim != 3 {
		return nil, simplex.ErrMsg(simplex.ErrNotSupported, "convex decomposition in dimension %d", m.Dim)
	}
	if m.IsEmpty() {
		return nil, nil
	}
	b, err := simplex.Compress(m).Boundary()
	if err != nil {
		return nil, err
	}
	if b.IsEmpty() {
		return nil, nil
	}
	d := m.Dim
	ext := b.Extent()
	pt := &partition{
		d:      d,
		eps:    1e-9 * ext,
		minVol: simplex.Precision * math.Pow(ext, float64(d)),
	}
	for i := range b.Simplices {
		f := b.SimplexVertices(i)
		n := facetNormal(f)
		if dn.Norm(n) == 0 {
			continue
		}
		pt.planes = append(pt.planes, plane{n: n, c: dn.Dot(n, f[0])})
		pt.facets = append(pt.facets, f)
	}
	pt.inside = windingTest(d, pt.facets)

	box := dn.BoxOf(b.Vertices).Enlarge(0.1)
	root := region{}
	for k := 0; k < d; k++ {
		lo := make([]float64, d)
		hi := make([]float64, d)
		lo[k], hi[k] = -1, 1
		root.a = append(root.a, lo, hi)
		root.b = append(root.b, -box.Min[k], box.Max[k])
	}
	root.vertices, err = vertices(root.a, root.b)
	if err != nil {
		return nil, err
	}
	active := make([]int, len(pt.planes))
	for i := range active {
		active[i] = i
	}
	if err := pt.partition(root, active); err != nil {
		return nil, err
	}
	var pieces []simplex.Mesh
	for _, leaf := range pt.leaves {
		p, err := fan(leaf, pt.minVol)
		if err != nil {
			return nil, err
		}
		if !p.IsEmpty() {
			pieces = append(pieces, p)
		}
	}
	if dc.Log != nil {
		dc.Log.Printf("decompose: %d boundary facets, %d splits, %d convex pieces", len(pt.facets), pt.split, len(pieces))
	}
	return pieces, nil
}

// partition cuts reg by the first active plane crossing its interior and
// recurses into both halves. Regions no plane crosses are leaves.
func (pt *partition) partition(reg region, active []int) error {
	for len(active) > 0 {
		pl := pt.planes[active[0]]
		var below, above bool
		for _, v := range reg.vertices {
			s := pl.eval(v)
			below = below || s < -pt.eps
			above = above || s > pt.eps
		}
		if !below || !above {
			active = active[1:]
			continue
		}
		pt.split++
		var lower, upper []int
		for _, i := range active[1:] {
			lo, hi := pt.sides(pl, pt.facets[i])
			if lo {
				lower = append(lower, i)
			}
			if hi {
				upper = append(upper, i)
			}
		}
		neg := make([]float64, pt.d)
		for k, v := range pl.n {
			neg[k] = -v
		}
		for _, half := range []struct {
			a   []float64
			b   float64
			act []int
		}{{pl.n, pl.c, lower}, {neg, -pl.c, upper}} {
			child := region{
				a: append(append([][]float64(nil), reg.a...), half.a),
				b: append(append([]float64(nil), reg.b...), half.b),
			}
			var err error
			child.vertices, err = vertices(child.a, child.b)
			if err != nil {
				return err
			}
			if len(child.vertices) <= pt.d {
				continue
			}
			if err := pt.partition(child, half.act); err != nil {
				return err
			}
		}
		return nil
	}
	if len(reg.vertices) > pt.d && pt.inside(dn.Centroid(reg.vertices)) {
		pt.leaves = append(pt.leaves, reg.vertices)
	}
	return nil
}

// sides reports whether facet f reaches below and above plane pl. Facets
// lying on pl reach neither side.
func (pt *partition) sides(pl plane, f [][]float64) (below, above bool) {
	for _, v := range f {
		s := pl.eval(v)
		below = below || s < -pt.eps
		above = above || s > pt.eps
	}
	return below, above
}

// vertices returns the vertices of {x : a·x <= b}.
func vertices(a [][]float64, b []float64) ([][]float64, error) {
	h, err := polytope.FromHalfspaces(a, b)
	if err != nil {
		return nil, err
	}
	return h.ToVertices()
}

// facetNormal returns the unnormalized outward normal of an outward
// oriented boundary facet.
func facetNormal(f [][]float64) []float64 {
	if len(f) == 2 {
		// Counter clockwise segment, interior on the left.
		return []float64{f[1][1] - f[0][1], f[0][0] - f[1][0]}
	}
	n := d3.Triangle{d3.Vec(f[0]), d3.Vec(f[1]), d3.Vec(f[2])}.Normal()
	return []float64{n.X, n.Y, n.Z}
}

// windingTest returns a point in solid test based on the winding number of
// the outward oriented boundary facets.
func windingTest(d int, facets [][][]float64) func(p []float64) bool {
	if d == 2 {
		segs := make([]d2.Segment, len(facets))
		for i, f := range facets {
			segs[i] = d2.Segment{d2.Vec(f[0]), d2.Vec(f[1])}
		}
		return func(p []float64) bool {
			q := d2.Vec(p)
			var w float64
			for _, s := range segs {
				w += s.Angle(q)
			}
			return w/(2*math.Pi) > 0.5
		}
	}
	tris := make([]d3.Triangle, len(facets))
	for i, f := range facets {
		tris[i] = d3.Triangle{d3.Vec(f[0]), d3.Vec(f[1]), d3.Vec(f[2])}
	}
	return func(p []float64) bool {
		q := r3.Vec{X: p[0], Y: p[1], Z: p[2]}
		var w float64
		for _, t := range tris {
			w += t.SolidAngle(q)
		}
		return w/(4*math.Pi) > 0.5
	}
}

// fan triangulates the convex hull of pts from its first vertex, skipping
// hull facets incident to it. Simplices with volume up to minVol are
// dropped.
func fan(pts [][]float64, minVol float64) (simplex.Mesh, error) {
	hull, err := triangulate.ConvexHull(pts)
	if err != nil {
		return simplex.Mesh{}, err
	}
	d := hull.Dim
	m := simplex.Mesh{Dim: d, Vertices: hull.Vertices}
	const apex = 0
	for i, f := range hull.Simplices {
		if containsIndex(f, apex) {
			continue
		}
		s := append([]int{apex}, f[:d]...)
		cell := append([][]float64{hull.Vertices[apex]}, hull.SimplexVertices(i)...)
		if len(cell) != d+1 || dn.SimplexVolume(cell) <= minVol {
			continue
		}
		m.Simplices = append(m.Simplices, s)
	}
	return m, nil
}

func containsIndex(s []int, i int) bool {
	for _, v := range s {
		if v == i {
			return true
		}
	}
	return false
}

// IsConvex reports whether the volume of m matches the volume of the convex
// hull of its vertices within a relative tolerance of √ε.
func IsConvex(m simplex.Mesh) (bool, error) {
	if m.IsEmpty() {
		return false, simplex.ErrMsg(simplex.ErrInvalidArgument, "mesh has no simplices")
	}
	hull, err := triangulate.Triangulate(m.Vertices)
	if err != nil {
		return false, err
	}
	vh := hull.Volume()
	if vh == 0 {
		return false, nil
	}
	return math.Abs(m.Volume()-vh)/vh < math.Sqrt(simplex.Precision), nil
}
