// Package boolean intersects and unions simplicial meshes.
//
// Intersections are computed between convex pieces: simplices by default,
// or the pieces of a convex decomposition when requested. Each pair of
// pieces is converted to half-spaces, intersected exactly and converted
// back to vertices before being triangulated.
package boolean

import (
	"fmt"
	"log"

	"github.com/soypat/simplex"
	"github.com/soypat/simplex/decompose"
	"github.com/soypat/simplex/internal/dn"
	"github.com/soypat/simplex/polytope"
	"github.com/soypat/simplex/triangulate"
)

// Intersector configures mesh intersection. Use NewIntersector for the
// defaults: the zero value does not recompress its results.
type Intersector struct {
	// Recompress merges vertices of the assembled result closer than
	// RecompressFactor times its extent.
	Recompress bool `json:"recompress"`
	// Decompose intersects the convex pieces of each operand instead of
	// its simplices. Only supported in two and three dimensions.
	Decompose bool `json:"decompose"`
	// Method triangulates each convex intersection.
	Method triangulate.Method `json:"method"`
	// Log receives progress statistics when not nil.
	Log *log.Logger `json:"-"`
}

// NewIntersector returns an Intersector that recompresses its results.
func NewIntersector() *Intersector {
	return &Intersector{Recompress: true}
}

// IntersectHulls triangulates the intersection of the convex hulls of two
// vertex sets of equal dimension d. When the intersection has fewer than
// d+1 vertices, or d+1 vertices that do not span R^d, the result holds those
// vertices and no simplices.
func (it *Intersector) IntersectHulls(a, b [][]float64) (simplex.Mesh, error) {
	if len(a) == 0 || len(b) == 0 {
		return simplex.Mesh{}, simplex.ErrMsg(simplex.ErrInvalidArgument, "empty vertex set")
	}
	d := len(a[0])
	if len(b[0]) != d {
		return simplex.Mesh{}, simplex.ErrMsg(simplex.ErrInvalidArgument, "dimension mismatch %d and %d", d, len(b[0]))
	}
	if !dn.BoxOf(a).Overlaps(dn.BoxOf(b)) {
		return simplex.Empty(d), nil
	}
	ha, err := polytope.ToHalfspaces(a)
	if err != nil {
		return simplex.Mesh{}, err
	}
	hb, err := polytope.ToHalfspaces(b)
	if err != nil {
		return simplex.Mesh{}, err
	}
	hx, err := polytope.Intersect(ha, hb)
	if err != nil {
		return simplex.Mesh{}, err
	}
	vertices, err := hx.ToVertices()
	if err != nil {
		return simplex.Mesh{}, fmt.Errorf("converting intersection to vertices: %w", err)
	}
	switch {
	case len(vertices) < d+1:
		return simplex.Mesh{Dim: d, Vertices: vertices}, nil
	case len(vertices) == d+1:
		m := simplex.Mesh{Dim: d, Vertices: vertices}
		if dn.AffineRank(vertices, 1e-10) == d {
			s := make([]int, d+1)
			for i := range s {
				s[i] = i
			}
			m.Simplices = [][]int{s}
		}
		return m, nil
	}
	return triangulate.Mesher{Method: it.Method}.Triangulate(vertices)
}

// Intersect2 returns a mesh covering the intersection of a and b. Both
// meshes must share their dimension. The result lists the pieces found for
// each simplex (or convex piece) of a in order.
func (it *Intersector) Intersect2(a, b simplex.Mesh) (simplex.Mesh, error) {
	if a.Dim != b.Dim {
		return simplex.Mesh{}, simplex.ErrMsg(simplex.ErrInvalidArgument, "dimension mismatch %d and %d", a.Dim, b.Dim)
	}
	if a.IsEmpty() || b.IsEmpty() {
		return simplex.Empty(a.Dim), nil
	}
	var (
		pieces [][]simplex.Mesh
		err    error
	)
	if it.Decompose {
		pieces, err = it.intersectPieces(a, b)
	} else {
		pieces, err = it.intersectSimplices(a, b)
	}
	if err != nil {
		return simplex.Mesh{}, err
	}
	var parts []simplex.Mesh
	for _, p := range pieces {
		parts = append(parts, p...)
	}
	out := simplex.Empty(a.Dim)
	if len(parts) > 0 {
		out, err = Union(parts...)
		if err != nil {
			return simplex.Mesh{}, err
		}
	}
	if it.Recompress && len(out.Vertices) > 0 {
		n := len(out.Vertices)
		out = simplex.CompressTol(out, simplex.RecompressFactor*out.Extent())
		it.logf("intersect: %d pieces, recompressed %d vertices to %d", len(parts), n, len(out.Vertices))
	}
	return out, nil
}

// intersectSimplices intersects every simplex of a with the simplices of b
// whose bounding boxes overlap its own. Results are buffered per simplex of
// a so the buffers can be filled independently.
func (it *Intersector) intersectSimplices(a, b simplex.Mesh) ([][]simplex.Mesh, error) {
	bt := newBoxTree(b)
	pieces := make([][]simplex.Mesh, len(a.Simplices))
	var tested int
	for i := range a.Simplices {
		va := a.SimplexVertices(i)
		for _, j := range bt.overlapping(dn.BoxOf(va)) {
			tested++
			r, err := it.IntersectHulls(va, b.SimplexVertices(j))
			if err != nil {
				return nil, fmt.Errorf("simplex %d of first mesh with simplex %d of second: %w", i, j, err)
			}
			if !r.IsEmpty() {
				pieces[i] = append(pieces[i], r)
			}
		}
	}
	it.logf("intersect: tested %d of %d simplex pairs", tested, len(a.Simplices)*len(b.Simplices))
	return pieces, nil
}

// intersectPieces intersects the convex decompositions of a and b.
func (it *Intersector) intersectPieces(a, b simplex.Mesh) ([][]simplex.Mesh, error) {
	if a.Dim != 2 && a.Dim != 3 {
		return nil, simplex.ErrMsg(simplex.ErrNotSupported, "decomposition in dimension %d", a.Dim)
	}
	ca, err := decompose.Convex(a)
	if err != nil {
		return nil, fmt.Errorf("decomposing first mesh: %w", err)
	}
	cb, err := decompose.Convex(b)
	if err != nil {
		return nil, fmt.Errorf("decomposing second mesh: %w", err)
	}
	it.logf("intersect: decomposed into %d and %d convex pieces", len(ca), len(cb))
	pieces := make([][]simplex.Mesh, len(ca))
	for i, pa := range ca {
		for _, pb := range cb {
			r, err := it.IntersectHulls(pa.Vertices, pb.Vertices)
			if err != nil {
				return nil, err
			}
			if !r.IsEmpty() {
				pieces[i] = append(pieces[i], r)
			}
		}
	}
	return pieces, nil
}

// Intersect returns the intersection of all meshes, reduced pairwise as a
// balanced tree. An empty list yields an empty mesh of dimension 0 and a
// single mesh is returned as a copy.
func (it *Intersector) Intersect(meshes []simplex.Mesh) (simplex.Mesh, error) {
	return reduce(meshes, it.Intersect2)
}

// IntersectConvex intersects meshes that are each a triangulation of a
// convex set. Every mesh is treated as the convex hull of its vertices, so
// the reduction works on whole hulls instead of simplex pairs.
func (it *Intersector) IntersectConvex(meshes []simplex.Mesh) (simplex.Mesh, error) {
	return reduce(meshes, func(a, b simplex.Mesh) (simplex.Mesh, error) {
		if a.Dim != b.Dim {
			return simplex.Mesh{}, simplex.ErrMsg(simplex.ErrInvalidArgument, "dimension mismatch %d and %d", a.Dim, b.Dim)
		}
		if a.IsEmpty() || b.IsEmpty() {
			return simplex.Empty(a.Dim), nil
		}
		return it.IntersectHulls(a.Vertices, b.Vertices)
	})
}

func reduce(meshes []simplex.Mesh, op func(a, b simplex.Mesh) (simplex.Mesh, error)) (simplex.Mesh, error) {
	switch len(meshes) {
	case 0:
		return simplex.Empty(0), nil
	case 1:
		return meshes[0].Clone(), nil
	}
	for _, m := range meshes[1:] {
		if m.Dim != meshes[0].Dim {
			return simplex.Mesh{}, simplex.ErrMsg(simplex.ErrInvalidArgument, "dimension mismatch %d and %d", meshes[0].Dim, m.Dim)
		}
	}
	level := meshes
	for len(level) > 1 {
		next := make([]simplex.Mesh, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			r, err := op(level[i], level[i+1])
			if err != nil {
				return simplex.Mesh{}, err
			}
			next = append(next, r)
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0], nil
}

func (it *Intersector) logf(format string, args ...any) {
	if it.Log != nil {
		it.Log.Printf(format, args...)
	}
}
