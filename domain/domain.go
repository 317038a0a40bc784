// Package domain evaluates the signed distance from points to the closed
// boundary of a two or three dimensional mesh. Distances are negative
// inside the boundary.
package domain

import (
	"math"

	"github.com/soypat/simplex"
	"github.com/soypat/simplex/internal/d2"
	"github.com/soypat/simplex/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Domain is the region enclosed by a closed boundary. It is safe for
// concurrent use once built.
type Domain struct {
	dim  int
	segs []d2.Segment
	tris []d3.Triangle
	tree *bih
	// Distances up to tol are reported as zero.
	tol float64
}

// New builds the domain bounded by m. m is either a closed boundary of
// intrinsic dimension Dim-1 or a volumetric mesh whose boundary facets are
// extracted first. Only two and three dimensional meshes are supported.
func New(m simplex.Mesh) (*Domain, error) {
	if m.Dim != 2 && m.Dim != 3 {
		return nil, simplex.ErrMsg(simplex.ErrInvalidArgument, "distance to a boundary in dimension %d", m.Dim)
	}
	if m.IsEmpty() {
		return nil, simplex.ErrMsg(simplex.ErrInvalidArgument, "mesh has no simplices")
	}
	b, err := simplex.Compress(m).Boundary()
	if err != nil {
		return nil, err
	}
	if b.IsEmpty() {
		return nil, simplex.ErrMsg(simplex.ErrInvalidArgument, "mesh has an empty boundary")
	}
	dm := &Domain{dim: m.Dim, tol: simplex.Precision * b.Extent()}
	boxes := make([]d3.Box, len(b.Simplices))
	for i, s := range b.Simplices {
		if dm.dim == 2 {
			seg := d2.Segment{d2.Vec(b.Vertices[s[0]]), d2.Vec(b.Vertices[s[1]])}
			dm.segs = append(dm.segs, seg)
			bb := seg.Bounds()
			boxes[i] = d3.Box{Min: r3.Vec{X: bb.Min.X, Y: bb.Min.Y}, Max: r3.Vec{X: bb.Max.X, Y: bb.Max.Y}}
			continue
		}
		tri := d3.Triangle{d3.Vec(b.Vertices[s[0]]), d3.Vec(b.Vertices[s[1]]), d3.Vec(b.Vertices[s[2]])}
		dm.tris = append(dm.tris, tri)
		boxes[i] = tri.Bounds()
	}
	dm.tree = newBIH(boxes)
	return dm, nil
}

// Distance returns the signed distance from m's boundary to each point.
func Distance(m simplex.Mesh, points [][]float64) ([]float64, error) {
	dm, err := New(m)
	if err != nil {
		return nil, err
	}
	return dm.Distance(points)
}

// Dim returns the dimension of the domain.
func (dm *Domain) Dim() int { return dm.dim }

// Distance returns the signed distance from the boundary to each point:
// the distance to the nearest boundary facet, negated inside.
func (dm *Domain) Distance(points [][]float64) ([]float64, error) {
	out := make([]float64, len(points))
	for i, p := range points {
		if len(p) != dm.dim {
			return nil, simplex.ErrMsg(simplex.ErrInvalidArgument, "point %d has dimension %d, want %d", i, len(p), dm.dim)
		}
		out[i] = dm.Evaluate(p)
	}
	return out, nil
}

// Evaluate returns the signed distance from the boundary to p, or NaN when
// p does not have the dimension of the domain.
func (dm *Domain) Evaluate(p []float64) float64 {
	if len(p) != dm.dim {
		return math.NaN()
	}
	var dist float64
	var inside bool
	if dm.dim == 2 {
		q := d2.Vec(p)
		_, d := dm.tree.nearest(r3.Vec{X: q.X, Y: q.Y}, func(i int) float64 {
			return r2.Norm2(r2.Sub(q, dm.segs[i].Closest(q)))
		})
		dist = math.Sqrt(d)
		inside = dm.crossings(q)%2 == 1
	} else {
		q := d3.Vec(p)
		_, d := dm.tree.nearest(q, func(i int) float64 {
			return r3.Norm2(r3.Sub(q, dm.tris[i].Closest(q)))
		})
		dist = math.Sqrt(d)
		inside = dm.winding(q) > 0.5
	}
	switch {
	case dist <= dm.tol:
		return 0
	case inside:
		return -dist
	}
	return dist
}

// crossings counts the boundary segments crossed by the ray leaving q
// towards +x.
func (dm *Domain) crossings(q r2.Vec) int {
	n := 0
	for _, s := range dm.segs {
		if s.Crosses(q) {
			n++
		}
	}
	return n
}

// winding returns the number of times the boundary wraps around q.
func (dm *Domain) winding(q r3.Vec) float64 {
	var omega float64
	for _, t := range dm.tris {
		omega += t.SolidAngle(q)
	}
	return omega / (4 * math.Pi)
}
