package simplex

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/soypat/simplex/internal/dn"
)

// Boundary returns the closed, outward oriented boundary of m as a mesh of
// intrinsic dimension Dim-1 sharing the vertices of m.
//
// A volumetric mesh contributes the facets referenced by exactly one of its
// cells; cells with a negligible volume are skipped. A mesh that already is
// a boundary has its facets reoriented consistently; it must be closed,
// every ridge shared by an even number of facets, or ErrInternal is returned.
//
// A facet is outward oriented when an interior point o satisfies
// (-1)^Dim * det(f1-f0, ..., o-f0) > 0. In two dimensions this walks the
// boundary counter clockwise, in three the right hand normal of each
// triangle points outside.
func (m Mesh) Boundary() (Mesh, error) {
	if err := m.Validate(); err != nil {
		return Mesh{}, err
	}
	d := m.Dim
	if d < 2 {
		return Mesh{}, ErrMsg(ErrInvalidArgument, "boundary of dimension %d mesh", d)
	}
	var facets [][]int
	switch k := m.IntrinsicDimension(); k {
	case d:
		facets = m.cellFacets()
	case d - 1:
		var err error
		facets, err = m.orientSurface()
		if err != nil {
			return Mesh{}, err
		}
	default:
		return Mesh{}, ErrMsg(ErrInvalidArgument, "intrinsic dimension %d in dimension %d", k, d)
	}
	out := Mesh{Dim: d, Vertices: dn.Copy(m.Vertices), Simplices: make([][]int, len(facets))}
	for i, f := range facets {
		out.Simplices[i] = append(f, f[len(f)-1])
	}
	return out, nil
}

// interiorSign is the sign taken by det(f1-f0, ..., o-f0) for an interior
// point o of an outward oriented facet f.
func interiorSign(d int) float64 {
	if d%2 == 0 {
		return 1
	}
	return -1
}

// cellFacets returns the facets of full dimensional cells that are not
// shared with another cell, oriented away from the cell they bound.
func (m Mesh) cellFacets() [][]int {
	d := m.Dim
	minVol := Precision * math.Pow(m.Extent(), float64(d))
	type entry struct {
		facet []int
		count int
	}
	seen := make(map[string]*entry)
	var order []string
	pts := make([][]float64, d+1)
	for _, s := range m.Simplices {
		if SimplexDimension(s) < d {
			continue
		}
		for i, idx := range s {
			pts[i] = m.Vertices[idx]
		}
		if math.Abs(dn.SignedVolume(pts)) <= minVol {
			continue
		}
		for skip := range s {
			f := make([]int, 0, d)
			for i, idx := range s {
				if i != skip {
					f = append(f, idx)
				}
			}
			k := setKey(f)
			e, ok := seen[k]
			if !ok {
				e = &entry{facet: m.orientAway(f, s[skip])}
				seen[k] = e
				order = append(order, k)
			}
			e.count++
		}
	}
	var facets [][]int
	for _, k := range order {
		if e := seen[k]; e.count == 1 {
			facets = append(facets, e.facet)
		}
	}
	return facets
}

// orientAway orders f so that it faces away from vertex o.
func (m Mesh) orientAway(f []int, o int) []int {
	pts := make([][]float64, 0, len(f)+1)
	for _, idx := range f {
		pts = append(pts, m.Vertices[idx])
	}
	pts = append(pts, m.Vertices[o])
	if dn.SignedVolume(pts)*interiorSign(m.Dim) < 0 {
		f[0], f[1] = f[1], f[0]
	}
	return f
}

// orientSurface propagates the orientation of one facet to its neighbours
// across shared ridges, then flips every connected component whose
// enclosed signed volume is negative.
func (m Mesh) orientSurface() ([][]int, error) {
	d := m.Dim
	var facets [][]int
	for _, s := range m.Simplices {
		if SimplexDimension(s) == d-1 {
			facets = append(facets, append([]int(nil), s[:d]...))
		}
	}
	type incidence struct {
		facet   int
		induced int
	}
	ridges := make(map[string][]incidence)
	for fi, f := range facets {
		for skip := range f {
			r := make([]int, 0, d-1)
			for i, idx := range f {
				if i != skip {
					r = append(r, idx)
				}
			}
			sign := permutationSign(r)
			if skip%2 == 1 {
				sign = -sign
			}
			k := setKey(r)
			ridges[k] = append(ridges[k], incidence{facet: fi, induced: sign})
		}
	}
	for _, inc := range ridges {
		if len(inc)%2 != 0 {
			return nil, ErrMsg(ErrInternal, "boundary is not closed: ridge shared by %d facets", len(inc))
		}
	}
	// Neighbours of each facet with the induced signs on the shared ridge.
	type link struct{ other, mine, theirs int }
	links := make([][]link, len(facets))
	for _, inc := range ridges {
		for _, a := range inc {
			for _, b := range inc {
				if a.facet != b.facet {
					links[a.facet] = append(links[a.facet], link{other: b.facet, mine: a.induced, theirs: b.induced})
				}
			}
		}
	}
	flip := make([]int, len(facets))
	for start := range facets {
		if flip[start] != 0 {
			continue
		}
		flip[start] = 1
		component := []int{start}
		for q := 0; q < len(component); q++ {
			f := component[q]
			for _, l := range links[f] {
				if flip[l.other] != 0 {
					continue
				}
				// Consistent neighbours induce opposite orientations on their ridge.
				flip[l.other] = -flip[f] * l.mine * l.theirs
				component = append(component, l.other)
			}
		}
		var used [][]float64
		for _, f := range component {
			if flip[f] < 0 {
				facets[f][0], facets[f][1] = facets[f][1], facets[f][0]
			}
			for _, idx := range facets[f] {
				used = append(used, m.Vertices[idx])
			}
		}
		c := dn.Centroid(used)
		var vol float64
		pts := make([][]float64, d+1)
		for _, f := range component {
			for i, idx := range facets[f] {
				pts[i] = m.Vertices[idx]
			}
			pts[d] = c
			vol += dn.SignedVolume(pts)
		}
		if vol*interiorSign(d) < 0 {
			for _, f := range component {
				facets[f][0], facets[f][1] = facets[f][1], facets[f][0]
			}
		}
	}
	return facets, nil
}

// permutationSign returns the sign of the permutation sorting ids.
func permutationSign(ids []int) int {
	sign := 1
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if ids[i] > ids[j] {
				sign = -sign
			}
		}
	}
	return sign
}

// setKey identifies an unordered set of vertex indices.
func setKey(ids []int) string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	buf := make([]byte, 0, len(sorted)*2)
	for _, id := range sorted {
		buf = binary.AppendUvarint(buf, uint64(id))
	}
	return string(buf)
}
