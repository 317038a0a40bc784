// Package grid meshes axis aligned boxes and extrudes meshes along them.
package grid

import (
	"github.com/soypat/simplex"
)

// Interval is the axis aligned box [Lower, Upper] in R^d.
type Interval struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// Dim returns the dimension of the box.
func (iv Interval) Dim() int { return len(iv.Lower) }

// Volume returns the d-volume of the box.
func (iv Interval) Volume() float64 {
	vol := 1.0
	for k := range iv.Lower {
		vol *= iv.Upper[k] - iv.Lower[k]
	}
	return vol
}

func (iv Interval) validate() error {
	if len(iv.Lower) == 0 || len(iv.Lower) != len(iv.Upper) {
		return simplex.ErrMsg(simplex.ErrInvalidArgument, "interval bounds of dimension %d and %d", len(iv.Lower), len(iv.Upper))
	}
	for k := range iv.Lower {
		if !(iv.Lower[k] < iv.Upper[k]) {
			return simplex.ErrMsg(simplex.ErrInvalidArgument, "empty interval along axis %d", k)
		}
	}
	return nil
}

// Points returns the nodes of the regular grid dividing the box into
// divisions[k] cells along axis k. The first axis varies fastest.
func Points(iv Interval, divisions []int) ([][]float64, error) {
	if err := checkDivisions(iv, divisions); err != nil {
		return nil, err
	}
	d := iv.Dim()
	n := 1
	for _, div := range divisions {
		n *= div + 1
	}
	pts := make([][]float64, n)
	idx := make([]int, d)
	for i := range pts {
		p := make([]float64, d)
		for k := range p {
			t := float64(idx[k]) / float64(divisions[k])
			p[k] = iv.Lower[k] + t*(iv.Upper[k]-iv.Lower[k])
			if idx[k] == divisions[k] {
				p[k] = iv.Upper[k] // exact regardless of rounding
			}
		}
		pts[i] = p
		for k := 0; k < d; k++ {
			idx[k]++
			if idx[k] <= divisions[k] {
				break
			}
			idx[k] = 0
		}
	}
	return pts, nil
}

// Mesh returns the Kuhn triangulation of the box: every grid cell is split
// into d! simplices, one per ordering of the axes, each walking from the
// lowest corner of the cell to the highest one unit step at a time.
// Neighbouring cells share their faces so the result is conforming.
func Mesh(iv Interval, divisions []int) (simplex.Mesh, error) {
	pts, err := Points(iv, divisions)
	if err != nil {
		return simplex.Mesh{}, err
	}
	d := iv.Dim()
	stride := make([]int, d)
	stride[0] = 1
	for k := 1; k < d; k++ {
		stride[k] = stride[k-1] * (divisions[k-1] + 1)
	}
	perms := permutations(d)
	m := simplex.Mesh{Dim: d, Vertices: pts}
	cell := make([]int, d)
	for {
		corner := 0
		for k, c := range cell {
			corner += c * stride[k]
		}
		for _, p := range perms {
			s := make([]int, d+1)
			s[0] = corner
			for j, axis := range p {
				s[j+1] = s[j] + stride[axis]
			}
			m.Simplices = append(m.Simplices, s)
		}
		k := 0
		for ; k < d; k++ {
			cell[k]++
			if cell[k] < divisions[k] {
				break
			}
			cell[k] = 0
		}
		if k == d {
			break
		}
	}
	return m, nil
}

func checkDivisions(iv Interval, divisions []int) error {
	if err := iv.validate(); err != nil {
		return err
	}
	if len(divisions) != iv.Dim() {
		return simplex.ErrMsg(simplex.ErrInvalidArgument, "got %d divisions for dimension %d", len(divisions), iv.Dim())
	}
	for k, div := range divisions {
		if div < 1 {
			return simplex.ErrMsg(simplex.ErrInvalidArgument, "axis %d has %d divisions", k, div)
		}
	}
	return nil
}

// permutations returns the permutations of 0..n-1 in lexicographic order.
func permutations(n int) [][]int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	perms := [][]int{append([]int(nil), p...)}
	for {
		i := n - 2
		for i >= 0 && p[i] >= p[i+1] {
			i--
		}
		if i < 0 {
			return perms
		}
		j := n - 1
		for p[j] <= p[i] {
			j--
		}
		p[i], p[j] = p[j], p[i]
		for l, r := i+1, n-1; l < r; l, r = l+1, r-1 {
			p[l], p[r] = p[r], p[l]
		}
		perms = append(perms, append([]int(nil), p...))
	}
}
