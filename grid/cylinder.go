package grid

import (
	"sort"

	"github.com/soypat/simplex"
)

// Cylinder is the cartesian product of a base mesh and a box. The product
// space has dimension Base.Dim + Extension.Dim(); Injection lists the
// coordinates taken by the box, the base fills the remaining ones in
// ascending order.
type Cylinder struct {
	Base      simplex.Mesh
	Extension Interval
	Injection []int
	// Discretization is the number of cells along each axis of the box.
	Discretization int
}

func (c Cylinder) complement() ([]int, error) {
	if err := c.Extension.validate(); err != nil {
		return nil, err
	}
	if len(c.Injection) != c.Extension.Dim() {
		return nil, simplex.ErrMsg(simplex.ErrInvalidArgument, "injection of size %d for extension of dimension %d", len(c.Injection), c.Extension.Dim())
	}
	dim := c.Base.Dim + c.Extension.Dim()
	taken := make([]bool, dim)
	for _, j := range c.Injection {
		if j < 0 || j >= dim || taken[j] {
			return nil, simplex.ErrMsg(simplex.ErrInvalidArgument, "bad injection index %d", j)
		}
		taken[j] = true
	}
	var comp []int
	for j, t := range taken {
		if !t {
			comp = append(comp, j)
		}
	}
	sort.Ints(comp)
	return comp, nil
}

func (c Cylinder) combine(comp []int, base, ext []float64) []float64 {
	p := make([]float64, len(comp)+len(c.Injection))
	for j, k := range comp {
		p[k] = base[j]
	}
	for j, k := range c.Injection {
		p[k] = ext[j]
	}
	return p
}

// Vertices returns the product of the base vertices with the nodes of the
// grid over Extension. The extension index varies fastest.
func (c Cylinder) Vertices() ([][]float64, error) {
	comp, err := c.complement()
	if err != nil {
		return nil, err
	}
	if c.Discretization < 1 {
		return nil, simplex.ErrMsg(simplex.ErrInvalidArgument, "discretization %d", c.Discretization)
	}
	divisions := make([]int, c.Extension.Dim())
	for i := range divisions {
		divisions[i] = c.Discretization
	}
	ext, err := Points(c.Extension, divisions)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, 0, len(c.Base.Vertices)*len(ext))
	for _, b := range c.Base.Vertices {
		for _, e := range ext {
			out = append(out, c.combine(comp, b, e))
		}
	}
	return out, nil
}

// Bounds returns the corners of the bounding box of the cylinder.
func (c Cylinder) Bounds() (lower, upper []float64, err error) {
	comp, err := c.complement()
	if err != nil {
		return nil, nil, err
	}
	if len(c.Base.Vertices) == 0 {
		return nil, nil, simplex.ErrMsg(simplex.ErrInvalidArgument, "base has no vertices")
	}
	lo, hi := c.Base.Bounds()
	return c.combine(comp, lo, c.Extension.Lower), c.combine(comp, hi, c.Extension.Upper), nil
}

// Volume returns the volume of the base times the volume of the extension.
func (c Cylinder) Volume() float64 {
	return c.Base.Volume() * c.Extension.Volume()
}
