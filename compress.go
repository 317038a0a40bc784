package simplex

import (
	"github.com/soypat/simplex/spatial"
)

// Compress merges vertices closer than Precision times the extent of the
// mesh. See CompressTol.
func Compress(m Mesh) Mesh {
	return CompressTol(m, Precision*m.Extent())
}

// CompressTol merges vertices within distance tol of each other. Vertices
// are visited in ascending index order; each vertex not yet merged becomes
// the representative of every unmerged vertex within tol of it. Simplices
// are remapped through the resulting map and kept even if they become
// degenerate. The input mesh is not modified.
func CompressTol(m Mesh, tol float64) Mesh {
	out, _ := CompressMap(m, tol)
	return out
}

// CompressMap is CompressTol that also returns the map from each vertex of
// m to its index in the compressed mesh.
func CompressMap(m Mesh, tol float64) (Mesh, []int) {
	ix := spatial.NewIndex(m.Vertices)
	canon := make([]int, len(m.Vertices))
	for i := range canon {
		canon[i] = -1
	}
	out := Mesh{Dim: m.Dim}
	for i, v := range m.Vertices {
		if canon[i] >= 0 {
			continue
		}
		id := len(out.Vertices)
		for _, j := range ix.Radius(v, tol) {
			if canon[j] < 0 {
				canon[j] = id
			}
		}
		canon[i] = id
		out.Vertices = append(out.Vertices, append([]float64(nil), v...))
	}
	if m.Simplices != nil {
		out.Simplices = make([][]int, len(m.Simplices))
		for s, idx := range m.Simplices {
			mapped := make([]int, len(idx))
			for k, i := range idx {
				mapped[k] = canon[i]
			}
			out.Simplices[s] = mapped
		}
	}
	return out, canon
}
