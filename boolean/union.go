package boolean

import (
	"github.com/soypat/simplex"
	"github.com/soypat/simplex/internal/dn"
)

// Union concatenates meshes of equal dimension, offsetting the vertex
// indices of each mesh by the vertex count of those before it. Overlapping
// regions are not merged and shared vertices are not deduplicated; see
// simplex.Compress.
func Union(meshes ...simplex.Mesh) (simplex.Mesh, error) {
	if len(meshes) == 0 {
		return simplex.Empty(0), nil
	}
	out := simplex.Mesh{Dim: meshes[0].Dim}
	for k, m := range meshes {
		if m.Dim != out.Dim {
			return simplex.Mesh{}, simplex.ErrMsg(simplex.ErrInvalidArgument, "mesh %d has dimension %d, want %d", k, m.Dim, out.Dim)
		}
		offset := len(out.Vertices)
		out.Vertices = append(out.Vertices, dn.Copy(m.Vertices)...)
		for _, s := range m.Simplices {
			shifted := make([]int, len(s))
			for i, idx := range s {
				shifted[i] = idx + offset
			}
			out.Simplices = append(out.Simplices, shifted)
		}
	}
	return out, nil
}
