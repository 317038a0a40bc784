package boolean

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/soypat/simplex"
	"github.com/soypat/simplex/internal/dn"
)

// boxTree is an R-tree over the bounding boxes of the simplices of a mesh.
type boxTree struct {
	tree  *rtreego.Rtree
	boxes []dn.Box
	pad   float64
}

type boxItem struct {
	id   int
	rect rtreego.Rect
}

func (b *boxItem) Bounds() rtreego.Rect { return b.rect }

func newBoxTree(m simplex.Mesh) *boxTree {
	bt := &boxTree{boxes: make([]dn.Box, len(m.Simplices))}
	// rtreego rejects rectangles with zero length sides.
	bt.pad = simplex.RecompressFactor * m.Extent()
	if bt.pad == 0 {
		bt.pad = simplex.RecompressFactor
	}
	items := make([]rtreego.Spatial, len(m.Simplices))
	for i := range m.Simplices {
		bt.boxes[i] = dn.BoxOf(m.SimplexVertices(i))
		items[i] = &boxItem{id: i, rect: bt.rect(bt.boxes[i])}
	}
	bt.tree = rtreego.NewTree(m.Dim, 25, 50, items...)
	return bt
}

func (bt *boxTree) rect(b dn.Box) rtreego.Rect {
	lengths := make([]float64, len(b.Min))
	for i := range lengths {
		lengths[i] = math.Max(b.Max[i]-b.Min[i], bt.pad)
	}
	r, err := rtreego.NewRect(rtreego.Point(append([]float64(nil), b.Min...)), lengths)
	if err != nil {
		panic(err) // unreachable: lengths are positive.
	}
	return r
}

// overlapping returns the simplices whose bounding box interior meets the
// interior of b, in ascending order.
func (bt *boxTree) overlapping(b dn.Box) []int {
	var ids []int
	for _, s := range bt.tree.SearchIntersect(bt.rect(b)) {
		id := s.(*boxItem).id
		if bt.boxes[id].Overlaps(b) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
