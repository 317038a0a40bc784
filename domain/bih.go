package domain

import (
	"math"
	"sort"

	"github.com/soypat/simplex/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

const leafSize = 4

// bihNode is a node of a bounding interval hierarchy. Internal nodes store
// two clipping planes along axis: the left child holds items up to
// clip[0], the right child those from clip[1] on. Leaves store the range
// [start, end) of the item permutation.
type bihNode struct {
	leaf       bool
	axis       int
	child      int // left child, the right child follows it
	clip       [2]float64
	start, end int
}

// bih answers nearest item queries over a set of items with bounding boxes.
// Two dimensional items are lifted to the plane z=0.
type bih struct {
	nodes  []bihNode
	items  []int
	bounds d3.Box
}

func newBIH(boxes []d3.Box) *bih {
	b := &bih{items: make([]int, len(boxes)), bounds: d3.EmptyBox()}
	centroids := make([]r3.Vec, len(boxes))
	for i, bb := range boxes {
		b.items[i] = i
		b.bounds = b.bounds.Extend(bb)
		centroids[i] = r3.Scale(0.5, r3.Add(bb.Min, bb.Max))
	}
	b.nodes = make([]bihNode, 1)
	b.subdivide(0, 0, len(boxes), boxes, centroids, b.bounds)
	return b
}

// subdivide splits items[start:end] at the median centroid along the
// longest axis of bb.
func (b *bih) subdivide(idx, start, end int, boxes []d3.Box, centroids []r3.Vec, bb d3.Box) {
	if end-start <= leafSize {
		b.nodes[idx] = bihNode{leaf: true, start: start, end: end}
		return
	}
	axis := bb.LongestAxis()
	part := b.items[start:end]
	sort.Slice(part, func(i, j int) bool {
		return d3.Comp(centroids[part[i]], axis) < d3.Comp(centroids[part[j]], axis)
	})
	mid := start + (end-start)/2
	left, right := d3.EmptyBox(), d3.EmptyBox()
	for _, it := range b.items[start:mid] {
		left = left.Extend(boxes[it])
	}
	for _, it := range b.items[mid:end] {
		right = right.Extend(boxes[it])
	}
	child := len(b.nodes)
	b.nodes = append(b.nodes, bihNode{}, bihNode{})
	b.subdivide(child, start, mid, boxes, centroids, left)
	b.subdivide(child+1, mid, end, boxes, centroids, right)
	b.nodes[idx] = bihNode{
		axis:  axis,
		child: child,
		clip:  [2]float64{d3.Comp(left.Max, axis), d3.Comp(right.Min, axis)},
	}
}

// nearest returns the item minimizing dist2 and that squared distance.
// dist2 must never be smaller than the squared distance from the query to
// the item's bounding box. It returns -1 for an empty hierarchy.
func (b *bih) nearest(p r3.Vec, dist2 func(item int) float64) (item int, d2 float64) {
	if len(b.items) == 0 {
		return -1, math.Inf(1)
	}
	return b.nearestHelper(p, 0, b.bounds, dist2, -1, math.Inf(1))
}

func (b *bih) nearestHelper(p r3.Vec, idx int, bb d3.Box, dist2 func(int) float64, best int, bestD2 float64) (int, float64) {
	node := &b.nodes[idx]
	if node.leaf {
		for _, it := range b.items[node.start:node.end] {
			if d := dist2(it); d < bestD2 {
				best, bestD2 = it, d
			}
		}
		return best, bestD2
	}
	// Visit the closer child first.
	leftBB, rightBB := bb.Clip(node.axis, node.clip[0], node.clip[1])
	leftD2, rightD2 := leftBB.Dist2(p), rightBB.Dist2(p)
	first, second := node.child, node.child+1
	firstBB, secondBB := leftBB, rightBB
	firstD2, secondD2 := leftD2, rightD2
	if rightD2 < leftD2 {
		first, second = second, first
		firstBB, secondBB = secondBB, firstBB
		firstD2, secondD2 = secondD2, firstD2
	}
	if firstD2 < bestD2 {
		best, bestD2 = b.nearestHelper(p, first, firstBB, dist2, best, bestD2)
	}
	if secondD2 < bestD2 {
		best, bestD2 = b.nearestHelper(p, second, secondBB, dist2, best, bestD2)
	}
	return best, bestD2
}
