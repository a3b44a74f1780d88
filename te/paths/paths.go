// Package paths provides an immutable representation of paths as sequences
// of link ids.
package paths

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is a walk from a source node to a destination node, represented by the
// ids of the edges it traverses. A path from a node to itself has no edges.
//
// Paths are values: the edge slice is never modified after construction and
// can be shared between copies.
type Path struct {
	src   int
	dst   int
	edges []int
}

// New instantiates and returns a new Path. The edges slice is copied.
func New(src int, dst int, edges []int) Path {
	return Path{
		src:   src,
		dst:   dst,
		edges: append([]int(nil), edges...),
	}
}

// Source returns the first node of the path.
func (p Path) Source() int {
	return p.src
}

// Destination returns the last node of the path.
func (p Path) Destination() int {
	return p.dst
}

// Len returns the number of edges in the path.
func (p Path) Len() int {
	return len(p.edges)
}

// Edge returns the edge at position pos starting from 0.
func (p Path) Edge(pos int) int {
	return p.edges[pos]
}

// Edges returns the sequence of edges in the path.
//
// Important: the slice is a view on the path's internal structure and should
// only be used in read-only operations.
func (p Path) Edges() []int {
	return p.edges
}

// Contains returns true if the path traverses edge e.
func (p Path) Contains(e int) bool {
	for _, pe := range p.edges {
		if pe == e {
			return true
		}
	}
	return false
}

// Equal returns true if both paths have the same endpoints and traverse the
// same edges in the same order.
func (p Path) Equal(q Path) bool {
	if p.src != q.src || p.dst != q.dst || len(p.edges) != len(q.edges) {
		return false
	}
	for i, e := range p.edges {
		if q.edges[i] != e {
			return false
		}
	}
	return true
}

// Key returns a string that uniquely identifies the path and can be used as a
// map key.
func (p Path) Key() string {
	sb := strings.Builder{}
	sb.WriteString(strconv.Itoa(p.src))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(p.dst))
	for _, e := range p.edges {
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(e))
	}
	return sb.String()
}

// String returns a representation of the path as its endpoints followed by
// its edges. For example: "0->3 [4 7 2]".
func (p Path) String() string {
	return fmt.Sprintf("%d->%d %v", p.src, p.dst, p.edges)
}

// Index returns the position of the first path in ps equal to p, or -1.
func Index(ps []Path, p Path) int {
	for i, q := range ps {
		if q.Equal(p) {
			return i
		}
	}
	return -1
}
