package te

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/righthandabacus/trimecmp/te/paths"
)

// Edge represents a directed link between two nodes. Its position in
// Topology.Edges is the link id used everywhere else (loads, paths).
type Edge struct {
	From     int
	To       int
	Length   float64
	Capacity float64
}

// Topology represents the network as a directed multigraph. A topology is
// built once and is read-only afterwards.
type Topology struct {
	Names []string
	Nexts [][]int
	Edges []Edge

	byName map[string]int
}

// NewTopology creates a new topology with the specified edges and number of
// nodes. It is important to ensure that edges are only between nodes within
// the range [0, nNodes); otherwise, the function will panic. Use Validate on
// edges that come from untrusted input.
func NewTopology(edges []Edge, nNodes int) *Topology {
	topo := &Topology{
		Nexts: make([][]int, nNodes),
		Edges: make([]Edge, len(edges)),
	}
	for i, e := range edges {
		topo.Edges[i] = e
		topo.Nexts[e.From] = append(topo.Nexts[e.From], i)
	}
	return topo
}

// NewNamedTopology is like NewTopology but names the nodes. The number of
// nodes is len(names). It returns an error wrapping ErrInvalidTopology if an
// edge is invalid.
func NewNamedTopology(edges []Edge, names []string) (*Topology, error) {
	if err := Validate(edges, len(names)); err != nil {
		return nil, err
	}
	topo := NewTopology(edges, len(names))
	topo.Names = append([]string(nil), names...)
	topo.byName = make(map[string]int, len(names))
	for i, n := range names {
		if _, ok := topo.byName[n]; ok {
			return nil, errors.Wrapf(ErrInvalidTopology, "duplicate node %q", n)
		}
		topo.byName[n] = i
	}
	return topo, nil
}

// Validate checks that every edge connects nodes in [0, nNodes) and has a
// non-negative length and a positive capacity.
func Validate(edges []Edge, nNodes int) error {
	for i, e := range edges {
		if e.From < 0 || nNodes <= e.From {
			return errors.WithMessagef(invalidNode(e.From, nNodes), "edge %d", i)
		}
		if e.To < 0 || nNodes <= e.To {
			return errors.WithMessagef(invalidNode(e.To, nNodes), "edge %d", i)
		}
		if e.Length < 0 || math.IsNaN(e.Length) {
			return errors.Wrapf(ErrInvalidTopology, "edge %d: negative length %v", i, e.Length)
		}
		if !(e.Capacity > 0) {
			return errors.Wrapf(ErrInvalidTopology, "edge %d: capacity must be positive, got %v", i, e.Capacity)
		}
	}
	return nil
}

// NumNodes returns the number of nodes.
func (t *Topology) NumNodes() int {
	return len(t.Nexts)
}

// Name returns the name of node n, or its index when the topology is not
// named.
func (t *Topology) Name(n int) string {
	if n < len(t.Names) {
		return t.Names[n]
	}
	return strconv.Itoa(n)
}

// Node returns the index of the node with the given name.
func (t *Topology) Node(name string) (int, bool) {
	if t.byName != nil {
		i, ok := t.byName[name]
		return i, ok
	}
	for i, n := range t.Names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Edge returns the id of the first edge from u to v.
func (t *Topology) Edge(u int, v int) (int, bool) {
	for _, e := range t.Nexts[u] {
		if t.Edges[e].To == v {
			return e, true
		}
	}
	return -1, false
}

// PathLength returns the sum of the length of the path's edges.
func (t *Topology) PathLength(p paths.Path) float64 {
	l := 0.0
	for _, e := range p.Edges() {
		l += t.Edges[e].Length
	}
	return l
}

// PathNodes returns the sequence of nodes visited by the path, including its
// source and destination.
func (t *Topology) PathNodes(p paths.Path) []int {
	nodes := make([]int, 0, p.Len()+1)
	nodes = append(nodes, p.Source())
	for _, e := range p.Edges() {
		nodes = append(nodes, t.Edges[e].To)
	}
	return nodes
}

// PathNames returns the names of the nodes visited by the path separated by
// single spaces, e.g. "A B D".
func (t *Topology) PathNames(p paths.Path) string {
	nodes := t.PathNodes(p)
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = t.Name(n)
	}
	return strings.Join(names, " ")
}

// PathFromNodes returns the path that follows the given sequence of nodes.
// Between two consecutive nodes, the first edge in topology order is used.
func (t *Topology) PathFromNodes(nodes []int) (paths.Path, error) {
	if len(nodes) == 0 {
		return paths.Path{}, errors.New("empty node sequence")
	}
	for _, n := range nodes {
		if n < 0 || t.NumNodes() <= n {
			return paths.Path{}, invalidNode(n, t.NumNodes())
		}
	}
	edges := make([]int, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		e, ok := t.Edge(nodes[i-1], nodes[i])
		if !ok {
			return paths.Path{}, errors.Errorf("no edge from %s to %s",
				t.Name(nodes[i-1]), t.Name(nodes[i]))
		}
		edges = append(edges, e)
	}
	return paths.New(nodes[0], nodes[len(nodes)-1], edges), nil
}
