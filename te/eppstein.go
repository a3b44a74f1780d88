package te

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rhartert/yagh"

	"github.com/righthandabacus/trimecmp/te/paths"
)

// DefaultMaxQueued is the default bound on the number of sidetrack sets an
// Enumerator keeps in its expansion queue.
const DefaultMaxQueued = 1 << 18

// eps is the tolerance used when comparing accumulated path costs and loads.
const eps = 1e-9

// Budget bounds the enumeration of paths between two nodes.
type Budget struct {
	// MaxPaths is the maximum number of paths returned by an enumeration. A
	// non-positive value does not limit the number of paths (the enumeration
	// is still bounded by MaxQueued).
	MaxPaths int

	// Overshoot is the tolerated excess length of a path, expressed as a
	// percentage of the shortest path length. A negative value does not
	// limit the length of paths.
	Overshoot float64

	// ShortestOnly restricts the enumeration to alternate shortest paths,
	// i.e. sidetracks with a delta of zero.
	ShortestOnly bool

	// MaxQueued bounds the number of sidetrack sets that can be generated by
	// a single enumeration. Zero means DefaultMaxQueued.
	MaxQueued int
}

// Sidetrack is an edge outside the shortest-path tree together with the
// extra length paid when taking it instead of the tree edge of its tail.
type Sidetrack struct {
	Edge  int
	Delta float64
}

// Sidetracks returns the sidetrack candidates of tree in increasing edge id
// order. An edge (u, v) is a candidate if it is not a tree edge, both u and v
// can reach the destination, and v's tree edge does not lead straight back to
// u. If shortestOnly is true, only zero-delta candidates are returned.
func Sidetracks(topo *Topology, tree *Tree, shortestOnly bool) []Sidetrack {
	sts := []Sidetrack{}
	for i, e := range topo.Edges {
		if e.From == tree.Dest {
			continue // paths end at the destination
		}
		if !tree.Reachable(e.From) || !tree.Reachable(e.To) {
			continue
		}
		if tree.InTree(topo, i) || tree.Next[e.To] == e.From {
			continue
		}
		delta := e.Length + tree.Dist[e.To] - tree.Dist[e.From]
		if delta < eps {
			delta = 0 // rounding errors on distances
		}
		if shortestOnly && delta != 0 {
			continue
		}
		sts = append(sts, Sidetrack{Edge: i, Delta: delta})
	}
	return sts
}

// Sidetrack2Path decodes a set of sidetrack edges into the path from src to
// the tree's destination. The walk follows the tree except at nodes where one
// of the sidetracks originates. The second returned value is false if the
// walk revisits a node or reaches a node that cannot reach the destination.
//
// No two sidetracks are expected to originate from the same node.
func Sidetrack2Path(topo *Topology, tree *Tree, sidetracks []int, src int) (paths.Path, bool) {
	visited := make(map[int]bool, 8)
	edges := []int{}
	for current := src; current != tree.Dest; {
		if visited[current] {
			return paths.Path{}, false
		}
		visited[current] = true

		next := tree.NextEdge[current]
		for _, st := range sidetracks {
			if topo.Edges[st].From == current {
				next = st
				break
			}
		}
		if next == -1 {
			return paths.Path{}, false
		}
		edges = append(edges, next)
		current = topo.Edges[next].To
	}
	return paths.New(src, tree.Dest, edges), true
}

type sidetrackSet struct {
	edges []int // sorted
	delta float64
	path  paths.Path
}

// Enumerator lazily enumerates loop-free paths from a source to the
// destination of a shortest-path tree in non-decreasing length order. It
// implements Eppstein's sidetrack-based algorithm: each path is represented
// by the set of non-tree edges it takes, and new paths are generated by
// adding one sidetrack to a previously returned set.
type Enumerator struct {
	topo     *Topology
	tree     *Tree
	src      int
	budget   Budget
	maxDelta float64
	cands    []Sidetrack

	sets     []sidetrackSet
	queue    *yagh.IntMap[float64]
	seen     map[string]bool
	capacity int
	dropped  bool
	yielded  int
}

// NewEnumerator returns an enumerator of the paths from src to tree.Dest.
func NewEnumerator(topo *Topology, tree *Tree, src int, budget Budget) (*Enumerator, error) {
	if src < 0 || topo.NumNodes() <= src {
		return nil, invalidNode(src, topo.NumNodes())
	}

	en := &Enumerator{
		topo:   topo,
		tree:   tree,
		src:    src,
		budget: budget,
		seen:   map[string]bool{},
	}
	if !tree.Reachable(src) {
		return en, nil // nothing to enumerate
	}

	en.maxDelta = math.Inf(1)
	if budget.Overshoot >= 0 {
		en.maxDelta = tree.Dist[src] * budget.Overshoot / 100
	}
	en.cands = Sidetracks(topo, tree, budget.ShortestOnly)
	en.capacity = queueCapacity(budget, len(en.cands))
	en.queue = yagh.New[float64](en.capacity)

	root, _ := Sidetrack2Path(topo, tree, nil, src)
	en.push(sidetrackSet{edges: []int{}, path: root})
	en.seen[""] = true

	return en, nil
}

func queueCapacity(budget Budget, nCands int) int {
	maxQueued := budget.MaxQueued
	if maxQueued <= 0 {
		maxQueued = DefaultMaxQueued
	}
	if budget.MaxPaths <= 0 || nCands == 0 {
		if nCands == 0 {
			return 1
		}
		return maxQueued
	}
	if budget.MaxPaths > (maxQueued-1)/nCands {
		return maxQueued
	}
	return 1 + budget.MaxPaths*nCands
}

// Next returns the next path of the enumeration and its length. The last
// returned value is false once the paths are exhausted or the budget is met.
func (en *Enumerator) Next() (paths.Path, float64, bool) {
	if en.queue == nil || en.queue.Size() == 0 {
		return paths.Path{}, 0, false
	}
	if en.budget.MaxPaths > 0 && en.yielded >= en.budget.MaxPaths {
		return paths.Path{}, 0, false
	}

	entry := en.queue.Pop()
	set := en.sets[entry.Elem]
	if en.budget.MaxPaths <= 0 || en.yielded+1 < en.budget.MaxPaths {
		en.expand(set) // children of the last path could never be returned
	}
	en.yielded++

	return set.path, entry.Cost, true
}

// Truncated returns true if sidetrack sets were dropped because the
// expansion queue reached its capacity.
func (en *Enumerator) Truncated() bool {
	return en.dropped
}

func (en *Enumerator) expand(set sidetrackSet) {
	for _, c := range en.cands {
		// No two sidetracks may originate from the same node.
		tail := en.topo.Edges[c.Edge].From
		if en.hasOrigin(set.edges, tail) {
			continue
		}

		delta := set.delta + c.Delta
		if delta > en.maxDelta+eps {
			continue
		}

		edges := insertSorted(set.edges, c.Edge)
		key := setKey(edges)
		if en.seen[key] {
			continue
		}
		en.seen[key] = true // acceptance only depends on the set itself

		p, ok := Sidetrack2Path(en.topo, en.tree, edges, en.src)
		if !ok || !traversesAll(p, edges) {
			continue
		}
		if len(en.sets) >= en.capacity {
			en.dropped = true
			return
		}
		en.push(sidetrackSet{edges: edges, delta: delta, path: p})
	}
}

func (en *Enumerator) push(set sidetrackSet) {
	en.queue.Put(len(en.sets), en.tree.Dist[en.src]+set.delta)
	en.sets = append(en.sets, set)
}

func (en *Enumerator) hasOrigin(edges []int, node int) bool {
	for _, e := range edges {
		if en.topo.Edges[e].From == node {
			return true
		}
	}
	return false
}

// EnumeratePaths returns all the paths from src to tree.Dest within the
// budget, ordered by non-decreasing length.
func EnumeratePaths(topo *Topology, tree *Tree, src int, budget Budget) ([]paths.Path, error) {
	en, err := NewEnumerator(topo, tree, src, budget)
	if err != nil {
		return nil, err
	}
	ps := []paths.Path{}
	for {
		p, _, ok := en.Next()
		if !ok {
			return ps, nil
		}
		ps = append(ps, p)
	}
}

func insertSorted(edges []int, e int) []int {
	i := sort.SearchInts(edges, e)
	res := make([]int, 0, len(edges)+1)
	res = append(res, edges[:i]...)
	res = append(res, e)
	return append(res, edges[i:]...)
}

func setKey(edges []int) string {
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = strconv.Itoa(e)
	}
	return strings.Join(parts, ",")
}

func traversesAll(p paths.Path, edges []int) bool {
	for _, e := range edges {
		if !p.Contains(e) {
			return false
		}
	}
	return true
}
