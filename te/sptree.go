package te

import (
	"math"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Tree is a shortest-path tree rooted at a destination node. For every node
// u that can reach the destination, Dist[u] is the length of the shortest
// path from u to the destination and NextEdge[u] is the first edge of that
// path. Nodes that cannot reach the destination have an infinite distance
// and no next hop.
type Tree struct {
	Dest     int
	Dist     []float64
	Next     []int // next hop toward Dest, -1 if none
	NextEdge []int // edge to Next, -1 if none
}

// Reachable returns true if node u has a path to the tree's destination.
func (t *Tree) Reachable(u int) bool {
	return !math.IsInf(t.Dist[u], 1)
}

// InTree returns true if edge e is the tree edge of its tail node. Parallel
// edges toward the same next hop are all considered to be in the tree.
func (t *Tree) InTree(topo *Topology, e int) bool {
	edge := topo.Edges[e]
	return t.Next[edge.From] == edge.To
}

// BuildTree computes the shortest-path tree of all nodes toward dest using
// the Bellman-Ford relaxation. Edges are relaxed in topology order for at most
// NumNodes()-1 rounds, stopping early once a round leaves all distances
// unchanged.
func BuildTree(topo *Topology, dest int) (*Tree, error) {
	nNodes := topo.NumNodes()
	if dest < 0 || nNodes <= dest {
		return nil, invalidNode(dest, nNodes)
	}

	tree := &Tree{
		Dest:     dest,
		Dist:     make([]float64, nNodes),
		Next:     make([]int, nNodes),
		NextEdge: make([]int, nNodes),
	}
	for u := range tree.Dist {
		tree.Dist[u] = math.Inf(1)
		tree.Next[u] = -1
		tree.NextEdge[u] = -1
	}
	tree.Dist[dest] = 0

	for round := 0; round < nNodes-1; round++ {
		updated := false
		for i, e := range topo.Edges {
			if d := tree.Dist[e.To] + e.Length; tree.Dist[e.From] > d {
				tree.Dist[e.From] = d
				tree.Next[e.From] = e.To
				tree.NextEdge[e.From] = i
				updated = true
			}
		}
		if !updated {
			break
		}
	}

	return tree, nil
}

// TreeCache memoizes shortest-path trees by destination. It is safe for
// concurrent use: concurrent requests for the same destination share a single
// computation.
type TreeCache struct {
	topo *Topology

	mu    sync.RWMutex
	trees map[int]*Tree
	group singleflight.Group
}

// NewTreeCache returns an empty cache of trees over topo.
func NewTreeCache(topo *Topology) *TreeCache {
	return &TreeCache{
		topo:  topo,
		trees: map[int]*Tree{},
	}
}

// Tree returns the shortest-path tree toward dest, building it on first use.
func (c *TreeCache) Tree(dest int) (*Tree, error) {
	c.mu.RLock()
	tree, ok := c.trees[dest]
	c.mu.RUnlock()
	if ok {
		return tree, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(dest), func() (interface{}, error) {
		c.mu.RLock()
		tree, ok := c.trees[dest]
		c.mu.RUnlock()
		if ok {
			return tree, nil
		}
		tree, err := BuildTree(c.topo, dest)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.trees[dest] = tree
		c.mu.Unlock()
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tree), nil
}

// Len returns the number of trees in the cache.
func (c *TreeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.trees)
}
