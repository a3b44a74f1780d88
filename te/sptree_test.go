package te

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestBuildTree(t *testing.T) {
	inf := math.Inf(1)
	testCases := []struct {
		desc  string
		edges []Edge
		nodes int
		dest  int
		want  *Tree
	}{
		{
			desc:  "single node",
			nodes: 1,
			dest:  0,
			want: &Tree{
				Dest:     0,
				Dist:     []float64{0},
				Next:     []int{-1},
				NextEdge: []int{-1},
			},
		},
		{
			// A-->B-->D
			// |       ^
			// +-->C---+
			desc: "diamond",
			edges: []Edge{
				{0, 1, 1, 1},
				{0, 2, 1, 1},
				{1, 3, 1, 1},
				{2, 3, 1, 1},
			},
			nodes: 4,
			dest:  3,
			want: &Tree{
				Dest:     3,
				Dist:     []float64{2, 1, 1, 0},
				Next:     []int{1, 3, 3, -1},
				NextEdge: []int{0, 2, 3, -1},
			},
		},
		{
			// 0-->1-->2   3
			desc:  "unreachable",
			edges: []Edge{{0, 1, 1, 1}, {1, 2, 2, 1}},
			nodes: 4,
			dest:  2,
			want: &Tree{
				Dest:     2,
				Dist:     []float64{3, 2, 0, inf},
				Next:     []int{1, 2, -1, -1},
				NextEdge: []int{0, 1, -1, -1},
			},
		},
		{
			// 0-->1-->2 (length 1 each) and 0-->2 (length 5)
			desc:  "longer direct edge",
			edges: []Edge{{0, 2, 5, 1}, {0, 1, 1, 1}, {1, 2, 1, 1}},
			nodes: 3,
			dest:  2,
			want: &Tree{
				Dest:     2,
				Dist:     []float64{2, 1, 0},
				Next:     []int{1, 2, -1},
				NextEdge: []int{1, 2, -1},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			topo := NewTopology(tc.edges, tc.nodes)

			got, err := BuildTree(topo, tc.dest)

			if err != nil {
				t.Fatalf("BuildTree(): want no error, got %s", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("BuildTree(): mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildTree_outOfRange(t *testing.T) {
	topo := NewTopology(nil, 2)

	for _, dest := range []int{-1, 2} {
		_, err := BuildTree(topo, dest)
		if !errors.Is(err, ErrInvalidTopology) {
			t.Errorf("BuildTree(%d): want ErrInvalidTopology, got %v", dest, err)
		}
	}
}

func TestBuildTree_relaxation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 20; iter++ {
		topo := randomTopology(rng, 12, 30)
		for dest := 0; dest < topo.NumNodes(); dest++ {
			tree, err := BuildTree(topo, dest)
			if err != nil {
				t.Fatal(err)
			}
			for i, e := range topo.Edges {
				if tree.Dist[e.From] > tree.Dist[e.To]+e.Length+eps {
					t.Fatalf("edge %d (%d->%d) violates relaxation: %f > %f + %f",
						i, e.From, e.To, tree.Dist[e.From], tree.Dist[e.To], e.Length)
				}
			}
			for u := range tree.Dist {
				if u == dest || !tree.Reachable(u) {
					continue
				}
				e := topo.Edges[tree.NextEdge[u]]
				if e.To != tree.Next[u] {
					t.Fatalf("node %d: next edge does not lead to next hop", u)
				}
				if math.Abs(tree.Dist[u]-(e.Length+tree.Dist[e.To])) > eps {
					t.Fatalf("node %d: distance %f is not the tree edge length plus %f",
						u, tree.Dist[u], tree.Dist[e.To])
				}
			}
		}
	}
}

func TestTreeCache(t *testing.T) {
	topo := diamond(t)
	cache := NewTreeCache(topo)

	trees := make([]*Tree, 16)
	wg := sync.WaitGroup{}
	for i := range trees {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tree, err := cache.Tree(3)
			if err != nil {
				t.Error(err)
				return
			}
			trees[i] = tree
		}(i)
	}
	wg.Wait()

	for i, tree := range trees {
		if tree != trees[0] {
			t.Errorf("Tree(): call %d returned a different tree", i)
		}
	}
	if n := cache.Len(); n != 1 {
		t.Errorf("Len(): want 1, got %d", n)
	}
	if _, err := cache.Tree(4); !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("Tree(4): want ErrInvalidTopology, got %v", err)
	}
}

// randomTopology returns a topology with nNodes and nEdges random edges of
// length 1, 2 or 3.
func randomTopology(rng *rand.Rand, nNodes int, nEdges int) *Topology {
	edges := make([]Edge, 0, nEdges)
	for len(edges) < nEdges {
		u, v := rng.Intn(nNodes), rng.Intn(nNodes)
		if u == v {
			continue
		}
		edges = append(edges, Edge{u, v, float64(1 + rng.Intn(3)), 1})
	}
	return NewTopology(edges, nNodes)
}

func TestTree_InTree(t *testing.T) {
	// 0-->1-->2 and a parallel 0-->1 edge, 0-->2 is longer.
	topo := NewTopology([]Edge{
		{0, 1, 1, 1}, // edge: 0
		{1, 2, 1, 1}, // edge: 1
		{0, 1, 3, 1}, // edge: 2
		{0, 2, 5, 1}, // edge: 3
	}, 3)
	tree, err := BuildTree(topo, 2)
	if err != nil {
		t.Fatal(err)
	}

	want := []bool{true, true, true, false}
	got := make([]bool, len(topo.Edges))
	for e := range topo.Edges {
		got[e] = tree.InTree(topo, e)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("InTree(): mismatch (-want +got):\n%s", diff)
	}
}
