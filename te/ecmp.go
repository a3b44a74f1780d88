package te

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/rhartert/yagh"
)

// EdgeRatio represent an edge in a forwarding graph and the ratio of load sent
// on that edge. For example, EdgeRatio{5, 0.5} means that 50% of the load sent
// on the forwarding graph traverses edge 5.
type EdgeRatio struct {
	Edge  int
	Ratio float64
}

// ECMP computes the ratio of traffic sent on each edge when every node splits
// its traffic evenly over all the edges that lie on a shortest path toward the
// destination (Equal-Cost Multi-Path). Shortest-path DAGs are computed once
// per source and reused.
type ECMP struct {
	topo  *Topology
	prevs map[int][][]int
}

// NewECMP returns an ECMP router over topo.
func NewECMP(topo *Topology) *ECMP {
	return &ECMP{
		topo:  topo,
		prevs: map[int][][]int{},
	}
}

// EdgeRatios returns the list of EdgeRatio pairs on the forwarding graph from
// node s to node t, sorted by edge. The list is empty if s == t. An error
// wrapping ErrUnreachable is returned if t is not reachable from s.
func (r *ECMP) EdgeRatios(s int, t int) ([]EdgeRatio, error) {
	nNodes := r.topo.NumNodes()
	if s < 0 || nNodes <= s {
		return nil, invalidNode(s, nNodes)
	}
	if t < 0 || nNodes <= t {
		return nil, invalidNode(t, nNodes)
	}
	if s == t {
		return []EdgeRatio{}, nil
	}

	prevs, ok := r.prevs[s]
	if !ok {
		prevs = shortestDAG(r.topo, s)
		r.prevs[s] = prevs
	}

	ratios := forwardingGraph(r.topo, prevs, s, t)
	if len(ratios) == 0 {
		return nil, errors.Wrapf(ErrUnreachable, "no path from %s to %s", r.topo.Name(s), r.topo.Name(t))
	}
	ers := make([]EdgeRatio, 0, len(ratios))
	for e, ratio := range ratios {
		ers = append(ers, EdgeRatio{Edge: e, Ratio: ratio})
	}
	sort.Slice(ers, func(i, j int) bool {
		return ers[i].Edge < ers[j].Edge
	})
	return ers, nil
}

// Route adds the traffic of every demand to state. Demands whose destination
// is unreachable are returned and do not contribute any load.
func (r *ECMP) Route(state *NetworkState, demands []Demand) ([]Demand, error) {
	unrouted := []Demand{}
	for _, d := range demands {
		ers, err := r.EdgeRatios(d.From, d.To)
		if errors.Is(err, ErrUnreachable) {
			unrouted = append(unrouted, d)
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, er := range ers {
			state.AddLoad(er.Edge, d.Volume*er.Ratio)
		}
	}
	state.PersistChanges()
	return unrouted, nil
}

// forwardingGraph computes the fraction of load sent on each edge when sending
// traffic from node s to node t.
//
// The returned load must respect the following invariants where loadIn[n] is
// the total amount of load on edges reaching node n and loadOut[n] is the total
// amount of load on edges leaving n:
//   - loadIn[s] = 0 and loadOut[s] = 1,
//   - loadIn[t] = 1 and loadOut[t] = 0,
//   - loadIn[n] = loadOut[n] for all node n != s, t.
//
// The first phase traverses prevs from t to s to extract the DAG of all the
// shortest paths from s to t. The second phase processes that DAG in
// topological order so that the total load received by a node is known before
// it is split over its outgoing edges.
func forwardingGraph(topo *Topology, prevs [][]int, s int, t int) map[int]float64 {
	queue := []int{} // used by both steps below
	nNodes := topo.NumNodes()

	// Step 1: extract DAG
	// -------------------
	nexts := make([][]int, nNodes)
	degrees := make([]int, nNodes)

	queue = append(queue, t)
	inQueue := make([]bool, nNodes)
	inQueue[t] = true

	for i := 0; i < len(queue); i++ {
		v := queue[i]
		degrees[v] = len(prevs[v])
		for _, e := range prevs[v] {
			u := topo.Edges[e].From
			if !inQueue[u] {
				queue = append(queue, u)
				inQueue[u] = true
			}
			nexts[u] = append(nexts[u], e)
		}
	}

	edgeLoad := make(map[int]float64) // result
	if !inQueue[s] {
		return edgeLoad // t is not reachable from s
	}

	// Step 2: Compute load ratios
	// ---------------------------
	nodeLoad := make([]float64, nNodes)

	queue = queue[:0] // reset
	queue = append(queue, s)
	nodeLoad[s] = 1.0
	for i := 0; i < len(queue); i++ {
		u := queue[i]
		if u == t {
			continue
		}
		for _, e := range nexts[u] {
			v := topo.Edges[e].To

			l := nodeLoad[u] / float64(len(nexts[u]))
			edgeLoad[e] += l
			nodeLoad[v] += l

			degrees[v] -= 1
			if degrees[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	return edgeLoad
}

// shortestDAG computes and returns a DAG that encapsulates the shortest paths
// from a specified source node src to all other nodes within the topology.
//
// This function returns a slice that maps each node v in the graph to a list
// of incoming edges (u, v), where each edge is part of a shortest path from
// src to v. If a node v is unreachable from src, its list is empty.
func shortestDAG(topo *Topology, src int) [][]int {
	nNodes := topo.NumNodes()

	prevs := make([][]int, nNodes)
	costs := make([]float64, nNodes)
	for i := range costs {
		costs[i] = math.Inf(1)
	}

	h := yagh.New[float64](nNodes)
	h.Put(src, 0)
	costs[src] = 0

	for h.Size() > 0 {
		entry := h.Pop()
		u, c := entry.Elem, entry.Cost

		for _, e := range topo.Nexts[u] {
			newCost := c + topo.Edges[e].Length
			v := topo.Edges[e].To
			if v == src {
				continue
			}

			// Path src -> u -> v is worse than the best known path.
			if costs[v] < newCost-eps {
				continue
			}

			// Path src -> u -> v is one of the best paths to v so far.
			if math.Abs(costs[v]-newCost) <= eps {
				prevs[v] = append(prevs[v], e)
				continue
			}

			// Path src -> u -> v is better than the best path to v so far.
			costs[v] = newCost
			prevs[v] = []int{e}
			h.Put(v, newCost)
		}
	}

	return prevs
}
