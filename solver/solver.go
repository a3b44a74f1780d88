// Package solver distributes a traffic matrix over k loop-free paths per
// demand so as to minimize the load of the most loaded link.
//
// Routing happens in two phases. Route greedily admits up to k paths per
// demand, picking each time the candidate whose most utilized link is the
// least utilized and only admitting additional paths when they do not
// increase the maximum load. Rebalance then repeatedly moves demands away
// from the most loaded links until no improving move remains.
package solver

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/rhartert/sparsesets"
	"github.com/rhartert/yagh"
	"go.uber.org/zap"

	"github.com/righthandabacus/trimecmp/te"
	"github.com/righthandabacus/trimecmp/te/paths"
)

// eps is the tolerance used when comparing loads.
const eps = 1e-9

// Assignment is the set of paths admitted for a demand. The demand's volume
// is split evenly over the paths.
type Assignment struct {
	Demand te.Demand
	Paths  []paths.Path
}

// Share returns the volume routed over each path of the assignment.
func (a Assignment) Share() float64 {
	if len(a.Paths) == 0 {
		return 0
	}
	return a.Demand.Volume / float64(len(a.Paths))
}

type Solver struct {
	Topology *te.Topology
	Demands  []te.Demand
	State    *te.NetworkState
	Cfg      Config

	trees *te.TreeCache
	rng   *rand.Rand
	log   *zap.Logger

	// Admitted paths and enumerated candidates of each demand.
	assigned   [][]paths.Path
	candidates [][]paths.Path
	enumerated bool

	// Maintain the most loaded edge.
	edgesByLoad *yagh.IntMap[float64]

	// Pre-allocated sets of edges reused by the rebalancing passes.
	hot *sparsesets.Set
}

// New returns a solver that routes demands over topo. Every demand must be
// between nodes of the topology and no two demands may share the same pair
// of nodes.
func New(topo *te.Topology, demands []te.Demand, cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	nNodes := topo.NumNodes()
	seen := make(map[te.Pair]bool, len(demands))
	for _, d := range demands {
		if d.From < 0 || nNodes <= d.From || d.To < 0 || nNodes <= d.To {
			return nil, errors.Wrapf(te.ErrInvalidTopology,
				"demand (%d,%d) references a node not in [0, %d)", d.From, d.To, nNodes)
		}
		if d.Volume < 0 || math.IsNaN(d.Volume) {
			return nil, errors.Errorf("demand (%d,%d) has a negative volume", d.From, d.To)
		}
		if seen[d.Pair()] {
			return nil, errors.Errorf("duplicate demand (%d,%d)", d.From, d.To)
		}
		seen[d.Pair()] = true
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	nEdges := len(topo.Edges)
	edgesByLoad := yagh.New[float64](nEdges)
	for e := 0; e < nEdges; e++ {
		edgesByLoad.Put(e, 0)
	}

	return &Solver{
		Topology:    topo,
		Demands:     append([]te.Demand(nil), demands...),
		State:       te.NewNetworkState(nEdges),
		Cfg:         cfg,
		trees:       te.NewTreeCache(topo),
		rng:         rng,
		log:         logger,
		assigned:    make([][]paths.Path, len(demands)),
		candidates:  make([][]paths.Path, len(demands)),
		edgesByLoad: edgesByLoad,
		hot:         sparsesets.New(nEdges),
	}, nil
}

// MostLoadedEdge returns the ID of the edge with the highest load, or -1 if
// the topology has no edges.
func (s *Solver) MostLoadedEdge() int {
	entry := s.edgesByLoad.Min()
	if entry == nil {
		return -1
	}
	return entry.Elem
}

// MaxLoad returns the maximum edge load.
func (s *Solver) MaxLoad() float64 {
	e := s.MostLoadedEdge()
	if e == -1 {
		return 0
	}
	return s.State.Load(e)
}

// Utilization returns the load of edge divided by its capacity.
func (s *Solver) Utilization(edge int) float64 {
	return s.State.Load(edge) / s.Topology.Edges[edge].Capacity
}

// MaxUtilization returns the maximum edge utilization.
func (s *Solver) MaxUtilization() float64 {
	m := 0.0
	for e := range s.Topology.Edges {
		m = math.Max(m, s.Utilization(e))
	}
	return m
}

// Assignments returns the paths admitted for each demand, in the order in
// which demands were given to New.
func (s *Solver) Assignments() []Assignment {
	as := make([]Assignment, len(s.Demands))
	for i, d := range s.Demands {
		as[i] = Assignment{
			Demand: d,
			Paths:  append([]paths.Path(nil), s.assigned[i]...),
		}
	}
	return as
}

// Unrouted returns the demands that have no admitted path.
func (s *Solver) Unrouted() []te.Demand {
	ds := []te.Demand{}
	for i, d := range s.Demands {
		if len(s.assigned[i]) == 0 {
			ds = append(ds, d)
		}
	}
	return ds
}

// Candidates returns the candidate paths of the i-th demand, enumerating them
// if needed.
func (s *Solver) Candidates(i int) ([]paths.Path, error) {
	if err := s.enumerateAll(); err != nil {
		return nil, err
	}
	return s.candidates[i], nil
}

// Admit adds path p to the paths of the i-th demand and splits the demand's
// volume evenly over all its paths. Unlike Route, Admit neither enforces K
// nor checks that the maximum load does not increase.
func (s *Solver) Admit(i int, p paths.Path) error {
	if i < 0 || len(s.Demands) <= i {
		return errors.Errorf("demand %d does not exist", i)
	}
	d := s.Demands[i]
	if p.Source() != d.From || p.Destination() != d.To {
		return errors.Errorf("path %s does not join %s to %s",
			p, s.Topology.Name(d.From), s.Topology.Name(d.To))
	}
	if paths.Index(s.assigned[i], p) != -1 {
		return errors.Errorf("path %s already admitted", p)
	}
	for _, e := range p.Edges() {
		if e < 0 || len(s.Topology.Edges) <= e {
			return errors.Errorf("path %s uses unknown edge %d", p, e)
		}
	}
	s.split(i, p)
	s.persist()
	return nil
}

// split adds p to the paths of demand i and re-splits the demand's volume
// evenly. Changes are not persisted.
func (s *Solver) split(i int, p paths.Path) {
	vol := s.Demands[i].Volume
	n := float64(len(s.assigned[i]))
	if n > 0 {
		delta := vol/(n+1) - vol/n
		for _, q := range s.assigned[i] {
			for _, e := range q.Edges() {
				s.State.AddLoad(e, delta)
			}
		}
	}
	for _, e := range p.Edges() {
		s.State.AddLoad(e, vol/(n+1))
	}
	s.assigned[i] = append(s.assigned[i], p)
}

// replace swaps path old of demand i with p, keeping the number of paths and
// thus the share of each path unchanged. Changes are not persisted.
func (s *Solver) replace(i int, old paths.Path, p paths.Path) {
	share := s.Demands[i].Volume / float64(len(s.assigned[i]))
	for _, e := range old.Edges() {
		s.State.RemoveLoad(e, share)
	}
	for _, e := range p.Edges() {
		s.State.AddLoad(e, share)
	}
	pos := paths.Index(s.assigned[i], old)
	s.assigned[i] = append(s.assigned[i][:pos:pos], s.assigned[i][pos+1:]...)
	s.assigned[i] = append(s.assigned[i], p)
}

// persist persists the state's changes after updating the index of edges
// sorted by load.
func (s *Solver) persist() {
	for _, lc := range s.State.Changes() {
		s.edgesByLoad.Put(lc.Edge, -s.State.Load(lc.Edge)) // non-increasing order
	}
	s.State.PersistChanges()
}

// cost returns the utilization of the most utilized edge of p.
func (s *Solver) cost(p paths.Path) float64 {
	c := 0.0
	for _, e := range p.Edges() {
		c = math.Max(c, s.Utilization(e))
	}
	return c
}

// maxLoadOn returns the load of the most loaded edge of p.
func (s *Solver) maxLoadOn(p paths.Path) float64 {
	m := 0.0
	for _, e := range p.Edges() {
		m = math.Max(m, s.State.Load(e))
	}
	return m
}

// choose returns the path of minimum cost. Ties are broken by choosing the
// shortest path, then randomly. ps must not be empty.
func (s *Solver) choose(ps []paths.Path) paths.Path {
	minCost := math.Inf(1)
	for _, p := range ps {
		minCost = math.Min(minCost, s.cost(p))
	}

	minLen := math.Inf(1)
	pool := make([]paths.Path, 0, len(ps))
	for _, p := range ps {
		if s.cost(p) > minCost+eps {
			continue
		}
		l := s.Topology.PathLength(p)
		switch {
		case l < minLen-eps:
			minLen = l
			pool = append(pool[:0], p)
		case l <= minLen+eps:
			pool = append(pool, p)
		}
	}

	return pool[s.rng.Intn(len(pool))]
}

// enumerateAll enumerates the candidate paths of every demand. Demands are
// independent, so enumerations run on a pool of workers sharing the cache
// of shortest-path trees.
func (s *Solver) enumerateAll() error {
	if s.enumerated {
		return nil
	}

	workers := s.Cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return errors.Wrap(err, "creating worker pool")
	}
	defer pool.Release()

	budget := s.Cfg.Budget()
	errs := make([]error, len(s.Demands))
	truncated := make([]bool, len(s.Demands))
	wg := sync.WaitGroup{}
	for i := range s.Demands {
		i := i
		wg.Add(1)
		task := func() {
			defer wg.Done()
			d := s.Demands[i]
			tree, err := s.trees.Tree(d.To)
			if err != nil {
				errs[i] = err
				return
			}
			en, err := te.NewEnumerator(s.Topology, tree, d.From, budget)
			if err != nil {
				errs[i] = err
				return
			}
			ps := []paths.Path{}
			for p, _, ok := en.Next(); ok; p, _, ok = en.Next() {
				ps = append(ps, p)
			}
			s.candidates[i] = ps
			truncated[i] = en.Truncated()
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			wg.Wait()
			return errors.Wrap(err, "submitting enumeration")
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			d := s.Demands[i]
			return errors.Wrapf(err, "enumerating paths from %s to %s",
				s.Topology.Name(d.From), s.Topology.Name(d.To))
		}
	}

	for i, t := range truncated {
		if t {
			s.log.Warn("Candidate enumeration hit the queue limit",
				zap.String("pair", s.pairName(i)),
				zap.Int("candidates", len(s.candidates[i])))
		}
	}

	s.enumerated = true
	s.log.Debug("Enumerated candidate paths",
		zap.Int("demands", len(s.Demands)),
		zap.Int("trees", s.trees.Len()))
	return nil
}

func (s *Solver) pairName(i int) string {
	d := s.Demands[i]
	return "(" + s.Topology.Name(d.From) + "," + s.Topology.Name(d.To) + ")"
}
