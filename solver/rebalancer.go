package solver

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/righthandabacus/trimecmp/te/paths"
)

type heavyPath struct {
	demand int
	path   paths.Path
}

// Rebalance moves traffic away from the most loaded edges until no improving
// move exists and returns the number of moves applied.
//
// Each pass finds the edges whose load equals the maximum load (hot edges)
// and the admitted paths traversing them. For each such path, it looks for a
// candidate of the same demand that avoids all hot edges, is not admitted
// yet, and can take its share of the demand without reaching the maximum
// load. If the demand has fewer than K paths, the candidate is added and the
// volume re-split; otherwise, it replaces the heavy path. Passes stop after
// one without any move, or after MaxPasses passes if set.
func (s *Solver) Rebalance() (int, error) {
	if err := s.enumerateAll(); err != nil {
		return 0, err
	}

	moves := 0
	before := s.MaxLoad()
	pass := 0
	for ; s.Cfg.MaxPasses == 0 || pass < s.Cfg.MaxPasses; pass++ {
		n, err := s.rebalancePass()
		if err != nil {
			return moves, err
		}
		if n == 0 {
			break
		}
		moves += n
	}

	s.log.Info("Rebalanced link loads",
		zap.Int("moves", moves),
		zap.Int("passes", pass),
		zap.Float64("max_load_before", before),
		zap.Float64("max_load_after", s.MaxLoad()))

	return moves, nil
}

// rebalancePass runs a single rebalancing pass and returns the number of
// moves it applied.
func (s *Solver) rebalancePass() (int, error) {
	maxLoad := s.MaxLoad()
	if maxLoad <= eps {
		return 0, nil // nothing to balance
	}

	if err := s.markHot(maxLoad); err != nil {
		return 0, err
	}

	heavy := []heavyPath{}
	for i := range s.Demands {
		for _, p := range s.assigned[i] {
			if s.traversesHot(p) {
				heavy = append(heavy, heavyPath{demand: i, path: p})
			}
		}
	}

	moves := 0
	for _, hp := range heavy {
		i := hp.demand
		if paths.Index(s.assigned[i], hp.path) == -1 {
			continue // replaced earlier in this pass
		}

		vol := s.Demands[i].Volume
		n := len(s.assigned[i])
		share := vol / float64(n)
		if n < s.Cfg.K {
			share = vol / float64(n+1)
		}

		good := []paths.Path{}
		for _, p := range s.candidates[i] {
			if s.traversesHot(p) || paths.Index(s.assigned[i], p) != -1 {
				continue
			}
			if s.maxLoadOn(p)+share >= maxLoad-eps {
				continue // would create a new hot edge
			}
			good = append(good, p)
		}
		if len(good) == 0 {
			continue // no improving move for this path
		}

		alt := s.choose(good)
		if n < s.Cfg.K {
			s.split(i, alt)
			s.log.Debug("Added path",
				zap.String("pair", s.pairName(i)),
				zap.String("path", s.Topology.PathNames(alt)))
		} else {
			s.replace(i, hp.path, alt)
			s.log.Debug("Replaced path",
				zap.String("pair", s.pairName(i)),
				zap.String("removed", s.Topology.PathNames(hp.path)),
				zap.String("added", s.Topology.PathNames(alt)))
		}
		s.persist()
		moves++
	}

	return moves, nil
}

// markHot fills the hot set with the edges whose load reaches maxLoad.
func (s *Solver) markHot(maxLoad float64) error {
	s.hot.Clear()
	for e := 0; e < s.State.NumEdges(); e++ {
		if s.State.Load(e) < maxLoad-eps {
			continue
		}
		if err := s.hot.Insert(e); err != nil {
			return errors.Wrapf(err, "marking edge %d as hot", e)
		}
	}
	return nil
}

func (s *Solver) traversesHot(p paths.Path) bool {
	for _, e := range p.Edges() {
		if s.hot.Contains(e) {
			return true
		}
	}
	return false
}

// Summary describes a complete run of the solver.
type Summary struct {
	Routed        int
	Unrouted      int
	Moves         int
	MaxLoadBefore float64
	MaxLoadAfter  float64
	MaxUtilBefore float64
	MaxUtilAfter  float64
	LoadsBefore   []float64
}

// Run routes all demands then rebalances the resulting loads.
func (s *Solver) Run() (Summary, error) {
	stats, err := s.Route()
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		Routed:        stats.Routed,
		Unrouted:      stats.Unrouted,
		MaxLoadBefore: s.MaxLoad(),
		MaxUtilBefore: s.MaxUtilization(),
		LoadsBefore:   s.State.Loads(),
	}

	moves, err := s.Rebalance()
	if err != nil {
		return Summary{}, err
	}
	sum.Moves = moves
	sum.MaxLoadAfter = s.MaxLoad()
	sum.MaxUtilAfter = s.MaxUtilization()

	return sum, nil
}
