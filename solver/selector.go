package solver

import (
	"go.uber.org/zap"

	"github.com/righthandabacus/trimecmp/te/paths"
)

// RouteStats summarizes the outcome of Route.
type RouteStats struct {
	Routed   int
	Unrouted int
	Admitted int // total number of admitted paths
	Rejected int // candidate paths rejected because they increased the max load
}

// Route admits up to K paths per demand. It proceeds in K rounds: in round i,
// the demands that have exactly i paths are visited in random order and each
// of them is offered the best candidate it does not use yet (see choose). The
// first path of a demand is always admitted. Subsequent paths are admitted
// only if re-splitting the demand's volume over one more path does not
// increase the maximum load over the edges it affects.
//
// Demands without any candidate path are left unrouted.
func (s *Solver) Route() (RouteStats, error) {
	if err := s.enumerateAll(); err != nil {
		return RouteStats{}, err
	}

	stats := RouteStats{}
	order := make([]int, len(s.Demands))
	for i := range order {
		order[i] = i
	}

	for round := 0; round < s.Cfg.K; round++ {
		s.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for _, i := range order {
			if len(s.assigned[i]) != round {
				continue
			}
			cands := s.unassigned(i)
			if len(cands) == 0 {
				continue // enumeration exhausted
			}

			best := s.choose(cands)
			if round == 0 {
				s.split(i, best)
				s.persist()
				stats.Admitted++
				s.log.Debug("Admitted path",
					zap.String("pair", s.pairName(i)),
					zap.String("path", s.Topology.PathNames(best)))
				continue
			}

			if s.tryAdmit(i, best) {
				stats.Admitted++
				s.log.Debug("Admitted path",
					zap.String("pair", s.pairName(i)),
					zap.String("path", s.Topology.PathNames(best)),
					zap.Int("paths", len(s.assigned[i])))
			} else {
				stats.Rejected++
			}
		}
	}

	for i := range s.Demands {
		if len(s.assigned[i]) == 0 {
			stats.Unrouted++
			s.log.Debug("Demand left unrouted", zap.String("pair", s.pairName(i)))
		} else {
			stats.Routed++
		}
	}
	s.log.Info("Routed demands",
		zap.Int("k", s.Cfg.K),
		zap.Int("routed", stats.Routed),
		zap.Int("unrouted", stats.Unrouted),
		zap.Int("paths", stats.Admitted),
		zap.Float64("max_load", s.MaxLoad()))

	return stats, nil
}

// tryAdmit tentatively adds p to the paths of demand i and keeps it only if
// the maximum load over the changed edges does not increase.
func (s *Solver) tryAdmit(i int, p paths.Path) bool {
	s.split(i, p)

	oldMax, newMax := 0.0, 0.0
	for _, lc := range s.State.Changes() {
		if lc.PreviousLoad > oldMax {
			oldMax = lc.PreviousLoad
		}
		if l := s.State.Load(lc.Edge); l > newMax {
			newMax = l
		}
	}

	if newMax <= oldMax+eps {
		s.persist()
		return true
	}

	s.State.UndoChanges()
	s.assigned[i] = s.assigned[i][:len(s.assigned[i])-1]
	return false
}

// unassigned returns the candidates of demand i that are not admitted yet.
func (s *Solver) unassigned(i int) []paths.Path {
	ps := make([]paths.Path, 0, len(s.candidates[i]))
	for _, p := range s.candidates[i] {
		if paths.Index(s.assigned[i], p) == -1 {
			ps = append(ps, p)
		}
	}
	return ps
}
