package solver

import (
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/righthandabacus/trimecmp/te"
)

type Config struct {
	// K is the maximum number of paths admitted for each demand. The volume
	// of a demand is always split evenly over its admitted paths.
	K int

	// MaxPaths is the maximum number of candidate paths enumerated for each
	// demand. Candidates are enumerated once and reused by both the selection
	// and the rebalancing phases.
	MaxPaths int

	// Overshoot is the tolerated excess length of a candidate path w.r.t. the
	// shortest path, as a percentage. An overshoot of zero restricts the
	// candidates to shortest paths only.
	Overshoot float64

	// ShortestOnly restricts candidates to shortest paths regardless of
	// Overshoot.
	ShortestOnly bool

	// MaxQueued bounds the expansion queue of each path enumeration. Zero
	// means te.DefaultMaxQueued.
	MaxQueued int

	// MaxPasses bounds the number of rebalancing passes. Zero means no bound
	// other than reaching a fixed point.
	MaxPasses int

	// Workers is the number of goroutines used to enumerate candidate paths.
	// Zero means GOMAXPROCS.
	Workers int

	// Rand is the source of randomness used to order demands and break ties
	// between equally good paths. A nil Rand is seeded from the clock.
	Rand *rand.Rand

	// Logger receives debug information about each decision. A nil Logger
	// discards everything.
	Logger *zap.Logger
}

// DefaultConfig returns the default configuration: at most 4 paths per
// demand chosen among 100 candidates at most 25% longer than the shortest
// path.
func DefaultConfig() Config {
	return Config{
		K:         4,
		MaxPaths:  100,
		Overshoot: 25,
	}
}

// Validate returns an error if the configuration cannot be used.
func (c Config) Validate() error {
	if c.K < 1 {
		return errors.Errorf("k must be at least 1, got %d", c.K)
	}
	if c.MaxPaths < 1 {
		return errors.Errorf("maximum number of paths must be at least 1, got %d", c.MaxPaths)
	}
	if c.Overshoot < 0 {
		return errors.Errorf("overshoot must be non-negative, got %f", c.Overshoot)
	}
	if c.MaxQueued < 0 {
		return errors.Errorf("maximum queue size must be non-negative, got %d", c.MaxQueued)
	}
	if c.MaxPasses < 0 {
		return errors.Errorf("maximum number of passes must be non-negative, got %d", c.MaxPasses)
	}
	if c.Workers < 0 {
		return errors.Errorf("number of workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// Budget returns the enumeration budget corresponding to the configuration.
func (c Config) Budget() te.Budget {
	return te.Budget{
		MaxPaths:     c.MaxPaths,
		Overshoot:    c.Overshoot,
		ShortestOnly: c.ShortestOnly || c.Overshoot == 0,
		MaxQueued:    c.MaxQueued,
	}
}
