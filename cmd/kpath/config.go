package main

import (
	"math/rand"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/righthandabacus/trimecmp/solver"
)

// routeConfig holds the parameters of the route command. Every field can be
// set in a TOML file and overridden on the command line.
type routeConfig struct {
	Topology  string  `toml:"topology"`
	Matrix    string  `toml:"matrix"`
	Digraph   bool    `toml:"digraph"`
	K         int     `toml:"k"`
	MaxPaths  int     `toml:"maxpaths"`
	Overshoot float64 `toml:"overshoot"`
	Shortest  bool    `toml:"shortest"`
	MaxPasses int     `toml:"maxpasses"`
	Workers   int     `toml:"workers"`
	Seed      int64   `toml:"seed"`
}

func defaultRouteConfig() routeConfig {
	def := solver.DefaultConfig()
	return routeConfig{
		Topology:  "topology.txt",
		Matrix:    "matrix.txt",
		K:         def.K,
		MaxPaths:  def.MaxPaths,
		Overshoot: def.Overshoot,
	}
}

// loadConfigFile reads the TOML file at path into cfg. Values of flags that
// were explicitly set on the command line are kept.
func loadConfigFile(cmd *cobra.Command, path string, cfg *routeConfig) error {
	fromFile := *cfg
	meta, err := toml.DecodeFile(path, &fromFile)
	if err != nil {
		return errors.Wrapf(err, "reading config file %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return errors.Errorf("unknown key %q in config file %s", undecoded[0].String(), path)
	}

	set := func(key string, apply func()) {
		if meta.IsDefined(key) && !cmd.Flags().Changed(key) {
			apply()
		}
	}
	set("topology", func() { cfg.Topology = fromFile.Topology })
	set("matrix", func() { cfg.Matrix = fromFile.Matrix })
	set("digraph", func() { cfg.Digraph = fromFile.Digraph })
	set("k", func() { cfg.K = fromFile.K })
	set("maxpaths", func() { cfg.MaxPaths = fromFile.MaxPaths })
	set("overshoot", func() { cfg.Overshoot = fromFile.Overshoot })
	set("shortest", func() { cfg.Shortest = fromFile.Shortest })
	set("maxpasses", func() { cfg.MaxPasses = fromFile.MaxPasses })
	set("workers", func() { cfg.Workers = fromFile.Workers })
	set("seed", func() { cfg.Seed = fromFile.Seed })
	return nil
}

// solverConfig converts the command configuration into a solver
// configuration. A zero seed seeds the random source from the clock.
func (c routeConfig) solverConfig(logger *zap.Logger) solver.Config {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return solver.Config{
		K:            c.K,
		MaxPaths:     c.MaxPaths,
		Overshoot:    c.Overshoot,
		ShortestOnly: c.Shortest,
		MaxPasses:    c.MaxPasses,
		Workers:      c.Workers,
		Rand:         rand.New(rand.NewSource(seed)),
		Logger:       logger,
	}
}
