package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/righthandabacus/trimecmp/parser"
	"github.com/righthandabacus/trimecmp/report"
	"github.com/righthandabacus/trimecmp/solver"
)

var routeFlags struct {
	cfg     routeConfig
	config  string
	summary bool
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Find at most k paths for every pair of the traffic matrix",
	Long: `'route' finds at most k paths for every pair of nodes in the traffic
matrix such that the load of the most loaded link is minimized when each pair
splits its traffic evenly over its paths.

The link loads after the initial path selection, the selected paths, and the
link loads after rebalancing are written to the standard output. The output
can be read back as a path file by the 'load' command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg := routeFlags.cfg
		if routeFlags.config != "" {
			if err := loadConfigFile(cmd, routeFlags.config, &cfg); err != nil {
				return err
			}
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		return runRoute(cmd, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)
	def := defaultRouteConfig()
	f := routeCmd.Flags()
	f.StringVarP(&routeFlags.cfg.Topology, "topology", "t", def.Topology,
		"The topology file in Rocketfuel format")
	f.StringVarP(&routeFlags.cfg.Matrix, "matrix", "m", def.Matrix, "The traffic matrix file")
	f.BoolVarP(&routeFlags.cfg.Digraph, "digraph", "d", false,
		"Treat the topology file as a digraph, i.e. each link is unidirectional")
	f.IntVarP(&routeFlags.cfg.K, "k", "k", def.K, "Max number of paths to find for a pair")
	f.IntVar(&routeFlags.cfg.MaxPaths, "maxpaths", def.MaxPaths,
		"Max number of candidate paths enumerated for a pair")
	f.Float64VarP(&routeFlags.cfg.Overshoot, "overshoot", "o", def.Overshoot,
		"Percentage of length overshoot tolerated w.r.t. the shortest path (0 means shortest only)")
	f.BoolVarP(&routeFlags.cfg.Shortest, "shortest", "s", false,
		"Find only shortest paths, the overshoot is ignored")
	f.IntVar(&routeFlags.cfg.MaxPasses, "maxpasses", 0,
		"Max number of rebalancing passes (0 means until no improvement)")
	f.IntVar(&routeFlags.cfg.Workers, "workers", 0,
		"Number of workers enumerating paths (0 means one per CPU)")
	f.Int64Var(&routeFlags.cfg.Seed, "seed", 0,
		"Seed of the random number generator (0 means seeded from the clock)")
	f.StringVar(&routeFlags.config, "config", "", "Optional TOML configuration file")
	f.BoolVar(&routeFlags.summary, "summary", false, "Print a summary table to stderr")
}

func runRoute(cmd *cobra.Command, cfg routeConfig, logger *zap.Logger) error {
	topo, err := parser.ParseTopologyFile(cfg.Topology, cfg.Digraph)
	if err != nil {
		return err
	}
	demands, err := parser.ParseMatrixFile(cfg.Matrix, topo)
	if err != nil {
		return err
	}
	logger.Info("Read input",
		zap.Int("nodes", topo.NumNodes()),
		zap.Int("edges", len(topo.Edges)),
		zap.Int("demands", len(demands)))

	solverCfg := cfg.solverConfig(logger)
	s, err := solver.New(topo, demands, solverCfg)
	if err != nil {
		return err
	}
	sum, err := s.Run()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Original link loads")
	if err := report.WriteLoads(out, topo, sum.LoadsBefore); err != nil {
		return err
	}
	fmt.Fprintln(out, "All the paths:")
	if err := report.WritePaths(out, topo, s.Assignments()); err != nil {
		return err
	}
	if err := report.WriteUnrouted(out, topo, s.Unrouted()); err != nil {
		return err
	}
	fmt.Fprintln(out, "Link loads")
	if err := report.WriteLoads(out, topo, s.State.Loads()); err != nil {
		return err
	}

	if routeFlags.summary {
		report.WriteSummary(cmd.ErrOrStderr(), solverCfg, sum)
	}
	return nil
}
