package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/righthandabacus/trimecmp/parser"
	"github.com/righthandabacus/trimecmp/report"
	"github.com/righthandabacus/trimecmp/solver"
	"github.com/righthandabacus/trimecmp/te"
	"github.com/righthandabacus/trimecmp/te/paths"
)

var loadFlags struct {
	topology string
	paths    string
	matrix   string
	digraph  bool
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Compute link loads from a path file and a traffic matrix",
	Long: `'load' distributes the traffic matrix over the paths listed in a path file
(as written by 'route'), splitting the traffic of each pair evenly over its
paths, and writes the resulting link loads sorted by increasing load.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		topo, err := parser.ParseTopologyFile(loadFlags.topology, loadFlags.digraph)
		if err != nil {
			return err
		}
		ps, err := parser.ParsePathsFile(loadFlags.paths, topo)
		if err != nil {
			return err
		}
		demands, err := parser.ParseMatrixFile(loadFlags.matrix, topo)
		if err != nil {
			return err
		}

		return runLoad(cmd, topo, ps, demands, logger)
	},
}

// runLoad admits the listed paths of every demand and writes the resulting
// link loads. A path listed more than once for a pair is admitted once.
func runLoad(cmd *cobra.Command, topo *te.Topology, ps map[te.Pair][]paths.Path, demands []te.Demand, logger *zap.Logger) error {
	cfg := solver.DefaultConfig()
	cfg.Logger = logger
	s, err := solver.New(topo, demands, cfg)
	if err != nil {
		return err
	}
	for i, d := range demands {
		listed := ps[d.Pair()]
		for j, p := range listed {
			if paths.Index(listed[:j], p) != -1 {
				logger.Warn("Ignoring duplicate path",
					zap.String("pair", "("+topo.Name(d.From)+","+topo.Name(d.To)+")"),
					zap.String("path", topo.PathNames(p)))
				continue
			}
			if err := s.Admit(i, p); err != nil {
				return err
			}
		}
	}
	unrouted := s.Unrouted()
	if len(unrouted) > 0 {
		logger.Warn("Pairs without any path", zap.Int("pairs", len(unrouted)))
	}

	out := cmd.OutOrStdout()
	if err := report.WriteUnrouted(out, topo, unrouted); err != nil {
		return err
	}
	fmt.Fprintln(out, "Link loads")
	return report.WriteLoads(out, topo, s.State.Loads())
}

func init() {
	rootCmd.AddCommand(loadCmd)
	f := loadCmd.Flags()
	f.StringVarP(&loadFlags.topology, "topology", "t", "topology.txt",
		"The topology file in Rocketfuel format")
	f.StringVarP(&loadFlags.paths, "paths", "p", "path.txt", "The path file")
	f.StringVarP(&loadFlags.matrix, "matrix", "m", "matrix.txt", "The traffic matrix file")
	f.BoolVarP(&loadFlags.digraph, "digraph", "d", false,
		"Treat the topology file as a digraph, i.e. each link is unidirectional")
}
