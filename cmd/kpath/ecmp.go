package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/righthandabacus/trimecmp/parser"
	"github.com/righthandabacus/trimecmp/report"
	"github.com/righthandabacus/trimecmp/te"
)

var ecmpFlags struct {
	topology string
	matrix   string
	digraph  bool
}

var ecmpCmd = &cobra.Command{
	Use:   "ecmp",
	Short: "Compute link loads under ECMP routing",
	Long: `'ecmp' routes the traffic matrix with Equal-Cost Multi-Path: at every node,
traffic is split evenly over all the links on a shortest path toward its
destination. It writes the resulting link loads sorted by increasing load and
serves as a baseline for 'route'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		topo, err := parser.ParseTopologyFile(ecmpFlags.topology, ecmpFlags.digraph)
		if err != nil {
			return err
		}
		demands, err := parser.ParseMatrixFile(ecmpFlags.matrix, topo)
		if err != nil {
			return err
		}

		state := te.NewNetworkState(len(topo.Edges))
		unrouted, err := te.NewECMP(topo).Route(state, demands)
		if err != nil {
			return err
		}
		logger.Info("Routed demands with ECMP",
			zap.Int("demands", len(demands)),
			zap.Int("unrouted", len(unrouted)),
			zap.Float64("max_load", state.MaxLoad()))

		out := cmd.OutOrStdout()
		if err := report.WriteUnrouted(out, topo, unrouted); err != nil {
			return err
		}
		fmt.Fprintln(out, "Link loads")
		return report.WriteLoads(out, topo, state.Loads())
	},
}

func init() {
	rootCmd.AddCommand(ecmpCmd)
	f := ecmpCmd.Flags()
	f.StringVarP(&ecmpFlags.topology, "topology", "t", "topology.txt",
		"The topology file in Rocketfuel format")
	f.StringVarP(&ecmpFlags.matrix, "matrix", "m", "matrix.txt", "The traffic matrix file")
	f.BoolVarP(&ecmpFlags.digraph, "digraph", "d", false,
		"Treat the topology file as a digraph, i.e. each link is unidirectional")
}
