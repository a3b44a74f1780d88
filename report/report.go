// Package report writes the results of the kpath tools in the text formats
// read back by package parser.
package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/righthandabacus/trimecmp/solver"
	"github.com/righthandabacus/trimecmp/te"
)

// WritePaths writes one line per admitted path in the format
// "(<from>,<to>) : <node> <node> ...".
func WritePaths(w io.Writer, topo *te.Topology, as []solver.Assignment) error {
	bw := bufio.NewWriter(w)
	for _, a := range as {
		for _, p := range a.Paths {
			fmt.Fprintf(bw, "(%s,%s) : %s\n",
				topo.Name(a.Demand.From), topo.Name(a.Demand.To), topo.PathNames(p))
		}
	}
	return bw.Flush()
}

// WriteLoads writes the load of every edge in the format
// "(<from>,<to>) = <load>", sorted by increasing load. Edges with the same
// load appear in edge id order.
func WriteLoads(w io.Writer, topo *te.Topology, loads []float64) error {
	order := make([]int, len(loads))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return loads[order[i]] < loads[order[j]]
	})

	bw := bufio.NewWriter(w)
	for _, e := range order {
		edge := topo.Edges[e]
		fmt.Fprintf(bw, "(%s,%s) = %s\n",
			topo.Name(edge.From), topo.Name(edge.To), FormatLoad(loads[e]))
	}
	return bw.Flush()
}

// FormatLoad formats a load with the minimal number of digits needed to
// represent it exactly.
func FormatLoad(l float64) string {
	return strconv.FormatFloat(l, 'g', -1, 64)
}

// WriteUnrouted writes one line per demand that could not be routed.
func WriteUnrouted(w io.Writer, topo *te.Topology, ds []te.Demand) error {
	bw := bufio.NewWriter(w)
	for _, d := range ds {
		fmt.Fprintf(bw, "Unrouted (%s,%s) : %s\n",
			topo.Name(d.From), topo.Name(d.To), FormatLoad(d.Volume))
	}
	return bw.Flush()
}

// WriteSummary renders the summary of a solver run as a table.
func WriteSummary(w io.Writer, cfg solver.Config, sum solver.Summary) {
	WriteTable(w, []string{"metric", "value"}, [][]string{
		{"k", strconv.Itoa(cfg.K)},
		{"routed pairs", strconv.Itoa(sum.Routed)},
		{"unrouted pairs", strconv.Itoa(sum.Unrouted)},
		{"rebalancing moves", strconv.Itoa(sum.Moves)},
		{"max load (before)", FormatLoad(sum.MaxLoadBefore)},
		{"max load (after)", FormatLoad(sum.MaxLoadAfter)},
		{"max utilization (before)", FormatLoad(sum.MaxUtilBefore)},
		{"max utilization (after)", FormatLoad(sum.MaxUtilAfter)},
	})
}

// WriteTable renders rows as an ASCII table.
func WriteTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows)
	table.Render()
}
