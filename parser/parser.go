// Package parser reads the flat text files consumed by the kpath tools.
//
// Topology files declare nodes and links, one per line:
//
//	N <name>
//	l <from> <to> [length [capacity]]
//
// Length and capacity default to 1. Unless the topology is read as a digraph,
// each link is expanded into two opposite directed edges. Traffic matrix
// files contain lines of the form "<from> <to> <volume>". Path files contain
// lines of the form "(<from>,<to>) : <node> <node> ...". Lines that do not
// match the expected format are ignored.
package parser

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/righthandabacus/trimecmp/te"
	"github.com/righthandabacus/trimecmp/te/paths"
)

// ParseTopologyFile reads the topology file at filepath.
func ParseTopologyFile(filepath string, digraph bool) (*te.Topology, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	topo, err := ParseTopology(file, digraph)
	if err != nil {
		return nil, errors.WithMessage(err, filepath)
	}
	return topo, nil
}

// ParseTopology reads a topology. A link that references an undeclared node
// results in an error wrapping te.ErrInvalidTopology.
func ParseTopology(r io.Reader, digraph bool) (*te.Topology, error) {
	scanner := bufio.NewScanner(r)

	names := []string{}
	nodes := map[string]int{}
	edges := []te.Edge{}
	for line := 1; scanner.Scan(); line++ {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		switch parts[0] {
		case "N":
			if _, ok := nodes[parts[1]]; ok {
				return nil, errors.Wrapf(te.ErrInvalidTopology, "line %d: duplicate node %q", line, parts[1])
			}
			nodes[parts[1]] = len(names)
			names = append(names, parts[1])
		case "l":
			if len(parts) < 3 {
				return nil, errors.Errorf("line %d: invalid link: missing parts", line)
			}
			from, ok := nodes[parts[1]]
			if !ok {
				return nil, errors.Wrapf(te.ErrInvalidTopology, "line %d: unknown node %q", line, parts[1])
			}
			to, ok := nodes[parts[2]]
			if !ok {
				return nil, errors.Wrapf(te.ErrInvalidTopology, "line %d: unknown node %q", line, parts[2])
			}
			length, capacity := 1.0, 1.0
			var err error
			if len(parts) > 3 {
				if length, err = strconv.ParseFloat(parts[3], 64); err != nil {
					return nil, errors.Wrapf(err, "line %d: invalid length", line)
				}
			}
			if len(parts) > 4 {
				if capacity, err = strconv.ParseFloat(parts[4], 64); err != nil {
					return nil, errors.Wrapf(err, "line %d: invalid capacity", line)
				}
			}
			edges = append(edges, te.Edge{From: from, To: to, Length: length, Capacity: capacity})
			if !digraph {
				edges = append(edges, te.Edge{From: to, To: from, Length: length, Capacity: capacity})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return te.NewNamedTopology(edges, names)
}

// ParseMatrixFile reads the traffic matrix file at filepath.
func ParseMatrixFile(filepath string, topo *te.Topology) ([]te.Demand, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	demands, err := ParseMatrix(file, topo)
	if err != nil {
		return nil, errors.WithMessage(err, filepath)
	}
	return demands, nil
}

// ParseMatrix reads a traffic matrix whose nodes are named after the nodes of
// topo. If a pair appears more than once, the last volume is kept. Demands
// are returned in order of first appearance.
func ParseMatrix(r io.Reader, topo *te.Topology) ([]te.Demand, error) {
	scanner := bufio.NewScanner(r)

	demands := []te.Demand{}
	index := map[te.Pair]int{}
	for line := 1; scanner.Scan(); line++ {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 3 {
			continue
		}
		from, ok := topo.Node(parts[0])
		if !ok {
			return nil, errors.Errorf("line %d: invalid demand: unknown node %q", line, parts[0])
		}
		to, ok := topo.Node(parts[1])
		if !ok {
			return nil, errors.Errorf("line %d: invalid demand: unknown node %q", line, parts[1])
		}
		vol, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid demand", line)
		}
		if vol < 0 {
			return nil, errors.Errorf("line %d: invalid demand: negative volume %v", line, vol)
		}

		d := te.Demand{From: from, To: to, Volume: vol}
		if i, ok := index[d.Pair()]; ok {
			demands[i] = d
			continue
		}
		index[d.Pair()] = len(demands)
		demands = append(demands, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return demands, nil
}

var pathRegexp = regexp.MustCompile(`^\((.*),(.*)\) : (.*)$`)

// ParsePathsFile reads the path file at filepath.
func ParsePathsFile(filepath string, topo *te.Topology) (map[te.Pair][]paths.Path, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ps, err := ParsePaths(file, topo)
	if err != nil {
		return nil, errors.WithMessage(err, filepath)
	}
	return ps, nil
}

// ParsePaths reads a path file and returns the paths of each pair in order of
// appearance. Each path follows, between two consecutive nodes, the first
// edge joining them in the topology.
func ParsePaths(r io.Reader, topo *te.Topology) (map[te.Pair][]paths.Path, error) {
	scanner := bufio.NewScanner(r)

	ps := map[te.Pair][]paths.Path{}
	for line := 1; scanner.Scan(); line++ {
		match := pathRegexp.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		from, ok := topo.Node(match[1])
		if !ok {
			return nil, errors.Errorf("line %d: invalid path: unknown node %q", line, match[1])
		}
		to, ok := topo.Node(match[2])
		if !ok {
			return nil, errors.Errorf("line %d: invalid path: unknown node %q", line, match[2])
		}

		names := strings.Fields(match[3])
		nodes := make([]int, len(names))
		for i, name := range names {
			n, ok := topo.Node(name)
			if !ok {
				return nil, errors.Errorf("line %d: invalid path: unknown node %q", line, name)
			}
			nodes[i] = n
		}
		if len(nodes) == 0 || nodes[0] != from || nodes[len(nodes)-1] != to {
			return nil, errors.Errorf("line %d: invalid path: does not join %s to %s", line, match[1], match[2])
		}

		p, err := topo.PathFromNodes(nodes)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid path", line)
		}
		pair := te.Pair{From: from, To: to}
		ps[pair] = append(ps[pair], p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ps, nil
}
