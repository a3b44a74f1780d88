package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/righthandabacus/trimecmp/parser"
)

func TestRunLoad_duplicatePaths(t *testing.T) {
	topo, err := parser.ParseTopology(strings.NewReader(`N A
N B
N C
N D
l A B
l A C
l B D
l C D
`), true)
	require.NoError(t, err)
	ps, err := parser.ParsePaths(strings.NewReader(`(A,D) : A B D
(A,D) : A C D
(A,D) : A B D
`), topo)
	require.NoError(t, err)
	demands, err := parser.ParseMatrix(strings.NewReader("A D 1\nD A 2\n"), topo)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	require.NoError(t, runLoad(cmd, topo, ps, demands, zap.NewNop()))

	want := `Unrouted (D,A) : 2
Link loads
(A,B) = 0.5
(A,C) = 0.5
(B,D) = 0.5
(C,D) = 0.5
`
	assert.Equal(t, want, out.String())
}
