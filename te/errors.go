package te

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidTopology is returned when the topology cannot be used, e.g.
	// because an edge references a node that was never declared.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrNodeOutOfRange is returned when a node index is not in [0, nNodes).
	// It always comes wrapped together with ErrInvalidTopology.
	ErrNodeOutOfRange = errors.New("node out of range")

	// ErrUnreachable is returned when a demand has no path to its
	// destination. It is reported per pair and never aborts a run.
	ErrUnreachable = errors.New("unreachable destination")
)

// invalidNode returns an error that matches both ErrInvalidTopology and
// ErrNodeOutOfRange with errors.Is.
func invalidNode(node int, nNodes int) error {
	return &nodeError{node: node, nNodes: nNodes}
}

type nodeError struct {
	node   int
	nNodes int
}

func (e *nodeError) Error() string {
	return fmt.Sprintf("%s: node %d not in [0, %d)", ErrInvalidTopology, e.node, e.nNodes)
}

func (e *nodeError) Is(target error) bool {
	return target == ErrInvalidTopology || target == ErrNodeOutOfRange
}
