// Package scan implements the scan orchestration engine: a declarative
// execution tree that sequences data-fetch, feature, and scoring stages
// over a shared per-scan context, tolerates partial upstream failures,
// and terminates in a deterministic, explainable scoring decision.
package scan

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Action is one unit of work. It reads and writes exactly the context
// fields owned by its pipeline stage and reports what happened.
type Action func(ctx context.Context, sc *ScanContext) NodeOutcome

// Node is one labeled entry in the execution tree. Nodes without an
// action are pure groupings: they succeed trivially and exist only for
// diagnostic legibility of the tree trace.
//
// Child order is significant: later siblings read context fields written
// by earlier ones, so ordering is a correctness invariant, not a
// presentation detail.
type Node struct {
	Key         string
	Title       string
	Description string
	Action      Action
	Children    []*Node
}

// Outcomes holds per-run node outcomes keyed by node key. Outcomes are
// stored off the node structs so one static tree shape can serve
// concurrent scans.
type Outcomes map[string]NodeOutcome

// Tree is a validated, static execution tree. The shape is read-only
// after construction and safe to share across concurrent runs.
type Tree struct {
	root *Node
}

// NewTree validates the node graph and returns a runnable tree.
// Keys must be unique across the whole tree.
func NewTree(root *Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("tree root is nil")
	}
	seen := make(map[string]bool)
	if err := checkKeys(root, seen); err != nil {
		return nil, err
	}
	return &Tree{root: root}, nil
}

func checkKeys(n *Node, seen map[string]bool) error {
	if n.Key == "" {
		return fmt.Errorf("node %q has empty key", n.Title)
	}
	if seen[n.Key] {
		return fmt.Errorf("duplicate node key %q", n.Key)
	}
	seen[n.Key] = true
	for _, c := range n.Children {
		if err := checkKeys(c, seen); err != nil {
			return err
		}
	}
	return nil
}

// Run walks the tree depth-first over one scan context and returns the
// outcome of every visited node. Nodes in pruned branches are absent
// from the result, which is how "never executed" is distinguished from
// any terminal status.
func (t *Tree) Run(ctx context.Context, sc *ScanContext) Outcomes {
	outcomes := make(Outcomes)
	t.visit(ctx, t.root, sc, outcomes)
	return outcomes
}

// visit executes one node and, unless the branch is pruned, its children.
// A failure in one child prunes only that child's subtree; remaining
// siblings still run.
func (t *Tree) visit(ctx context.Context, n *Node, sc *ScanContext, outcomes Outcomes) {
	var out NodeOutcome
	if n.Action != nil {
		out = runAction(ctx, n, sc)
	} else {
		out = Succeed("group", nil)
	}
	outcomes[n.Key] = out

	if out.Status == StatusFailure && !out.Proceed {
		return
	}
	for _, c := range n.Children {
		t.visit(ctx, c, sc, outcomes)
	}
}

// runAction invokes the node action inside a recovery boundary so an
// unexpected panic degrades a single branch instead of crashing the scan.
func runAction(ctx context.Context, n *Node, sc *ScanContext) (out NodeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Abort(fmt.Sprintf("panic in node %s: %v", n.Key, r), map[string]any{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
		}
	}()
	return n.Action(ctx, sc)
}

// TraceNode is the serializable per-run view of one node: static shape
// plus the outcome recorded for this run, nil if the node never executed.
type TraceNode struct {
	Key         string       `json:"key"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Outcome     *NodeOutcome `json:"outcome,omitempty"`
	Children    []TraceNode  `json:"children,omitempty"`
}

// Trace merges the static tree shape with one run's outcomes.
func (t *Tree) Trace(outcomes Outcomes) TraceNode {
	return buildTrace(t.root, outcomes)
}

func buildTrace(n *Node, outcomes Outcomes) TraceNode {
	tn := TraceNode{Key: n.Key, Title: n.Title, Description: n.Description}
	if out, ok := outcomes[n.Key]; ok {
		tn.Outcome = &out
	}
	for _, c := range n.Children {
		tn.Children = append(tn.Children, buildTrace(c, outcomes))
	}
	return tn
}
