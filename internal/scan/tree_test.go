package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemscan/internal/domain"
)

func succeedAction(order *[]string, key string) Action {
	return func(_ context.Context, _ *ScanContext) NodeOutcome {
		*order = append(*order, key)
		return Succeed("ok", nil)
	}
}

func TestNewTreeRejectsDuplicateKeys(t *testing.T) {
	root := &Node{
		Key: "root",
		Children: []*Node{
			{Key: "child"},
			{Key: "child"},
		},
	}

	_, err := NewTree(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node key")
}

func TestNewTreeRejectsEmptyKey(t *testing.T) {
	root := &Node{
		Key:      "root",
		Children: []*Node{{Title: "unnamed"}},
	}

	_, err := NewTree(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty key")
}

func TestRunVisitsDepthFirst(t *testing.T) {
	var order []string
	root := &Node{
		Key: "root",
		Children: []*Node{
			{
				Key:    "a",
				Action: succeedAction(&order, "a"),
				Children: []*Node{
					{Key: "a1", Action: succeedAction(&order, "a1")},
					{Key: "a2", Action: succeedAction(&order, "a2")},
				},
			},
			{Key: "b", Action: succeedAction(&order, "b")},
		},
	}

	tree, err := NewTree(root)
	require.NoError(t, err)

	sc := NewScanContext(domain.TokenConfig{TokenID: "tok", Symbol: "TOK"})
	outcomes := tree.Run(context.Background(), sc)

	assert.Equal(t, []string{"a", "a1", "a2", "b"}, order)
	// Group root trivially succeeds.
	assert.Equal(t, StatusSuccess, outcomes["root"].Status)
	assert.Len(t, outcomes, 5)
}

func TestRunPrunesFailedBranchOnly(t *testing.T) {
	var order []string
	root := &Node{
		Key: "root",
		Children: []*Node{
			{
				Key: "failing",
				Action: func(_ context.Context, _ *ScanContext) NodeOutcome {
					return Abort("load-bearing fetch failed", nil)
				},
				Children: []*Node{
					{Key: "never_runs", Action: succeedAction(&order, "never_runs")},
				},
			},
			{Key: "sibling", Action: succeedAction(&order, "sibling")},
		},
	}

	tree, err := NewTree(root)
	require.NoError(t, err)

	sc := NewScanContext(domain.TokenConfig{TokenID: "tok", Symbol: "TOK"})
	outcomes := tree.Run(context.Background(), sc)

	// The failing node's subtree is pruned; the sibling still ran.
	assert.Equal(t, []string{"sibling"}, order)
	assert.Equal(t, StatusFailure, outcomes["failing"].Status)
	assert.False(t, outcomes["failing"].Proceed)

	_, visited := outcomes["never_runs"]
	assert.False(t, visited, "pruned child must be absent from outcomes")
	assert.Equal(t, StatusSuccess, outcomes["sibling"].Status)
}

func TestRunContinuesPastDegradedNode(t *testing.T) {
	var order []string
	root := &Node{
		Key: "root",
		Children: []*Node{
			{
				Key: "degraded",
				Action: func(_ context.Context, _ *ScanContext) NodeOutcome {
					return Degrade("upstream unavailable, default written", nil)
				},
				Children: []*Node{
					{Key: "child", Action: succeedAction(&order, "child")},
				},
			},
		},
	}

	tree, err := NewTree(root)
	require.NoError(t, err)

	sc := NewScanContext(domain.TokenConfig{TokenID: "tok", Symbol: "TOK"})
	outcomes := tree.Run(context.Background(), sc)

	assert.Equal(t, []string{"child"}, order)
	assert.Equal(t, StatusPartialSuccess, outcomes["degraded"].Status)
	assert.Equal(t, StatusSuccess, outcomes["child"].Status)
}

func TestRunRecoversPanicIntoFailure(t *testing.T) {
	root := &Node{
		Key: "root",
		Children: []*Node{
			{
				Key: "panicking",
				Action: func(_ context.Context, _ *ScanContext) NodeOutcome {
					panic("boom")
				},
				Children: []*Node{
					{Key: "shielded", Action: func(_ context.Context, _ *ScanContext) NodeOutcome {
						return Succeed("ok", nil)
					}},
				},
			},
			{Key: "sibling", Action: func(_ context.Context, _ *ScanContext) NodeOutcome {
				return Succeed("ok", nil)
			}},
		},
	}

	tree, err := NewTree(root)
	require.NoError(t, err)

	sc := NewScanContext(domain.TokenConfig{TokenID: "tok", Symbol: "TOK"})
	outcomes := tree.Run(context.Background(), sc)

	out := outcomes["panicking"]
	assert.Equal(t, StatusFailure, out.Status)
	assert.False(t, out.Proceed)
	assert.Contains(t, out.Summary, "panic in node panicking")
	assert.Contains(t, out.Data["panic"], "boom")
	assert.NotEmpty(t, out.Data["stack"])

	_, visited := outcomes["shielded"]
	assert.False(t, visited)
	assert.Equal(t, StatusSuccess, outcomes["sibling"].Status)
}

func TestTraceMarksUnexecutedNodes(t *testing.T) {
	root := &Node{
		Key: "root",
		Children: []*Node{
			{
				Key: "failing",
				Action: func(_ context.Context, _ *ScanContext) NodeOutcome {
					return Abort("down", nil)
				},
				Children: []*Node{{Key: "orphan"}},
			},
		},
	}

	tree, err := NewTree(root)
	require.NoError(t, err)

	sc := NewScanContext(domain.TokenConfig{TokenID: "tok", Symbol: "TOK"})
	outcomes := tree.Run(context.Background(), sc)
	trace := tree.Trace(outcomes)

	require.Len(t, trace.Children, 1)
	failing := trace.Children[0]
	require.NotNil(t, failing.Outcome)
	assert.Equal(t, StatusFailure, failing.Outcome.Status)

	require.Len(t, failing.Children, 1)
	assert.Nil(t, failing.Children[0].Outcome, "unexecuted node carries no outcome")
}
