package scan

// Status classifies how one pipeline stage finished.
type Status string

const (
	// StatusSuccess means the stage fully completed.
	StatusSuccess Status = "SUCCESS"
	// StatusPartialSuccess means the stage degraded to a safe default
	// and the pipeline can still produce a result.
	StatusPartialSuccess Status = "PARTIAL_SUCCESS"
	// StatusSkipped means the stage was intentionally not executed,
	// e.g. an unconfigured optional collaborator.
	StatusSkipped Status = "SKIPPED"
	// StatusFailure means the stage is load-bearing and its absence
	// makes continuing the branch meaningless.
	StatusFailure Status = "FAILURE"
)

// NodeOutcome is the immutable result record emitted by one node visit.
// Proceed tells the tree walker whether child execution may continue
// despite a non-Success status.
type NodeOutcome struct {
	Status  Status         `json:"status"`
	Summary string         `json:"summary"`
	Data    map[string]any `json:"data,omitempty"`
	Proceed bool           `json:"proceed"`
}

// Succeed builds a Success outcome.
func Succeed(summary string, data map[string]any) NodeOutcome {
	return NodeOutcome{Status: StatusSuccess, Summary: summary, Data: data, Proceed: true}
}

// Degrade builds a PartialSuccess outcome. The stage wrote a safe default
// and downstream stages may continue.
func Degrade(summary string, data map[string]any) NodeOutcome {
	return NodeOutcome{Status: StatusPartialSuccess, Summary: summary, Data: data, Proceed: true}
}

// Skip builds a Skipped outcome.
func Skip(summary string) NodeOutcome {
	return NodeOutcome{Status: StatusSkipped, Summary: summary, Proceed: true}
}

// Abort builds a Failure outcome that prunes the branch.
func Abort(summary string, data map[string]any) NodeOutcome {
	return NodeOutcome{Status: StatusFailure, Summary: summary, Data: data, Proceed: false}
}
