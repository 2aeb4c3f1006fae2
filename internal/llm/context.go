package llm

import "context"

type contextKey int

const (
	purposeKey contextKey = iota
	runKey
)

// Purpose labels recorded with every LLM event.
const (
	PurposeGenerate = "item-gen"
	PurposeAudit    = "item-audit"
)

type runRef struct {
	id      string
	attempt int
}

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithRun tags calls made under ctx with a generation run and attempt, so
// recorded events can be traced back to the run that paid for them.
func WithRun(ctx context.Context, runID string, attempt int) context.Context {
	return context.WithValue(ctx, runKey, runRef{id: runID, attempt: attempt})
}

// RunFrom returns the run tag set by WithRun, or "" and 0 when untagged.
func RunFrom(ctx context.Context) (runID string, attempt int) {
	if r, ok := ctx.Value(runKey).(runRef); ok {
		return r.id, r.attempt
	}
	return "", 0
}
