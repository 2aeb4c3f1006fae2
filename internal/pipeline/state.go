package pipeline

import (
	"github.com/abhisek/mirrorgen/internal/audit"
	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/taxonomy"
)

// State is a retry loop state.
type State string

const (
	StateGenerating State = "generating"
	StateAuditing   State = "auditing"
	StateApproved   State = "approved"
	StateExhausted  State = "exhausted"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateExhausted
}

// RunInput is supplied once per run and never modified by the loop.
type RunInput struct {
	// ID tags log lines and progress events. Optional.
	ID string

	Image    item.Image
	Taxonomy taxonomy.Selection
	Context  string
}

// Attempt results, as recorded in history.
const (
	ResultGenerateFailed = "generate_failed"
	ResultAuditFailed    = "audit_failed"
	ResultRejected       = "rejected"
	ResultApproved       = "approved"
)

// Attempt is one generate/audit cycle.
type Attempt struct {
	Number     int
	ForcedKey  item.Letter
	FeedbackIn string

	// Item is set once generation succeeded.
	Item *item.CandidateItem

	// Verdict is set once the audit succeeded.
	Verdict *audit.Verdict

	// Err is the generation or audit error that ended the attempt.
	Err error
}

// Result summarizes how the attempt ended.
func (a Attempt) Result() string {
	switch {
	case a.Item == nil:
		return ResultGenerateFailed
	case a.Verdict == nil:
		return ResultAuditFailed
	case a.Verdict.Approved():
		return ResultApproved
	default:
		return ResultRejected
	}
}

// Outcome is the terminal result of a run.
type Outcome struct {
	Status State

	// Item is the approved candidate. Nil unless Status is StateApproved.
	Item *item.CandidateItem

	// LastFeedback is the feedback the loop would hand to the next
	// attempt. On exhaustion it is the final rejection's feedback.
	LastFeedback string

	// LastErr is the most recent attempt error, if any attempt failed.
	LastErr error

	Attempts []Attempt
}

// Approved reports whether the run produced an item.
func (o *Outcome) Approved() bool {
	return o.Status == StateApproved && o.Item != nil
}

// Progress is reported to an Observer as the loop advances. Done marks
// the end of an attempt; Err or Verdict then say how it went.
type Progress struct {
	RunID       string
	Attempt     int
	MaxAttempts int
	State       State
	Done        bool
	Err         error
	Verdict     *audit.Verdict
}

// Observer receives progress events synchronously from the loop.
type Observer func(Progress)
