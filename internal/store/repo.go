package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures list queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // LLM events only; empty = any
	RunID   string    // LLM events only; empty = any
	Status  string    // runs only; empty = any
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	RunID        string // empty for calls made outside a run
	Attempt      int
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMPurposeStats aggregates usage for one purpose label.
type LLMPurposeStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int
}

// LLMModelUsage aggregates usage for one model, for cost estimates.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents lists events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)

	// LLMUsageByPurpose and LLMUsageByModel aggregate the events matching
	// opts. Limit, After and Before are ignored.
	LLMUsageByPurpose(ctx context.Context, opts QueryOpts) ([]LLMPurposeStats, error)
	LLMUsageByModel(ctx context.Context, opts QueryOpts) ([]LLMModelUsage, error)
}

// RunRecord is the persisted summary of one generation run.
type RunRecord struct {
	ID           string
	Sequence     int64
	CreatedAt    time.Time
	Status       string
	Attempts     int
	MaxAttempts  int
	Model        string
	Taxonomy     json.RawMessage
	Context      string
	ImageName    string
	Item         json.RawMessage // approved item, empty otherwise
	LastFeedback string
	LastError    string

	// History is saved by SaveRun and loaded by GetRun; ListRuns leaves it empty.
	History []AttemptRecord
}

// AttemptRecord is one attempt of a run.
type AttemptRecord struct {
	Number       int
	ForcedKey    string
	FeedbackIn   string
	Stage        string // stage the attempt ended in
	ErrorKind    string
	ErrorMessage string
	Item         json.RawMessage
	Verdict      json.RawMessage

	// RawResponse is the model text behind a malformed or
	// schema-violating response.
	RawResponse string
}

// RunRepo stores finished runs with their attempt history.
type RunRepo interface {
	// SaveRun inserts the run and its history atomically. Sequence and
	// CreatedAt are assigned when zero.
	SaveRun(ctx context.Context, run *RunRecord) error

	// ListRuns lists runs, newest first, without history.
	ListRuns(ctx context.Context, opts QueryOpts) ([]RunRecord, error)

	// GetRun returns the run whose ID equals or uniquely starts with id,
	// or nil if none matches.
	GetRun(ctx context.Context, id string) (*RunRecord, error)
}
