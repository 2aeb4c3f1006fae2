package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FeedbackPolicy decides what feedback the next attempt receives after a
// generation call fails outright.
type FeedbackPolicy int

const (
	// FeedbackKeep leaves the feedback unchanged, so the next attempt
	// retries with whatever the last rejection said.
	FeedbackKeep FeedbackPolicy = iota

	// FeedbackFromError replaces the feedback with a note derived from a
	// malformed or schema-violating response. Provider failures still
	// leave it unchanged since they say nothing about the item.
	FeedbackFromError
)

func (p FeedbackPolicy) String() string {
	switch p {
	case FeedbackKeep:
		return "keep"
	case FeedbackFromError:
		return "error"
	default:
		return fmt.Sprintf("FeedbackPolicy(%d)", int(p))
	}
}

// ParseFeedbackPolicy accepts "keep" or "error".
func ParseFeedbackPolicy(s string) (FeedbackPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep", "":
		return FeedbackKeep, nil
	case "error", "from-error":
		return FeedbackFromError, nil
	}
	return FeedbackKeep, fmt.Errorf("unknown feedback policy %q", s)
}

// Config controls the retry loop.
type Config struct {
	// MaxAttempts bounds the total number of generation attempts.
	MaxAttempts int

	// CallTimeout limits each generator and auditor call. Zero disables
	// the per-call deadline.
	CallTimeout time.Duration

	FeedbackPolicy FeedbackPolicy
}

// DefaultConfig returns three attempts with a one minute call timeout.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		CallTimeout:    60 * time.Second,
		FeedbackPolicy: FeedbackKeep,
	}
}

// ConfigFromEnv applies MIRRORGEN_MAX_ATTEMPTS, MIRRORGEN_CALL_TIMEOUT and
// MIRRORGEN_FEEDBACK_POLICY over the defaults. Unparseable values are
// ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("MIRRORGEN_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAttempts = n
		}
	}
	if v := os.Getenv("MIRRORGEN_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.CallTimeout = d
		}
	}
	if v := os.Getenv("MIRRORGEN_FEEDBACK_POLICY"); v != "" {
		if p, err := ParseFeedbackPolicy(v); err == nil {
			cfg.FeedbackPolicy = p
		}
	}

	return cfg
}

// Validate rejects an attempt bound below one and a negative per-call
// timeout. A zero CallTimeout means calls are not individually bounded.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("call timeout must not be negative")
	}
	return nil
}
