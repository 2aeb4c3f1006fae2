package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/mirrorgen/internal/logger"
)

// RetryProvider is a decorator that retries transient errors with
// exponential backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	log    *logger.Logger
}

// WithRetry wraps a Provider with retry logic. A config allowing at most
// one attempt returns p unchanged. log may be nil.
func WithRetry(p Provider, cfg RetryConfig, log *logger.Logger) Provider {
	if cfg.MaxAttempts <= 1 {
		return p
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RetryProvider{inner: p, config: cfg, log: log}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var err error
	emptySeen := false

	for attempt := 1; ; attempt++ {
		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		reason := retryReason(err, &emptySeen)
		if reason == "" || attempt == r.config.MaxAttempts {
			return nil, err
		}

		wait := r.backoff(attempt, err)
		r.log.Debug("retrying llm call",
			"purpose", PurposeFrom(ctx),
			"attempt", attempt,
			"reason", reason,
			"wait", wait,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryReason names why err is worth another try, or returns "" when it
// is not. An empty answer is retried once.
func retryReason(err error, emptySeen *bool) string {
	var (
		maxTok  *ErrMaxTokensExceeded
		auth    *ErrAuth
		empty   *ErrEmptyResponse
		rl      *ErrRateLimit
		unavail *ErrProviderUnavailable
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ""
	case errors.As(err, &maxTok), errors.As(err, &auth):
		return ""
	case errors.As(err, &empty):
		if *emptySeen {
			return ""
		}
		*emptySeen = true
		return "empty response"
	case errors.As(err, &rl):
		return "rate limited"
	case errors.As(err, &unavail):
		return "provider unavailable"
	}
	return "transport error"
}

// backoff computes the wait before retry number attempt (1-based). A
// rate limit's RetryAfter takes precedence.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt-1))
	wait = math.Min(wait, float64(r.config.MaxWait))

	// ±20% jitter
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
