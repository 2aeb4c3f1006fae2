package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mirrorgen/internal/logger"
	"github.com/abhisek/mirrorgen/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
	log       *logger.Logger
}

// WithLogging wraps a Provider with event logging. name identifies the
// backend (e.g. "gemini") in the event log.
func WithLogging(p Provider, name string, repo store.EventRepo, log *logger.Logger) Provider {
	if log == nil {
		log = logger.NewNop()
	}
	return &LoggingProvider{inner: p, provider: name, eventRepo: repo, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)
	runID, attempt := RunFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		RunID:       runID,
		Attempt:     attempt,
		LatencyMs:   latencyMs,
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = resp.Text
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	l.log.Debug("llm call",
		"provider", l.provider,
		"model", data.Model,
		"purpose", purpose,
		"run_id", runID,
		"attempt", attempt,
		"latency_ms", latencyMs,
		"input_tokens", data.InputTokens,
		"output_tokens", data.OutputTokens,
		"ok", data.Success,
	)

	// Log the event but don't fail the request if logging fails.
	if logErr := l.eventRepo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
		l.log.Warn("failed to record LLM request event", "error", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
// Image bytes are summarized, never stored.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n", m.Role, m.Content)
		for _, img := range m.Images {
			fmt.Fprintf(&b, "[image: %s, %d bytes]\n", img.MIMEType, len(img.Data))
		}
		b.WriteString("\n")
	}

	if req.JSON {
		b.WriteString("[response: json]\n")
	}

	return b.String()
}
