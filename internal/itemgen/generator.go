// Package itemgen asks the model for a mirror item of a photographed
// question and validates what comes back.
package itemgen

import (
	"context"
	"errors"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/llm"
)

const op = "generate"

// Generator produces candidate items using an LLM provider.
type Generator struct {
	provider llm.Provider
	config   Config
}

// New creates a Generator with the given provider and config.
func New(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, config: cfg}
}

// Generate makes exactly one model call. Failures are returned as
// *item.ProviderError, *item.MalformedResponseError or
// *item.SchemaViolationError; retrying is left to the caller.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (*item.CandidateItem, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeGenerate)

	msg := llm.Message{Role: llm.RoleUser, Content: BuildPrompt(req)}
	if len(req.Image.Data) > 0 {
		msg.Images = []llm.Image{{MIMEType: req.Image.MIMEType, Data: req.Image.Data}}
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{msg},
		JSON:        true,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		// A truncated answer is a bad response, not a failed call.
		var maxTok *llm.ErrMaxTokensExceeded
		if errors.As(err, &maxTok) {
			return nil, &item.MalformedResponseError{Op: op, Raw: maxTok.Text, Err: err}
		}
		return nil, &item.ProviderError{Op: op, Err: err}
	}

	var c item.CandidateItem
	if err := item.Decode(op, resp.Text, item.CandidateSchema, &c); err != nil {
		return nil, err
	}

	var reasons []string
	for _, v := range g.config.Validators {
		reasons = append(reasons, v.Validate(&c, req)...)
	}
	if len(reasons) > 0 {
		return nil, &item.SchemaViolationError{Op: op, Raw: resp.Text, Reasons: reasons}
	}

	return &c, nil
}
