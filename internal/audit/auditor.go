// Package audit reviews a candidate item against a fixed rubric using a
// second model call.
package audit

import (
	"context"
	"errors"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/llm"
	"github.com/abhisek/mirrorgen/internal/taxonomy"
)

const op = "audit"

// Config controls the behavior of the Auditor.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns a low-temperature audit config.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   4096,
		Temperature: 0.2,
	}
}

// Auditor judges candidate items.
type Auditor struct {
	provider llm.Provider
	config   Config
}

// New creates an Auditor.
func New(provider llm.Provider, cfg Config) *Auditor {
	return &Auditor{provider: provider, config: cfg}
}

// Audit makes exactly one text-only model call and returns the parsed
// verdict. A rejection always carries non-empty feedback. Errors use the
// same kinds as generation, tagged with op "audit".
func (a *Auditor) Audit(ctx context.Context, c *item.CandidateItem, sel taxonomy.Selection) (*Verdict, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeAudit)

	prompt, err := BuildPrompt(c, sel)
	if err != nil {
		return nil, err
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		JSON:        true,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
	})
	if err != nil {
		var maxTok *llm.ErrMaxTokensExceeded
		if errors.As(err, &maxTok) {
			return nil, &item.MalformedResponseError{Op: op, Raw: maxTok.Text, Err: err}
		}
		return nil, &item.ProviderError{Op: op, Err: err}
	}

	var v Verdict
	if err := item.Decode(op, resp.Text, VerdictSchema, &v); err != nil {
		return nil, err
	}
	if reasons := v.Validate(); len(reasons) > 0 {
		return nil, &item.SchemaViolationError{Op: op, Raw: resp.Text, Reasons: reasons}
	}

	v.normalize()
	return &v, nil
}
