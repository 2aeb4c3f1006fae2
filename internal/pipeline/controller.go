// Package pipeline runs the generate, audit and retry loop that turns a
// source question into an approved mirror item.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/mirrorgen/internal/audit"
	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/itemgen"
	"github.com/abhisek/mirrorgen/internal/llm"
	"github.com/abhisek/mirrorgen/internal/logger"
	"github.com/abhisek/mirrorgen/internal/taxonomy"
)

// ItemGenerator is satisfied by *itemgen.Generator.
type ItemGenerator interface {
	Generate(ctx context.Context, req itemgen.GenerationRequest) (*item.CandidateItem, error)
}

// ItemAuditor is satisfied by *audit.Auditor.
type ItemAuditor interface {
	Audit(ctx context.Context, c *item.CandidateItem, sel taxonomy.Selection) (*audit.Verdict, error)
}

// Controller owns the retry loop. Runs are independent; a Controller may
// be shared as long as its generator and auditor are.
type Controller struct {
	Generator ItemGenerator
	Auditor   ItemAuditor
	Config    Config

	// PickKey draws the forced key for each attempt.
	PickKey itemgen.KeyPicker

	Logger *logger.Logger

	// Observer is optional.
	Observer Observer
}

// New creates a Controller with random key selection and no logging.
func New(gen ItemGenerator, aud ItemAuditor, cfg Config) *Controller {
	return &Controller{
		Generator: gen,
		Auditor:   aud,
		Config:    cfg,
		PickKey:   itemgen.RandomKey,
		Logger:    logger.NewNop(),
	}
}

// Run drives one run to approval or exhaustion. Generation errors, audit
// errors and rejections all consume an attempt and are reported through
// the Outcome, never as an error. Run only fails on invalid input or when
// ctx is done, in which case it returns ctx.Err().
func (c *Controller) Run(ctx context.Context, in RunInput) (*Outcome, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	if err := in.Taxonomy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid taxonomy: %w", err)
	}

	log := c.log().With("run_id", in.ID)
	out := &Outcome{Status: StateGenerating}
	feedback := ""

	for n := 1; n <= c.Config.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a := Attempt{Number: n, ForcedKey: c.pickKey(), FeedbackIn: feedback}
		log.Info("generating", "attempt", n, "state", StateGenerating, "key", a.ForcedKey,
			"with_feedback", feedback != "")
		c.emit(Progress{RunID: in.ID, Attempt: n, MaxAttempts: c.Config.MaxAttempts, State: StateGenerating})

		callCtx := llm.WithRun(ctx, in.ID, n)
		cand, err := c.generate(callCtx, itemgen.GenerationRequest{
			Image:     in.Image,
			Taxonomy:  in.Taxonomy,
			Context:   in.Context,
			Feedback:  feedback,
			ForcedKey: a.ForcedKey,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.Err = err
			out.LastErr = err
			if note := c.errorFeedback(err); note != "" {
				feedback = note
			}
			log.Warn("generation failed", "attempt", n, "state", StateGenerating,
				"error_kind", item.Kind(err), "error", err)
			out.Attempts = append(out.Attempts, a)
			c.finish(in.ID, n, a, out)
			continue
		}
		a.Item = cand

		log.Info("auditing", "attempt", n, "state", StateAuditing)
		c.emit(Progress{RunID: in.ID, Attempt: n, MaxAttempts: c.Config.MaxAttempts, State: StateAuditing})

		verdict, err := c.audit(callCtx, cand, in.Taxonomy)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			a.Err = err
			out.LastErr = err
			log.Warn("audit failed", "attempt", n, "state", StateAuditing,
				"error_kind", item.Kind(err), "error", err)
			out.Attempts = append(out.Attempts, a)
			c.finish(in.ID, n, a, out)
			continue
		}
		a.Verdict = verdict
		if failed := len(verdict.Failed()); verdict.Approved() == (failed > 0) {
			log.Warn("verdict disagrees with its criteria", "attempt", n,
				"decision", verdict.Decision, "failed_criteria", failed)
		}

		if verdict.Approved() {
			out.Status = StateApproved
			out.Item = cand
			out.LastFeedback = feedback
			out.Attempts = append(out.Attempts, a)
			log.Info("item approved", "attempt", n, "state", StateApproved)
			c.finish(in.ID, n, a, out)
			return out, nil
		}

		feedback = verdict.Feedback
		log.Info("item rejected", "attempt", n, "state", StateGenerating,
			"failed_criteria", len(verdict.Failed()))
		out.Attempts = append(out.Attempts, a)
		c.finish(in.ID, n, a, out)
	}

	out.Status = StateExhausted
	out.LastFeedback = feedback
	log.Warn("attempts exhausted", "attempts", len(out.Attempts), "state", StateExhausted)
	return out, nil
}

func (c *Controller) generate(ctx context.Context, req itemgen.GenerationRequest) (*item.CandidateItem, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	return c.Generator.Generate(ctx, req)
}

func (c *Controller) audit(ctx context.Context, cand *item.CandidateItem, sel taxonomy.Selection) (*audit.Verdict, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()
	return c.Auditor.Audit(ctx, cand, sel)
}

// callContext applies the per-call deadline. A call that hits it fails
// like any other provider call while the parent ctx stays live.
func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Config.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Config.CallTimeout)
}

// errorFeedback returns the feedback note for a failed generation under
// FeedbackFromError, or "" to keep the current feedback.
func (c *Controller) errorFeedback(err error) string {
	if c.Config.FeedbackPolicy != FeedbackFromError {
		return ""
	}

	var se *item.SchemaViolationError
	if errors.As(err, &se) {
		return "El intento anterior no cumplió la estructura requerida. Corrige estos problemas:\n- " +
			strings.Join(se.Reasons, "\n- ")
	}
	var me *item.MalformedResponseError
	if errors.As(err, &me) {
		return "El intento anterior no devolvió un objeto JSON válido. Responde únicamente con el objeto JSON completo, sin texto adicional."
	}
	return ""
}

// finish reports the end of attempt n. The state is where the loop goes
// next.
func (c *Controller) finish(runID string, n int, a Attempt, out *Outcome) {
	next := StateGenerating
	switch {
	case out.Status == StateApproved:
		next = StateApproved
	case n == c.Config.MaxAttempts:
		next = StateExhausted
	}
	c.emit(Progress{
		RunID:       runID,
		Attempt:     n,
		MaxAttempts: c.Config.MaxAttempts,
		State:       next,
		Done:        true,
		Err:         a.Err,
		Verdict:     a.Verdict,
	})
}

func (c *Controller) emit(p Progress) {
	if c.Observer != nil {
		c.Observer(p)
	}
}

func (c *Controller) pickKey() item.Letter {
	if c.PickKey == nil {
		return itemgen.RandomKey()
	}
	return c.PickKey()
}

func (c *Controller) log() *logger.Logger {
	if c.Logger == nil {
		return logger.NewNop()
	}
	return c.Logger
}
