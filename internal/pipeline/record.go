package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/store"
)

// NewRunRecord converts a finished run into its persisted form.
func NewRunRecord(id, model string, in RunInput, cfg Config, out *Outcome) (*store.RunRecord, error) {
	tax, err := json.Marshal(in.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("encode taxonomy: %w", err)
	}

	rec := &store.RunRecord{
		ID:           id,
		Status:       string(out.Status),
		Attempts:     len(out.Attempts),
		MaxAttempts:  cfg.MaxAttempts,
		Model:        model,
		Taxonomy:     tax,
		Context:      in.Context,
		ImageName:    in.Image.Name,
		LastFeedback: out.LastFeedback,
	}
	if out.LastErr != nil {
		rec.LastError = out.LastErr.Error()
	}
	if out.Approved() {
		if rec.Item, err = json.Marshal(out.Item); err != nil {
			return nil, fmt.Errorf("encode item: %w", err)
		}
	}

	for _, a := range out.Attempts {
		ar := store.AttemptRecord{
			Number:     a.Number,
			ForcedKey:  string(a.ForcedKey),
			FeedbackIn: a.FeedbackIn,
			Stage:      a.Result(),
		}
		if a.Err != nil {
			ar.ErrorKind = item.Kind(a.Err)
			ar.ErrorMessage = a.Err.Error()
		}
		if raw, ok := item.RawResponse(a.Err); ok {
			ar.RawResponse = raw
		}
		if a.Item != nil {
			if ar.Item, err = json.Marshal(a.Item); err != nil {
				return nil, fmt.Errorf("encode attempt %d item: %w", a.Number, err)
			}
		}
		if a.Verdict != nil {
			if ar.Verdict, err = json.Marshal(a.Verdict); err != nil {
				return nil, fmt.Errorf("encode attempt %d verdict: %w", a.Number, err)
			}
		}
		rec.History = append(rec.History, ar)
	}

	return rec, nil
}
