package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo on the llm_events table.
type eventRepo struct {
	db  *sql.DB
	b   *entsql.DialectBuilder
	seq *sequenceCounter
}

var llmEventColumns = []string{
	"id", "sequence", "created_at", "provider", "model", "purpose",
	"run_id", "attempt", "input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := r.b.Insert(tableLLMEvents).
		Columns(llmEventColumns[1:]...).
		Values(
			seqNum,
			time.Now().UnixMilli(),
			data.Provider,
			data.Model,
			data.Purpose,
			data.RunID,
			data.Attempt,
			data.InputTokens,
			data.OutputTokens,
			data.LatencyMs,
			data.Success,
			data.ErrorMessage,
			data.RequestBody,
			data.ResponseBody,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}

	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	sel := r.b.Select(llmEventColumns...).
		From(r.b.Table(tableLLMEvents)).
		OrderBy(entsql.Desc("sequence"))

	if opts.After > 0 {
		sel = sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel = sel.Where(entsql.LT("sequence", opts.Before))
	}
	if p := eventFilter(opts); p != nil {
		sel = sel.Where(p)
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var records []LLMEventRecord
	for rows.Next() {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error) {
	query, args := r.b.Select(llmEventColumns...).
		From(r.b.Table(tableLLMEvents)).
		Where(entsql.EQ("id", id)).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanLLMEvent(rows)
}

// eventFilter combines the time, purpose and run filters of opts, or
// returns nil when none is set.
func eventFilter(opts QueryOpts) *entsql.Predicate {
	var preds []*entsql.Predicate
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To.UnixMilli()))
	}
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if opts.RunID != "" {
		preds = append(preds, entsql.EQ("run_id", opts.RunID))
	}
	if len(preds) == 0 {
		return nil
	}
	return entsql.And(preds...)
}

// usage groups the events matching opts by key.
func (r *eventRepo) usage(key string, opts QueryOpts, aggs ...string) (string, []any) {
	sel := r.b.Select(append([]string{key}, aggs...)...).
		From(r.b.Table(tableLLMEvents)).
		GroupBy(key).
		OrderBy(key)
	if p := eventFilter(opts); p != nil {
		sel = sel.Where(p)
	}
	return sel.Query()
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context, opts QueryOpts) ([]LLMPurposeStats, error) {
	query, args := r.usage("purpose", opts,
		entsql.Count("*"),
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
		entsql.Avg("latency_ms"),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	defer rows.Close()

	var stats []LLMPurposeStats
	for rows.Next() {
		var (
			s   LLMPurposeStats
			avg float64
		)
		if err := rows.Scan(&s.Purpose, &s.Calls, &s.InputTokens, &s.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		s.AvgLatencyMs = int(avg)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context, opts QueryOpts) ([]LLMModelUsage, error) {
	query, args := r.usage("model", opts,
		entsql.Count("*"),
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	defer rows.Close()

	var usage []LLMModelUsage
	for rows.Next() {
		var u LLMModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

func scanLLMEvent(rows *sql.Rows) (*LLMEventRecord, error) {
	var (
		rec       LLMEventRecord
		createdAt int64
	)
	err := rows.Scan(
		&rec.ID,
		&rec.Sequence,
		&createdAt,
		&rec.Provider,
		&rec.Model,
		&rec.Purpose,
		&rec.RunID,
		&rec.Attempt,
		&rec.InputTokens,
		&rec.OutputTokens,
		&rec.LatencyMs,
		&rec.Success,
		&rec.ErrorMessage,
		&rec.RequestBody,
		&rec.ResponseBody,
	)
	if err != nil {
		return nil, fmt.Errorf("scan LLM event: %w", err)
	}
	rec.Timestamp = time.UnixMilli(createdAt)
	return &rec, nil
}
