package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// runRepo implements RunRepo on the runs and attempts tables.
type runRepo struct {
	db  *sql.DB
	b   *entsql.DialectBuilder
	seq *sequenceCounter
}

var runColumns = []string{
	"id", "sequence", "created_at", "status", "attempts", "max_attempts",
	"model", "taxonomy", "context", "image_name", "item",
	"last_feedback", "last_error",
}

var attemptColumns = []string{
	"run_id", "number", "forced_key", "feedback_in", "stage",
	"error_kind", "error_message", "item", "verdict", "raw_response",
}

func (r *runRepo) SaveRun(ctx context.Context, run *RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("save run: empty ID")
	}
	if run.Sequence == 0 {
		seqNum, err := r.seq.Next(ctx)
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		run.Sequence = seqNum
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args := r.b.Insert(tableRuns).
		Columns(runColumns...).
		Values(
			run.ID,
			run.Sequence,
			run.CreatedAt.UnixMilli(),
			run.Status,
			run.Attempts,
			run.MaxAttempts,
			run.Model,
			string(run.Taxonomy),
			run.Context,
			run.ImageName,
			string(run.Item),
			run.LastFeedback,
			run.LastError,
		).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if len(run.History) > 0 {
		ins := r.b.Insert(tableAttempts).Columns(attemptColumns...)
		for _, a := range run.History {
			ins = ins.Values(
				run.ID,
				a.Number,
				a.ForcedKey,
				a.FeedbackIn,
				a.Stage,
				a.ErrorKind,
				a.ErrorMessage,
				string(a.Item),
				string(a.Verdict),
				a.RawResponse,
			)
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("save attempts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func (r *runRepo) ListRuns(ctx context.Context, opts QueryOpts) ([]RunRecord, error) {
	sel := r.b.Select(runColumns...).
		From(r.b.Table(tableRuns)).
		OrderBy(entsql.Desc("sequence"))

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", opts.To.UnixMilli()))
	}
	if opts.Status != "" {
		preds = append(preds, entsql.EQ("status", opts.Status))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (r *runRepo) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if id == "" {
		return nil, nil
	}

	query, args := r.b.Select(runColumns...).
		From(r.b.Table(tableRuns)).
		Where(entsql.HasPrefix("id", id)).
		Limit(2).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var matches []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, fmt.Errorf("run ID prefix %q is ambiguous", id)
	}

	run := matches[0]
	history, err := r.attempts(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.History = history
	return run, nil
}

func (r *runRepo) attempts(ctx context.Context, runID string) ([]AttemptRecord, error) {
	query, args := r.b.Select(attemptColumns[1:]...).
		From(r.b.Table(tableAttempts)).
		Where(entsql.EQ("run_id", runID)).
		OrderBy("number").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var (
			a             AttemptRecord
			item, verdict string
		)
		err := rows.Scan(&a.Number, &a.ForcedKey, &a.FeedbackIn, &a.Stage,
			&a.ErrorKind, &a.ErrorMessage, &item, &verdict, &a.RawResponse)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Item = rawOrNil(item)
		a.Verdict = rawOrNil(verdict)
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanRun(rows *sql.Rows) (*RunRecord, error) {
	var (
		run                RunRecord
		createdAt          int64
		taxonomy, itemJSON string
	)
	err := rows.Scan(
		&run.ID,
		&run.Sequence,
		&createdAt,
		&run.Status,
		&run.Attempts,
		&run.MaxAttempts,
		&run.Model,
		&taxonomy,
		&run.Context,
		&run.ImageName,
		&itemJSON,
		&run.LastFeedback,
		&run.LastError,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.CreatedAt = time.UnixMilli(createdAt)
	run.Taxonomy = rawOrNil(taxonomy)
	run.Item = rawOrNil(itemJSON)
	return &run, nil
}

func rawOrNil(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
