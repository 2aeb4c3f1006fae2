package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter numbers runs and LLM events from one shared counter so
// both tables sort into a single timeline even when timestamps collide.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
	b  *entsql.DialectBuilder
}

// Next reserves and returns the next sequence number.
func (c *sequenceCounter) Next(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query, args := c.b.Select("next_val").
		From(c.b.Table(tableSequence)).
		Where(entsql.EQ("id", 1)).
		Query()
	var n int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}

	query, args = c.b.Update(tableSequence).
		Set("next_val", n+1).
		Where(entsql.EQ("id", 1)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return n, tx.Commit()
}
