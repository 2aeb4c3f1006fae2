package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{"runs", "attempts", "llm_events", "global_sequence"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestFreshStore_WritesEveryTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RunRepo().SaveRun(ctx, &RunRecord{
		ID:     "run-1",
		Status: "exhausted",
		History: []AttemptRecord{
			{Number: 1, Stage: "generating", ErrorKind: "malformed"},
			{Number: 2, Stage: "auditing", ErrorKind: "provider"},
		},
	}))
	require.NoError(t, s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "item-gen", RunID: "run-1", Attempt: 1, Success: true,
	}))

	counts := map[string]int{
		"runs":       1,
		"attempts":   2,
		"llm_events": 1,
	}
	for table, want := range counts {
		var got int
		require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&got))
		assert.Equal(t, want, got, table)
	}

	var next int64
	require.NoError(t, s.DB().QueryRow("SELECT next_val FROM global_sequence WHERE id = 1").Scan(&next))
	assert.Equal(t, int64(3), next, "one sequence number each for the run and the event")
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, migrate(context.Background(), s.DB(), s.b))

	var rows int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM global_sequence").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RunRepo().SaveRun(ctx, &RunRecord{ID: "run-1", Status: "approved"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	run, err := s.RunRepo().GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "approved", run.Status)
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := s.seq.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSequenceCounter_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.seq.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestLLMEvents_AppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "gemini", Model: "gemini-2.5-flash-lite", Purpose: "item-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "req-1", ResponseBody: "{}"},
		{Provider: "gemini", Model: "gemini-2.5-flash-lite", Purpose: "item-audit", InputTokens: 80, OutputTokens: 20, LatencyMs: 100, Success: true},
		{Provider: "gemini", Model: "gemini-2.5-flash-lite", Purpose: "item-gen", InputTokens: 120, OutputTokens: 0, LatencyMs: 400, Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "rate limited", all[0].ErrorMessage, "newest first")
	assert.False(t, all[0].Success)
	assert.Greater(t, all[0].Sequence, all[1].Sequence)

	gen, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "item-gen", Limit: 1})
	require.NoError(t, err)
	require.Len(t, gen, 1)
	assert.Equal(t, 120, gen[0].InputTokens)

	first, err := repo.GetLLMEvent(ctx, all[2].ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "req-1", first.RequestBody)
	assert.Equal(t, "{}", first.ResponseBody)
	assert.True(t, first.Success)
	assert.WithinDuration(t, time.Now(), first.Timestamp, time.Minute)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLLMEvents_Usage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "gpt-4o", Purpose: "item-gen", InputTokens: 100, OutputTokens: 40, LatencyMs: 100}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "gpt-4o", Purpose: "item-gen", InputTokens: 50, OutputTokens: 10, LatencyMs: 300}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "gemini-2.5-flash", Purpose: "item-audit", InputTokens: 30, OutputTokens: 5, LatencyMs: 50}))

	byPurpose, err := repo.LLMUsageByPurpose(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, LLMPurposeStats{Purpose: "item-audit", Calls: 1, InputTokens: 30, OutputTokens: 5, AvgLatencyMs: 50}, byPurpose[0])
	assert.Equal(t, LLMPurposeStats{Purpose: "item-gen", Calls: 2, InputTokens: 150, OutputTokens: 50, AvgLatencyMs: 200}, byPurpose[1])

	byModel, err := repo.LLMUsageByModel(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, LLMModelUsage{Model: "gemini-2.5-flash", Calls: 1, InputTokens: 30, OutputTokens: 5}, byModel[0])
	assert.Equal(t, LLMModelUsage{Model: "gpt-4o", Calls: 2, InputTokens: 150, OutputTokens: 50}, byModel[1])

	audits, err := repo.LLMUsageByModel(ctx, QueryOpts{Purpose: "item-audit"})
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, "gemini-2.5-flash", audits[0].Model)
}

func TestLLMEvents_RunFilter(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "gpt-4o", Purpose: "item-gen", RunID: "run-a", Attempt: 1, InputTokens: 900, OutputTokens: 300}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "gpt-4o", Purpose: "item-audit", RunID: "run-a", Attempt: 1, InputTokens: 400, OutputTokens: 100}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "gpt-4o", Purpose: "item-gen", RunID: "run-b", Attempt: 1, InputTokens: 10, OutputTokens: 1}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Model: "gpt-4o", Purpose: "item-gen"}))

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{RunID: "run-a"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "item-audit", events[0].Purpose)
	assert.Equal(t, "run-a", events[0].RunID)
	assert.Equal(t, 1, events[0].Attempt)

	usage, err := repo.LLMUsageByModel(ctx, QueryOpts{RunID: "run-a"})
	require.NoError(t, err)
	assert.Equal(t, []LLMModelUsage{{Model: "gpt-4o", Calls: 2, InputTokens: 1300, OutputTokens: 400}}, usage)

	untagged, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	require.NoError(t, err)
	require.Len(t, untagged, 1)
	assert.Empty(t, untagged[0].RunID)
	assert.Zero(t, untagged[0].Attempt)
}

func TestRuns_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.RunRepo()
	ctx := context.Background()

	run := &RunRecord{
		ID:           "3f2a9c1e-0000-4000-8000-000000000001",
		Status:       "approved",
		Attempts:     3,
		MaxAttempts:  3,
		Model:        "gemini-2.5-flash-lite",
		Taxonomy:     json.RawMessage(`[{"faceta":"grado","valor":"5"}]`),
		Context:      "usar contexto de deportes",
		ImageName:    "q.png",
		Item:         json.RawMessage(`{"clave":"C"}`),
		LastFeedback: "mejorar distractores",
		History: []AttemptRecord{
			{Number: 1, ForcedKey: "A", Stage: "rejected", Verdict: json.RawMessage(`{"veredicto":"rechazado"}`)},
			{Number: 2, ForcedKey: "B", Stage: "generate_failed", ErrorKind: "malformed", RawResponse: "no JSON"},
			{Number: 3, ForcedKey: "C", FeedbackIn: "mejorar distractores", Stage: "approved", Item: json.RawMessage(`{"clave":"C"}`)},
		},
	}
	require.NoError(t, repo.SaveRun(ctx, run))
	assert.NotZero(t, run.Sequence)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := repo.GetRun(ctx, "3f2a9c1e")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, 3, got.Attempts)
	assert.JSONEq(t, `{"clave":"C"}`, string(got.Item))
	assert.JSONEq(t, string(run.Taxonomy), string(got.Taxonomy))
	require.Len(t, got.History, 3)
	assert.Equal(t, "A", got.History[0].ForcedKey)
	assert.Nil(t, got.History[0].Item)
	assert.JSONEq(t, `{"veredicto":"rechazado"}`, string(got.History[0].Verdict))
	assert.Equal(t, "malformed", got.History[1].ErrorKind)
	assert.Equal(t, "no JSON", got.History[1].RawResponse)
	assert.Equal(t, "mejorar distractores", got.History[2].FeedbackIn)
}

func TestRuns_GetMissingAndAmbiguous(t *testing.T) {
	s := openTestStore(t)
	repo := s.RunRepo()
	ctx := context.Background()

	require.NoError(t, repo.SaveRun(ctx, &RunRecord{ID: "abc-1", Status: "exhausted"}))
	require.NoError(t, repo.SaveRun(ctx, &RunRecord{ID: "abc-2", Status: "approved"}))

	got, err := repo.GetRun(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = repo.GetRun(ctx, "abc")
	assert.Error(t, err)

	got, err = repo.GetRun(ctx, "abc-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "approved", got.Status)
}

func TestRuns_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.RunRepo()
	ctx := context.Background()

	for i, status := range []string{"approved", "exhausted", "approved"} {
		require.NoError(t, repo.SaveRun(ctx, &RunRecord{
			ID:       string(rune('a'+i)) + "-run",
			Status:   status,
			Attempts: i + 1,
		}))
	}

	runs, err := repo.ListRuns(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c-run", runs[0].ID)
	assert.Nil(t, runs[0].History)

	approved, err := repo.ListRuns(ctx, QueryOpts{Status: "approved", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, approved, 2)

	limited, err := repo.ListRuns(ctx, QueryOpts{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c-run", limited[0].ID)
}

func TestRuns_SaveRejectsEmptyID(t *testing.T) {
	s := openTestStore(t)
	err := s.RunRepo().SaveRun(context.Background(), &RunRecord{Status: "approved"})
	assert.Error(t, err)
}
