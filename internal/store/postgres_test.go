package store

import (
	"context"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitea.jw6.us/james/calllog/internal/schema"
)

func TestPostgresCallLogUpdateMergesInTransaction(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tx := &mockTx{
		queries: []queryExpectation{
			{
				expect: regexp.MustCompile(`FROM call_logs WHERE id=\$1 FOR UPDATE`),
				args:   []any{"log-1"},
				value:  []any{"log-1", "Old Name", "555-0100", "outgoing", 45, false, ts},
			},
		},
		execs: []execExpectation{
			{
				expect: regexp.MustCompile("UPDATE call_logs"),
				args:   []any{"log-1", "New Name", "555-0100", "outgoing", 45, false, nil},
			},
		},
	}
	pool := &mockPool{t: t, txs: []*mockTx{tx}}
	repo := &pgCallLogRepo{pool: pool}

	name := "New Name"
	updated, err := repo.Update(context.Background(), "log-1", schema.CallLogPatch{ContactName: &name})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.ContactName != "New Name" {
		t.Errorf("expected contact name to change, got %q", updated.ContactName)
	}
	if updated.PhoneNumber != "555-0100" || updated.Duration != 45 || updated.CallType != schema.CallTypeOutgoing {
		t.Errorf("expected untouched fields to survive, got %+v", updated)
	}
	if !updated.Timestamp.Equal(ts) {
		t.Errorf("expected timestamp %v to be kept, got %v", ts, updated.Timestamp)
	}
	if !tx.committed {
		t.Error("expected update to commit")
	}

	pool.assertDone()
	tx.assertDone()
}

func TestPostgresCallLogUpdateMissing(t *testing.T) {
	tx := &mockTx{
		queries: []queryExpectation{
			{expect: regexp.MustCompile("FOR UPDATE"), args: []any{"nope"}, err: pgx.ErrNoRows},
		},
	}
	pool := &mockPool{t: t, txs: []*mockTx{tx}}
	repo := &pgCallLogRepo{pool: pool}

	_, err := repo.Update(context.Background(), "nope", schema.CallLogPatch{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if tx.committed || !tx.rolled {
		t.Error("expected missing update to roll back")
	}
}

func TestPostgresCallLogDelete(t *testing.T) {
	pool := &mockPool{
		t: t,
		execs: []execExpectation{
			{expect: regexp.MustCompile("DELETE FROM call_logs"), args: []any{"log-1"}, tag: "DELETE 1"},
			{expect: regexp.MustCompile("DELETE FROM call_logs"), args: []any{"log-1"}, tag: "DELETE 0"},
		},
	}
	repo := &pgCallLogRepo{pool: pool}

	deleted, err := repo.Delete(context.Background(), "log-1")
	if err != nil || !deleted {
		t.Fatalf("expected first delete to succeed, got %v, %v", deleted, err)
	}
	deleted, err = repo.Delete(context.Background(), "log-1")
	if err != nil || deleted {
		t.Fatalf("expected second delete to report absence, got %v, %v", deleted, err)
	}
	pool.assertDone()
}

func TestPostgresCallLogCreateTruncatesTimestamp(t *testing.T) {
	pool := &mockPool{
		t: t,
		execs: []execExpectation{
			{expect: regexp.MustCompile("INSERT INTO call_logs"), args: []any{nil, "Alice", "555", "missed", 0, false, nil}},
		},
	}
	repo := &pgCallLogRepo{pool: pool}

	ts := time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC)
	log, err := repo.Create(context.Background(), schema.NewCallLog{
		ContactName: "Alice",
		PhoneNumber: "555",
		CallType:    schema.CallTypeMissed,
		Timestamp:   ts,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if log.ID == "" {
		t.Error("expected generated id")
	}
	if want := ts.Truncate(time.Microsecond); !log.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, log.Timestamp)
	}
	pool.assertDone()
}

func TestPostgresUserCreateConflict(t *testing.T) {
	pool := &mockPool{
		t: t,
		execs: []execExpectation{
			{expect: regexp.MustCompile("INSERT INTO users"), err: &pgconn.PgError{Code: uniqueViolation}},
		},
	}
	repo := &pgUserRepo{pool: pool}

	_, err := repo.Create(context.Background(), schema.NewUser{Username: "alice", Password: "x"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	pool.assertDone()
}

func TestPostgresTemplateGetMissing(t *testing.T) {
	pool := &mockPool{
		t: t,
		queries: []queryExpectation{
			{expect: regexp.MustCompile("FROM message_templates WHERE id=\\$1"), args: []any{"t-1"}, err: pgx.ErrNoRows},
		},
	}
	repo := &pgTemplateRepo{pool: pool}

	if _, err := repo.GetByID(context.Background(), "t-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	pool.assertDone()
}

func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	defer pool.Close()

	if err := ApplyMigrations(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	s := NewPostgres(pool)
	if err := s.HealthCheck(ctx); err != nil {
		t.Fatalf("health check: %v", err)
	}

	created, err := s.CallLogs.Create(ctx, schema.NewCallLog{ContactName: "Alice", PhoneNumber: "555", CallType: schema.CallTypeIncoming})
	if err != nil {
		t.Fatalf("create call log: %v", err)
	}
	defer func() { _, _ = s.CallLogs.Delete(ctx, created.ID) }()

	fetched, err := s.CallLogs.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get call log: %v", err)
	}
	if fetched.ID != created.ID || fetched.ContactName != created.ContactName || !fetched.Timestamp.Equal(created.Timestamp) {
		t.Fatalf("round trip mismatch: created %+v fetched %+v", created, fetched)
	}

	fav := true
	updated, err := s.CallLogs.Update(ctx, created.ID, schema.CallLogPatch{IsFavorite: &fav})
	if err != nil {
		t.Fatalf("update call log: %v", err)
	}
	if !updated.IsFavorite || !updated.Timestamp.Equal(created.Timestamp) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	tmpl, err := s.Templates.Create(ctx, schema.NewMessageTemplate{Name: "Hi", Message: "Hi {name}"})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	if deleted, err := s.Templates.Delete(ctx, tmpl.ID); err != nil || !deleted {
		t.Fatalf("delete template: %v, %v", deleted, err)
	}
}
