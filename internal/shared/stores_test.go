package shared

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type stubExecer struct {
	calls []execCall
	err   error
	tag   pgconn.CommandTag
}

func (s *stubExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, execCall{sql: sql, args: args})
	return s.tag, s.err
}

func TestAuditLoggerRecord(t *testing.T) {
	db := &stubExecer{}
	logger := NewAuditLogger(db)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return at }

	err := logger.Record(context.Background(), AuditLog{
		AdminID:  "1",
		Action:   AuditActionMarkPaid,
		Entity:   "record",
		EntityID: "r-1",
		Meta:     map[string]any{"amount": 250.0},
	})
	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	args := db.calls[0].args
	assert.Equal(t, "1", args[0])
	assert.Equal(t, AuditActionMarkPaid, args[1])
	assert.Equal(t, "r-1", args[3])
	var meta map[string]any
	require.NoError(t, json.Unmarshal(args[4].([]byte), &meta))
	assert.Equal(t, 250.0, meta["amount"])
	assert.Equal(t, at, args[5])
}

func TestAuditLoggerRejectsIncompleteEntries(t *testing.T) {
	logger := NewAuditLogger(&stubExecer{})
	assert.Error(t, logger.Record(context.Background(), AuditLog{Action: AuditActionDelete}))
	var nilLogger *AuditLogger
	assert.Error(t, nilLogger.Record(context.Background(), AuditLog{}))
}

func TestIdempotencyConflictOnUniqueViolation(t *testing.T) {
	db := &stubExecer{err: &pgconn.PgError{Code: "23505"}}
	store := NewIdempotencyStore(db)
	err := store.CheckAndInsert(context.Background(), "key-1", "records.delete")
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
}

func TestIdempotencyPassesThroughOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	store := NewIdempotencyStore(&stubExecer{err: boom})
	assert.ErrorIs(t, store.CheckAndInsert(context.Background(), "key-1", "records.delete"), boom)
	assert.Error(t, store.CheckAndInsert(context.Background(), "", "records.delete"))
}

func TestIdempotencyCleanupReportsRows(t *testing.T) {
	db := &stubExecer{tag: pgconn.NewCommandTag("DELETE 3")}
	store := NewIdempotencyStore(db)
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	n, err := store.Cleanup(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, now.Add(-24*time.Hour), db.calls[0].args[0])
}
