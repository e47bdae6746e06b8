package core

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgConversions(t *testing.T) {
	assert.False(t, toPgText("").Valid)
	assert.Equal(t, pgtype.Text{String: "x", Valid: true}, toPgText("x"))

	assert.False(t, toPgInt8(0).Valid)
	assert.Equal(t, int64(42), toPgInt8(42).Int64)

	assert.False(t, toPgUUID("").Valid)
	assert.False(t, toPgUUID("not-a-uuid").Valid)

	id := uuid.NewString()
	u := toPgUUID(id)
	require.True(t, u.Valid)
	assert.Equal(t, id, uuidToString(u))
	assert.Equal(t, "", uuidToString(pgtype.UUID{}))

	assert.Equal(t, []string{}, nonNil(nil))
}

// TestPGAuditStore runs against a real database when
// SHEETDASH_TEST_DATABASE_URL is set.
func TestPGAuditStore(t *testing.T) {
	url := os.Getenv("SHEETDASH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SHEETDASH_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	store := NewPGAuditStore(tx)
	require.NoError(t, store.EnsureSchema(ctx))

	session := uuid.NewString()
	rec, err := store.Record(ctx, AuditEntry{
		Action:    ActionExport,
		SessionID: session,
		Workbook:  "Acme",
		Sheet:     "Sheet1",
		Campaigns: []string{"Retail", "Telco"},
		Rows:      7,
		Bytes:     512,
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	_, err = store.Record(ctx, AuditEntry{Action: ActionView, SessionID: session, Workbook: "Acme"})
	require.NoError(t, err)

	got, err := store.List(ctx, AuditFilter{Action: ActionExport, SessionID: session})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, []string{"Retail", "Telco"}, got[0].Campaigns)
	assert.Equal(t, []string{}, got[0].Processes)
	assert.Equal(t, 7, got[0].Rows)
	assert.Equal(t, int64(512), got[0].Bytes)
	assert.Equal(t, "10.0.0.1", got[0].IPAddress)

	all, err := store.List(ctx, AuditFilter{SessionID: session})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
