package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx used by the Postgres audit store. *pgxpool.Pool,
// *pgx.Conn and pgx.Tx all satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGAuditStore stores audit entries in the audit_log table.
type PGAuditStore struct {
	db DBTX
}

// NewPGAuditStore returns a store over db. Call EnsureSchema once at startup.
func NewPGAuditStore(db DBTX) *PGAuditStore {
	return &PGAuditStore{db: db}
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	action      TEXT NOT NULL,
	session_id  UUID,
	workbook    TEXT NOT NULL,
	sheet       TEXT,
	campaigns   TEXT[] NOT NULL DEFAULT '{}',
	processes   TEXT[] NOT NULL DEFAULT '{}',
	row_count   INTEGER NOT NULL DEFAULT 0,
	bytes       BIGINT,
	ip_address  TEXT,
	user_agent  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_log_created_at_idx ON audit_log (created_at DESC);
CREATE INDEX IF NOT EXISTS audit_log_session_idx ON audit_log (session_id, created_at DESC);
`

// EnsureSchema creates the audit table and indexes if they do not exist.
func (p *PGAuditStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

const insertAuditEntry = `
INSERT INTO audit_log (action, session_id, workbook, sheet, campaigns, processes, row_count, bytes, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at`

// Record implements AuditStore.
func (p *PGAuditStore) Record(ctx context.Context, e AuditEntry) (*AuditEntry, error) {
	var (
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)

	err := p.db.QueryRow(ctx, insertAuditEntry,
		string(e.Action),
		toPgUUID(e.SessionID),
		e.Workbook,
		toPgText(e.Sheet),
		nonNil(e.Campaigns),
		nonNil(e.Processes),
		int32(e.Rows),
		toPgInt8(e.Bytes),
		toPgText(e.IPAddress),
		toPgText(e.UserAgent),
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}

	e.ID = uuidToString(id)
	e.CreatedAt = createdAt.Time
	return &e, nil
}

const listAuditEntries = `
SELECT id, action, session_id, workbook, sheet, campaigns, processes, row_count, bytes, ip_address, user_agent, created_at
FROM audit_log
WHERE ($1 = '' OR action = $1)
  AND ($2::uuid IS NULL OR session_id = $2)
ORDER BY created_at DESC
LIMIT $3`

// List implements AuditStore.
func (p *PGAuditStore) List(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	rows, err := p.db.Query(ctx, listAuditEntries, string(f.Action), toPgUUID(f.SessionID), int32(f.limit()))
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}

	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return entries, nil
}

func scanAuditEntry(row pgx.CollectableRow) (AuditEntry, error) {
	var (
		e         AuditEntry
		action    string
		id        pgtype.UUID
		sessionID pgtype.UUID
		sheet     pgtype.Text
		rowCount  int32
		bytes     pgtype.Int8
		ip        pgtype.Text
		ua        pgtype.Text
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(&id, &action, &sessionID, &e.Workbook, &sheet, &e.Campaigns, &e.Processes,
		&rowCount, &bytes, &ip, &ua, &createdAt)
	if err != nil {
		return AuditEntry{}, err
	}

	e.ID = uuidToString(id)
	e.Action = AuditAction(action)
	e.SessionID = uuidToString(sessionID)
	e.Sheet = sheet.String
	e.Rows = int(rowCount)
	e.Bytes = bytes.Int64
	e.IPAddress = ip.String
	e.UserAgent = ua.String
	e.CreatedAt = createdAt.Time
	return e, nil
}

// Helper functions for type conversion

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func toPgInt8(i int64) pgtype.Int8 {
	if i == 0 {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: i, Valid: true}
}

func toPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func uuidToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
