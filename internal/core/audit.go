package core

import (
	"context"
	"time"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionUpload AuditAction = "upload"
	ActionView   AuditAction = "view"
	ActionExport AuditAction = "export"
)

// DefaultAuditLimit is the page size used when a filter sets no limit.
const DefaultAuditLimit = 50

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID        string      `json:"id"`
	Action    AuditAction `json:"action"`
	SessionID string      `json:"session_id,omitempty"`
	Workbook  string      `json:"workbook"`
	Sheet     string      `json:"sheet,omitempty"`
	Campaigns []string    `json:"campaigns,omitempty"`
	Processes []string    `json:"processes,omitempty"`
	Rows      int         `json:"rows"`
	Bytes     int64       `json:"bytes,omitempty"`
	IPAddress string      `json:"ip_address,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AuditFilter narrows an audit query. Zero fields match everything.
type AuditFilter struct {
	Action    AuditAction
	SessionID string
	Limit     int
}

func (f AuditFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultAuditLimit
	}
	return f.Limit
}

func (f AuditFilter) matches(e *AuditEntry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	return true
}

// AuditStore persists audit entries.
type AuditStore interface {
	// Record stores e and returns it with ID and CreatedAt assigned.
	Record(ctx context.Context, e AuditEntry) (*AuditEntry, error)

	// List returns matching entries, newest first.
	List(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
}

// audit records an entry, filling request metadata from ctx. Failures are
// logged and never fail the user's request.
func (s *Service) audit(ctx context.Context, e AuditEntry) {
	if s.audits == nil {
		return
	}
	if e.IPAddress == "" {
		e.IPAddress = GetIPAddressFromContext(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = GetUserAgentFromContext(ctx)
	}
	if _, err := s.audits.Record(ctx, e); err != nil {
		s.logger(ctx).Error("audit record failed", "action", e.Action, "error", err)
	}
}

// RecentAudit returns the latest audit entries matching f.
func (s *Service) RecentAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	if s.audits == nil {
		return nil, nil
	}
	return s.audits.List(ctx, f)
}
