package model

import (
	"errors"
	"strings"
	"time"
)

// AuditEvent tags one authorization-relevant occurrence.
type AuditEvent string

const (
	AuditLogin          AuditEvent = "login"
	AuditLoginFailure   AuditEvent = "login_failure"
	AuditLogout         AuditEvent = "logout"
	AuditRefresh        AuditEvent = "refresh"
	AuditRefreshFailure AuditEvent = "refresh_failure"
	AuditAccessDenied   AuditEvent = "access_denied"
)

// AuditEntry is one row of the authorization audit trail.
type AuditEntry struct {
	ID         int64      `json:"id"`
	OccurredAt time.Time  `json:"occurred_at"`
	Event      AuditEvent `json:"event"`
	UserID     string     `json:"user_id"`
	Username   string     `json:"username"`
	Detail     string     `json:"detail"`
}

// Validate checks the entry before persistence.
func (e *AuditEntry) Validate() error {
	if strings.TrimSpace(string(e.Event)) == "" {
		return errors.New("audit event is required")
	}
	return nil
}

// AuditQuery bounds an audit listing.
type AuditQuery struct {
	Event  AuditEvent // optional filter
	Limit  int        // default 50, max 500
	Offset int
}

// Normalize applies listing guardrails.
func (q *AuditQuery) Normalize() {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}
