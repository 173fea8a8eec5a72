package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role is a normalized, lower-cased authorization role tag.
// The vocabulary is open: the constants below cover the roles the school
// backend is known to emit, but unrecognized backend roles are carried
// verbatim (lower-cased) rather than discarded.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDocente Role = "docente"
	RolePadre   Role = "padre"
)

// ViewDescriptor describes one grantable UI capability ("view").
// Code is uppercase, trimmed, and never empty. ID is the backend-provided
// numeric identifier when present, or a synthetic 1-based position assigned
// at extraction time.
type ViewDescriptor struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description *string `json:"description,omitempty"`
}

// User is the canonical, reconciled view of the current principal.
// It is an immutable value: a session refresh builds a brand-new User and
// replaces the old one wholesale, never mutates it in place.
type User struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"display_name"`
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	PrimaryRole Role             `json:"primary_role,omitempty"`
	Roles       []Role           `json:"roles"`
	Views       []ViewDescriptor `json:"views"`
}

// HasView reports whether the user holds the given view code.
// Comparison is by canonical (uppercase, trimmed) code.
func (u User) HasView(code string) bool {
	want := strings.ToUpper(strings.TrimSpace(code))
	if want == "" {
		return false
	}
	for _, v := range u.Views {
		if v.Code == want {
			return true
		}
	}
	return false
}

// HasAnyView reports whether the user holds at least one of the given codes.
func (u User) HasAnyView(codes ...string) bool {
	for _, c := range codes {
		if u.HasView(c) {
			return true
		}
	}
	return false
}

// HasRole reports whether the role list contains the given role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// SessionStatus is the tri-state lifecycle of the session slot.
type SessionStatus string

const (
	// StatusLoading means a session refresh is in flight and no decision
	// (render or redirect) should be taken yet.
	StatusLoading SessionStatus = "loading"
	// StatusAnonymous means there is no valid session.
	StatusAnonymous SessionStatus = "anonymous"
	// StatusAuthenticated means User carries the resolved principal.
	StatusAuthenticated SessionStatus = "authenticated"
)

// Session is the server-side record persisted for an authenticated user.
// ID is an opaque session identifier (random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`

	// BackendToken is the opaque upstream credential scoping identity
	// fetches for this session. Empty for flows that cannot re-fetch
	// (such sessions simply keep their resolved user until expiry).
	BackendToken string `json:"backend_token,omitempty"`
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired() bool { return time.Now().After(s.ExpiresAt) }
