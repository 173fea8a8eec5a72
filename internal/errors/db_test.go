package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsAppError reports whether err carries the given code.
func IsAppError(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

func TestMapDBError_NilError(t *testing.T) {
	if got := MapDBError(nil); got != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", got)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: ErrCodeTimeout,
		},
		{
			name: "canceled",
			err:  context.Canceled,
			want: ErrCodeCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(tt.err)
			if !IsAppError(got, tt.want) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(got), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("MapDBError() should wrap the original error")
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	got := MapDBError(pgx.ErrNoRows)
	if !IsAppError(got, ErrCodeNotFound) {
		t.Errorf("MapDBError(pgx.ErrNoRows) code = %v, want %v", GetCode(got), ErrCodeNotFound)
	}
	if !errors.Is(got, pgx.ErrNoRows) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should wrap pgx.ErrNoRows")
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{
			name: "column name metadata preferred",
			pgErr: &pgconn.PgError{
				Code:       pgerrcode.UniqueViolation,
				ColumnName: "username",
				Detail:     "Key (user_id)=(42) already exists.",
			},
			wantField: "username",
		},
		{
			name: "field parsed from detail",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: "Key (username)=(mgarcia) already exists.",
			},
			wantField: "username",
		},
		{
			name: "field inferred from constraint name",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "sessions_token_key",
			},
			wantField: "token",
		},
		{
			name: "multi-column constraint stays fieldless",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "auth_audit_event_user_id_key",
			},
			wantField: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(tt.pgErr)
			if !IsAppError(got, ErrCodeConflict) {
				t.Fatalf("MapDBError() code = %v, want %v", GetCode(got), ErrCodeConflict)
			}
			if field := GetField(got); field != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", field, tt.wantField)
			}
		})
	}
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name        string
		pgErr       *pgconn.PgError
		wantMessage string
	}{
		{
			name: "still referenced from detail",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (id)=(7) is still referenced from table "auth_audit".`,
			},
			wantMessage: "Cannot delete because this item is in use by Audit entry.",
		},
		{
			name: "missing parent from detail",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (user_id)=(9) is not present in table "auth_audit".`,
			},
			wantMessage: "Cannot complete operation because the referenced Audit entry does not exist.",
		},
		{
			name: "table name metadata fallback",
			pgErr: &pgconn.PgError{
				Code:      pgerrcode.ForeignKeyViolation,
				TableName: "auth_audit",
			},
			wantMessage: "Cannot complete operation because this item is in use by Audit entry.",
		},
		{
			name: "generic fallback without detail or table",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.ForeignKeyViolation,
				ConstraintName: "auth_audit_user_id_fkey",
			},
			wantMessage: "Cannot complete operation because this item is in use.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(tt.pgErr)
			if !IsAppError(got, ErrCodeForeignKey) {
				t.Fatalf("MapDBError() code = %v, want %v", GetCode(got), ErrCodeForeignKey)
			}
			var appErr *AppError
			if !errors.As(got, &appErr) {
				t.Fatalf("MapDBError() did not return an *AppError: %v", got)
			}
			if appErr.Message != tt.wantMessage {
				t.Errorf("MapDBError() message = %q, want %q", appErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapDBError_NotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       pgerrcode.NotNullViolation,
		ColumnName: "event",
	}

	got := MapDBError(pgErr)
	if !IsAppError(got, ErrCodeValidation) {
		t.Fatalf("MapDBError() code = %v, want %v", GetCode(got), ErrCodeValidation)
	}
	if field := GetField(got); field != "event" {
		t.Errorf("MapDBError() field = %q, want %q", field, "event")
	}
}

func TestMapDBError_CheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       pgerrcode.CheckViolation,
		ColumnName: "occurred_at",
	}

	got := MapDBError(pgErr)
	if !IsAppError(got, ErrCodeValidation) {
		t.Fatalf("MapDBError() code = %v, want %v", GetCode(got), ErrCodeValidation)
	}
	if field := GetField(got); field != "occurred_at" {
		t.Errorf("MapDBError() field = %q, want %q", field, "occurred_at")
	}
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    pgerrcode.SerializationFailure,
		Message: "could not serialize access",
	}

	got := MapDBError(pgErr)
	if !IsAppError(got, ErrCodeInternal) {
		t.Errorf("MapDBError() code = %v, want %v", GetCode(got), ErrCodeInternal)
	}
	if !errors.Is(got, pgErr) {
		t.Errorf("MapDBError() should wrap the original PgError")
	}
}

func TestMapDBError_StandardError(t *testing.T) {
	stdErr := errors.New("plain error")
	if got := MapDBError(stdErr); !errors.Is(got, stdErr) {
		t.Errorf("MapDBError() = %v, want the original error passed through", got)
	}
}

func TestInferFieldFromConstraint(t *testing.T) {
	tests := []struct {
		name           string
		constraintName string
		want           string
	}{
		{
			name:           "standard unique key suffix",
			constraintName: "sessions_token_key",
			want:           "token",
		},
		{
			name:           "unique suffix variant",
			constraintName: "users_email_unique",
			want:           "email",
		},
		{
			name:           "multi-part name is ambiguous",
			constraintName: "auth_audit_event_key",
			want:           "",
		},
		{
			name:           "expression index on a function",
			constraintName: "users_lower_key",
			want:           "",
		},
		{
			name:           "empty constraint name",
			constraintName: "",
			want:           "",
		},
		{
			name:           "too few parts",
			constraintName: "pk_audit",
			want:           "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferFieldFromConstraint(tt.constraintName); got != tt.want {
				t.Errorf("inferFieldFromConstraint(%q) = %q, want %q", tt.constraintName, got, tt.want)
			}
		})
	}
}

func TestMapTableToDomain(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		want      string
	}{
		{
			name:      "audit table",
			tableName: "auth_audit",
			want:      "Audit entry",
		},
		{
			name:      "migration ledger",
			tableName: "schema_migrations",
			want:      "Migration",
		},
		{
			name:      "lookup is case-insensitive",
			tableName: "AUTH_AUDIT",
			want:      "Audit entry",
		},
		{
			name:      "surrounding whitespace trimmed",
			tableName: "  auth_audit  ",
			want:      "Audit entry",
		},
		{
			name:      "unknown table falls back to title case",
			tableName: "login_attempts",
			want:      "Login Attempts",
		},
		{
			name:      "empty table name",
			tableName: "",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapTableToDomain(tt.tableName); got != tt.want {
				t.Errorf("mapTableToDomain(%q) = %q, want %q", tt.tableName, got, tt.want)
			}
		})
	}
}

func TestIsFunctionName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "lower", input: "lower", want: true},
		{name: "upper case spelling", input: "MD5", want: true},
		{name: "regular field", input: "username", want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isFunctionName(tt.input); got != tt.want {
				t.Errorf("isFunctionName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
