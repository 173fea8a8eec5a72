package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/escuelahq/escuela-ui-api/internal/data/database"
	"github.com/escuelahq/escuela-ui-api/internal/data/pgxutil"
	"github.com/escuelahq/escuela-ui-api/internal/domain/model"
	apperrors "github.com/escuelahq/escuela-ui-api/internal/errors"
)

// AuditRepo persists the authorization audit trail.
type AuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAuditRepo creates a new AuditRepo instance with the given database connection.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// auditColumns defines the column list for audit SELECT queries to ensure consistent field mapping.
//
//nolint:gochecknoglobals // read-only column list shared by List queries
var auditColumns = []string{"id", "occurred_at", "event", "user_id", "username", "detail"}

// Record inserts one audit entry. OccurredAt defaults to now when unset.
func (r *AuditRepo) Record(ctx context.Context, entry model.AuditEntry) error {
	if err := entry.Validate(); err != nil {
		return apperrors.ValidationField("event", err.Error())
	}

	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = r.timeProvider.Now()
	}

	query := `
		INSERT INTO auth_audit (occurred_at, event, user_id, username, detail)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.DB.ExecContext(ctx, query,
		occurredAt, string(entry.Event), entry.UserID, entry.Username, entry.Detail,
	)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("record audit entry: %w", err))
	}
	return nil
}

// List retrieves audit entries newest-first with the given query bounds.
func (r *AuditRepo) List(ctx context.Context, q model.AuditQuery) ([]model.AuditEntry, error) {
	q.Normalize()

	opts := []database.ListQueryOption{
		database.WithColumns(auditColumns...),
		database.WithOrderBy("occurred_at", "DESC"),
		database.WithOrderBy("id", "DESC"),
		database.WithLimit(q.Limit),
		database.WithOffset(q.Offset),
	}
	if q.Event != "" {
		opts = append(opts, database.WithCondition(
			database.WhereCond("event", database.Equal, string(q.Event))))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("auth_audit", opts...))

	var entries []model.AuditEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		entries, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.AuditEntry])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list audit entries: %w", err))
	}

	return entries, nil
}

// CountByEvent returns per-event entry counts for the whole trail.
func (r *AuditRepo) CountByEvent(ctx context.Context) (map[model.AuditEvent]int64, error) {
	query := `SELECT event, COUNT(*) FROM auth_audit GROUP BY event`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("count audit entries: %w", err))
	}
	defer rows.Close()

	counts := make(map[model.AuditEvent]int64)
	for rows.Next() {
		var event string
		var count int64
		if scanErr := rows.Scan(&event, &count); scanErr != nil {
			return nil, fmt.Errorf("scan audit count: %w", scanErr)
		}
		counts[model.AuditEvent(event)] = count
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate audit counts: %w", rowsErr)
	}

	return counts, nil
}

// Purge deletes entries older than the given cutoff and reports how many
// rows were removed.
func (r *AuditRepo) Purge(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, errors.New("purge cutoff is required")
	}

	result, err := r.DB.ExecContext(ctx, `DELETE FROM auth_audit WHERE occurred_at < $1`, before)
	if err != nil {
		return 0, apperrors.MapDBError(fmt.Errorf("purge audit entries: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rowsAffected, nil
}
