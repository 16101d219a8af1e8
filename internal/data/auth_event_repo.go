package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Dipk2003/itm-portal-gateway/internal/data/pgxutil"
	domainauth "github.com/Dipk2003/itm-portal-gateway/internal/domain/auth"
	apperrors "github.com/Dipk2003/itm-portal-gateway/internal/errors"
	"github.com/Dipk2003/itm-portal-gateway/internal/ports"
)

// AuthEventRepo persists the auth audit trail in PostgreSQL.
type AuthEventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAuthEventRepo creates a new AuthEventRepo with the given database connection.
func NewAuthEventRepo(db *sql.DB) *AuthEventRepo {
	return &AuthEventRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const authEventColumns = `id, context_id, kind, role, identifier, created_at`

// Record inserts one audit entry. CreatedAt defaults to now when unset.
func (r *AuthEventRepo) Record(ctx context.Context, ev domainauth.AuthEvent) error {
	if strings.TrimSpace(ev.ContextID) == "" {
		return errors.New("context id is required")
	}
	if ev.Kind == "" {
		return errors.New("kind is required")
	}
	createdAt := ev.CreatedAt.UTC()
	if ev.CreatedAt.IsZero() {
		createdAt = r.timeProvider.Now().UTC()
	}
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO auth_events (context_id, kind, role, identifier, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, ev.ContextID, string(ev.Kind), string(ev.Role), ev.Identifier, createdAt)
		return err
	}); err != nil {
		return fmt.Errorf("record auth event: %w", apperrors.MapDBError(err))
	}
	return nil
}

// AuthEventListOptions filters ListRecent. Zero values mean no filter.
type AuthEventListOptions struct {
	ContextID string
	Kind      domainauth.AuthEventKind
	Limit     int
}

// ListRecent returns audit entries newest first.
func (r *AuthEventRepo) ListRecent(ctx context.Context, opts AuthEventListOptions) ([]domainauth.AuthEvent, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 3)
	next := func() int { return len(args) + 1 }
	if opts.ContextID != "" {
		conditions = append(conditions, fmt.Sprintf("context_id = $%d", next()))
		args = append(args, opts.ContextID)
	}
	if opts.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", next()))
		args = append(args, string(opts.Kind))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)

	query := `SELECT ` + authEventColumns + ` FROM auth_events ` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	var out []domainauth.AuthEvent
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[domainauth.AuthEvent])
		return err
	}); err != nil {
		return nil, fmt.Errorf("list auth events: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

var _ ports.AuditRecorder = (*AuthEventRepo)(nil)
