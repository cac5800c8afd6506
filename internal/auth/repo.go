package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/challan-admin/challan-admin/internal/platform/db"
	"github.com/challan-admin/challan-admin/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	CreateAdmin(ctx context.Context, username, passwordHash string) (*Admin, error)
	CreateSession(ctx context.Context, id string, adminID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const adminColumns = `id, username, password_hash, is_active, created_at, updated_at`

func scanAdmin(row pgx.Row) (*Admin, error) {
	var a Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByUsername fetches an admin by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Admin, error) {
	admin, err := scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return admin, nil
}

// CreateAdmin inserts a new admin account.
func (r *PGRepository) CreateAdmin(ctx context.Context, username, passwordHash string) (*Admin, error) {
	var admin *Admin
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		created, err := scanAdmin(tx.QueryRow(ctx,
			`INSERT INTO admin_users (username, password_hash) VALUES ($1, $2) RETURNING `+adminColumns,
			username, passwordHash))
		if err != nil {
			return err
		}
		admin = created
		return shared.NewAuditLogger(tx).Record(ctx, shared.AuditLog{
			AdminID:  shared.SystemActor,
			Action:   shared.AuditActionCreateAdmin,
			Entity:   "admin",
			EntityID: strconv.FormatInt(created.ID, 10),
			Meta:     map[string]any{"username": created.Username},
		})
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateAdmin
		}
		return nil, err
	}
	return admin, nil
}

// CreateSession persists a login session for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, adminID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admin_sessions (id, admin_id, created_at, expires_at, ip, user_agent) VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
		id, adminID, time.Now().UTC(), expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
