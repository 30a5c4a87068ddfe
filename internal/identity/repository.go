package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByClientID(ctx context.Context, clientID string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	Update(ctx context.Context, clientID string, changes Changes) (User, error)
	Delete(ctx context.Context, clientID string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, client_id, name, email, password, is_admin, created_at, updated_at`

// Create inserts a new user. Unique violations map to ErrClientIDTaken or
// ErrEmailTaken.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, client_id, name, email, password, is_admin, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		userID, user.ClientID, user.Name, user.Email, string(user.PasswordHash), user.IsAdmin, user.CreatedAt.UTC())
	return mapUniqueViolation(err)
}

// FindByClientID fetches a user by client id.
func (r *PostgresRepository) FindByClientID(ctx context.Context, clientID string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE client_id = $1`, clientID))
}

// FindByEmail fetches a user by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// List returns a page of users, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users
        ORDER BY created_at DESC, client_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		return scanUser(row)
	})
}

// Update applies the non-nil changes.
func (r *PostgresRepository) Update(ctx context.Context, clientID string, changes Changes) (User, error) {
	row := r.db.QueryRow(ctx, `UPDATE users SET
            name = COALESCE($2, name),
            email = COALESCE($3, email),
            updated_at = now()
        WHERE client_id = $1 RETURNING `+userColumns, clientID, changes.Name, changes.Email)
	user, err := scanUser(row)
	if err != nil {
		return User{}, mapUniqueViolation(err)
	}
	return user, nil
}

// Delete removes the user row. The wallet account and its ledger history
// are kept.
func (r *PostgresRepository) Delete(ctx context.Context, clientID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE client_id = $1`, clientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id                   uuid.UUID
		password             string
		createdAt, updatedAt time.Time
		user                 User
	)
	if err := row.Scan(&id, &user.ClientID, &user.Name, &user.Email, &password, &user.IsAdmin, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.PasswordHash = []byte(password)
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	return user, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "email") {
			return ErrEmailTaken
		}
		return ErrClientIDTaken
	}
	return err
}
