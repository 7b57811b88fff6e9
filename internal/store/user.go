package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chatrelay/apiserver/types"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, login, first_name, password_hash, telegram_id,
		is_active, is_staff, is_superuser, created_at, updated_at, deleted_at`

func scanUser(row interface{ Scan(...any) error }) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Login,
		&user.FirstName,
		&user.PasswordHash,
		&user.TelegramID,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByLogin resolves a user by exact, case-sensitive login. Deleted
// rows are included; the login flow distinguishes deleted accounts
// itself.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE login = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, login))
}

// ListActive returns users that are not soft-deleted, most recently
// updated first.
func (r *UserRepository) ListActive(ctx context.Context) ([]types.User, error) {
	return r.list(ctx, `deleted_at IS NULL`)
}

// ListDeleted returns soft-deleted users, most recently updated first.
func (r *UserRepository) ListDeleted(ctx context.Context) ([]types.User, error) {
	return r.list(ctx, `deleted_at IS NOT NULL`)
}

func (r *UserRepository) list(ctx context.Context, where string) ([]types.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ` + where + `
		ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (login, first_name, password_hash, telegram_id,
			is_active, is_staff, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Login,
		user.FirstName,
		user.PasswordHash,
		user.TelegramID,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return types.User{}, ErrConflict
		}
		return types.User{}, err
	}
	return user, nil
}

// SetTelegramID links a chat identity to the user. The field is
// write-once: the guarded UPDATE only matches while telegram_id is
// still null, so a second link attempt reports ErrConflict without
// touching the stored value.
func (r *UserRepository) SetTelegramID(ctx context.Context, id int, telegramID int64) error {
	const query = `
		UPDATE users
		SET telegram_id = $1,
			updated_at = $2
		WHERE id = $3 AND telegram_id IS NULL`
	result, err := r.db.ExecContext(ctx, query, telegramID, time.Now(), id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrConflict
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

// SoftDelete marks the user as deleted. Already-deleted rows are left
// untouched.
func (r *UserRepository) SoftDelete(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET deleted_at = $1,
			updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Recover clears the soft-delete mark. It is idempotent: recovering an
// active user is a no-op.
func (r *UserRepository) Recover(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET deleted_at = NULL,
			updated_at = $1
		WHERE id = $2 AND deleted_at IS NOT NULL`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return err
	}
	return nil
}
