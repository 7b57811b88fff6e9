package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chatrelay/apiserver/types"
)

// MessageRepository handles persistence for messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message types.Message) (types.Message, error) {
	now := time.Now()
	message.CreatedAt = now
	message.UpdatedAt = now

	const query = `
		INSERT INTO messages (text, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		message.Text,
		message.OwnerID,
		message.CreatedAt,
		message.UpdatedAt,
	).Scan(&message.ID); err != nil {
		return types.Message{}, err
	}
	return message, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int) (types.Message, error) {
	const query = `
		SELECT id, text, owner_id, created_at, updated_at, deleted_at
		FROM messages
		WHERE id = $1`
	var message types.Message
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&message.ID,
		&message.Text,
		&message.OwnerID,
		&message.CreatedAt,
		&message.UpdatedAt,
		&message.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Message{}, ErrNotFound
		}
		return types.Message{}, err
	}
	return message, nil
}

// ListActiveByOwner returns the owner's non-deleted messages, most
// recently updated first.
func (r *MessageRepository) ListActiveByOwner(ctx context.Context, ownerID int) ([]types.Message, error) {
	const query = `
		SELECT id, text, owner_id, created_at, updated_at, deleted_at
		FROM messages
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var message types.Message
		if err := rows.Scan(
			&message.ID,
			&message.Text,
			&message.OwnerID,
			&message.CreatedAt,
			&message.UpdatedAt,
			&message.DeletedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// SoftDelete marks the message as deleted. A repeat delete reports
// ErrNotFound: the row is already filtered out of the active set.
func (r *MessageRepository) SoftDelete(ctx context.Context, id int) error {
	const query = `
		UPDATE messages
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

// Recover clears the soft-delete mark. Idempotent.
func (r *MessageRepository) Recover(ctx context.Context, id int) error {
	const query = `
		UPDATE messages
		SET deleted_at = NULL,
			updated_at = $1
		WHERE id = $2 AND deleted_at IS NOT NULL`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return err
	}
	return nil
}
