package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"messaging-service/internal/db"
)

var ErrNotFound = errors.New("message not found")

type Store struct {
	db *db.DB
}

func NewStore(db *db.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, senderID, recipientID, content string) (*Message, error) {
	var m Message
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO messages (sender_id, recipient_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, sender_id, recipient_id, content, is_read, read_at, created_at
	`, senderID, recipientID, content).Scan(
		&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.IsRead, &m.ReadAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &m, nil
}

// Conversation returns the messages exchanged between two users, newest
// first, excluding soft-deleted rows.
func (s *Store) Conversation(ctx context.Context, userID, otherID string, page, limit int) ([]Message, Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, recipient_id, content, is_read, read_at, created_at
		FROM messages
		WHERE is_deleted = false
		  AND ((sender_id = $1 AND recipient_id = $2)
		    OR (sender_id = $2 AND recipient_id = $1))
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, userID, otherID, limit, offset)
	if err != nil {
		return nil, Page{}, fmt.Errorf("conversation: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.IsRead, &m.ReadAt, &m.CreatedAt,
		); err != nil {
			return nil, Page{}, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, Page{}, err
	}

	var total int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE is_deleted = false
		  AND ((sender_id = $1 AND recipient_id = $2)
		    OR (sender_id = $2 AND recipient_id = $1))
	`, userID, otherID).Scan(&total)
	if err != nil {
		return nil, Page{}, fmt.Errorf("conversation count: %w", err)
	}

	pages := (total + limit - 1) / limit
	return messages, Page{Total: total, Page: page, Limit: limit, Pages: pages}, nil
}

// MarkRead flags a message as read. Only the recipient may do so.
func (s *Store) MarkRead(ctx context.Context, messageID, recipientID string) (*Message, error) {
	var m Message
	err := s.db.QueryRowContext(ctx, `
		UPDATE messages
		SET is_read = true, read_at = NOW()
		WHERE id = $1 AND recipient_id = $2 AND is_deleted = false
		RETURNING id, sender_id, recipient_id, content, is_read, read_at, created_at
	`, messageID, recipientID).Scan(
		&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.IsRead, &m.ReadAt, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return &m, nil
}

// SoftDelete hides a message. Only the sender may delete their own.
func (s *Store) SoftDelete(ctx context.Context, messageID, senderID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE messages
		SET is_deleted = true, deleted_at = NOW()
		WHERE id = $1 AND sender_id = $2 AND is_deleted = false
	`, messageID, senderID)
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
