package sqlite

import (
	"context"
	"fmt"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

type ConversationRepo struct {
	db *DB
}

func NewConversationRepo(db *DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Append(ctx context.Context, chatID int64, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := r.db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, m := range msgs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (chat_id, role, content) VALUES (?, ?, ?)`,
			chatID, m.Role.String(), m.Content)
		if err != nil {
			return fmt.Errorf("append messages: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ConversationRepo) List(ctx context.Context, chatID int64, limit int) ([]domain.Message, error) {
	query := `
        SELECT role, content FROM (
            SELECT id, role, content
            FROM messages
            WHERE chat_id = ?
            ORDER BY id DESC
            LIMIT ?
        )
        ORDER BY id ASC
    `

	// LIMIT -1 в sqlite означает "без ограничения"
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Conn.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, domain.Message{Role: domain.Role(role), Content: content})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return msgs, nil
}

func (r *ConversationRepo) Clear(ctx context.Context, chatID int64) error {
	if _, err := r.db.Conn.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}
