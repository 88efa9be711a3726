package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

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

	// пара user/assistant пишется одной транзакцией
	err := pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, m := range msgs {
			batch.Queue(`INSERT INTO messages (chat_id, role, content) VALUES ($1, $2, $3)`,
				chatID, m.Role.String(), m.Content)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	return nil
}

func (r *ConversationRepo) List(ctx context.Context, chatID int64, limit int) ([]domain.Message, error) {
	query := `
        SELECT role, content FROM (
            SELECT id, role, content
            FROM messages
            WHERE chat_id = $1
            ORDER BY id DESC
            LIMIT $2
        ) recent
        ORDER BY id ASC
    `

	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := r.db.Pool.Query(ctx, query, chatID, lim)
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
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}
