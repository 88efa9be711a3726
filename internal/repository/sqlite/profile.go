package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Get(ctx context.Context, chatID int64) (*domain.Profile, error) {
	var (
		data    string
		updated time.Time
	)
	err := r.db.Conn.QueryRowContext(ctx,
		`SELECT data, updated_at FROM profiles WHERE chat_id = ?`, chatID).Scan(&data, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	profile.ChatID = chatID
	profile.UpdatedAt = updated

	return &profile, nil
}

func (r *ProfileRepo) Save(ctx context.Context, profile *domain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.Conn.ExecContext(ctx, `
        INSERT INTO profiles (chat_id, data, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (chat_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
    `, profile.ChatID, string(data), now)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	profile.UpdatedAt = now
	return nil
}

func (r *ProfileRepo) Delete(ctx context.Context, chatID int64) error {
	result, err := r.db.Conn.ExecContext(ctx, `DELETE FROM profiles WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
