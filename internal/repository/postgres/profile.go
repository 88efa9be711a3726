package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kitbuilder587/jarvis-bot/internal/domain"
)

// ProfileRepo хранит персону как jsonb, в том же виде, что и в настройках
type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Get(ctx context.Context, chatID int64) (*domain.Profile, error) {
	query := `SELECT data, updated_at FROM profiles WHERE chat_id = $1`

	var (
		data    []byte
		profile domain.Profile
	)
	err := r.db.Pool.QueryRow(ctx, query, chatID).Scan(&data, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	profile.ChatID = chatID

	return &profile, nil
}

func (r *ProfileRepo) Save(ctx context.Context, profile *domain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	query := `
        INSERT INTO profiles (chat_id, data, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (chat_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
        RETURNING updated_at
    `

	if err := r.db.Pool.QueryRow(ctx, query, profile.ChatID, data).Scan(&profile.UpdatedAt); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) Delete(ctx context.Context, chatID int64) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM profiles WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}

	return nil
}
