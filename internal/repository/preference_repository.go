package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lessonplan-api/internal/models"
)

// PreferenceRepository stores per-user dashboard preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs a PreferenceRepository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored preference or sql.ErrNoRows.
func (r *PreferenceRepository) Get(ctx context.Context, userID string) (*models.UserPreference, error) {
	var pref models.UserPreference
	if err := r.db.GetContext(ctx, &pref, `SELECT user_id, mode, updated_at FROM user_preferences WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert writes the preference, replacing any previous value.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.UserPreference) error {
	pref.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO user_preferences (user_id, mode, updated_at) VALUES (:user_id, :mode, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET mode = EXCLUDED.mode, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert user preference: %w", err)
	}
	return nil
}
