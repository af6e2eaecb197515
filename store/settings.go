package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UserSettings holds the per-user prompt customization consumed by the
// extraction and refinement stages.
type UserSettings struct {
	UserID          string
	CustomContext   string
	InsightExamples string
}

// GetUserSettings returns the user's settings, or zero-valued settings when
// none have been saved yet.
func (s *Store) GetUserSettings(ctx context.Context, userID string) (UserSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, custom_context, insight_examples
		FROM user_settings WHERE user_id = ?`, userID)

	var us UserSettings
	err := row.Scan(&us.UserID, &us.CustomContext, &us.InsightExamples)
	if errors.Is(err, sql.ErrNoRows) {
		return UserSettings{UserID: userID}, nil
	}
	if err != nil {
		return UserSettings{}, fmt.Errorf("scan user settings: %w", err)
	}

	return us, nil
}

// UpsertUserSettings saves the user's settings, replacing any existing row.
func (s *Store) UpsertUserSettings(ctx context.Context, us UserSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, custom_context, insight_examples, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			custom_context = excluded.custom_context,
			insight_examples = excluded.insight_examples,
			updated_at = CURRENT_TIMESTAMP`,
		us.UserID, us.CustomContext, us.InsightExamples,
	)
	if err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}
