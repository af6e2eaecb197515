package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Origin describes how a transcript entered the system.
type Origin string

// Transcript origins.
const (
	OriginUpload Origin = "upload"
	OriginPaste  Origin = "paste"
	OriginLink   Origin = "link"
)

// Transcript is a persisted meeting transcript and its pipeline state.
type Transcript struct {
	ID                string
	UserID            string
	Title             string
	Origin            Origin
	Status            string
	Text              string
	Language          string
	ContextTheme      string
	ContextConfidence float64
	Archived          bool
	ProcessedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Activity is one append-only audit entry for a transcript.
type Activity struct {
	ID           int64
	TranscriptID string
	ActivityType string
	Message      string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// Activity types written by the pipeline.
const (
	ActivityStatusChange     = "status_change"
	ActivityProcessingFailed = "processing_failed"
)

// CreateTranscript persists a new transcript with status "uploaded" and
// returns its generated id.
func (s *Store) CreateTranscript(ctx context.Context, t Transcript) (string, error) {
	id, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate transcript id: %w", err)
	}

	origin := t.Origin
	if origin == "" {
		origin = OriginUpload
	}
	status := t.Status
	if status == "" {
		status = "uploaded"
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcripts (id, user_id, title, origin, status, transcript_text, language)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, t.UserID, t.Title, string(origin), status, t.Text, t.Language,
	)
	if err != nil {
		return "", fmt.Errorf("insert transcript: %w", err)
	}

	return id, nil
}

// GetTranscript loads a transcript by id.
func (s *Store) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, origin, status, transcript_text, language,
		       context_theme, context_confidence, archived, processed_at,
		       created_at, updated_at
		FROM transcripts WHERE id = ?`, id)

	var t Transcript
	var origin string
	var archived int
	var processedAt sql.NullTime
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &origin, &t.Status, &t.Text, &t.Language,
		&t.ContextTheme, &t.ContextConfidence, &archived, &processedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transcript %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}

	t.Origin = Origin(origin)
	t.Archived = archived != 0
	if processedAt.Valid {
		t.ProcessedAt = &processedAt.Time
	}

	return &t, nil
}

// UpdateStatus writes the new status and appends one status_change activity
// entry. No legality check is performed on the transition.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transcripts SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transcript %s: %w", id, ErrNotFound)
	}

	return s.AppendActivity(ctx, id, ActivityStatusChange,
		"Status updated to: "+status, nil)
}

// AppendActivity appends one audit entry for a transcript.
func (s *Store) AppendActivity(ctx context.Context, id, activityType, message string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcript_activities (transcript_id, activity_type, message, metadata)
		VALUES (?, ?, ?, ?)`,
		id, activityType, message, string(meta),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	return nil
}

// Activities returns the audit trail of a transcript in insertion order.
func (s *Store) Activities(ctx context.Context, id string) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transcript_id, activity_type, message, metadata, created_at
		FROM transcript_activities WHERE transcript_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		var meta string
		if err := rows.Scan(&a.ID, &a.TranscriptID, &a.ActivityType, &a.Message, &meta, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &a.Metadata); err != nil {
			a.Metadata = map[string]any{}
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

// SetContext records the classification result on the transcript.
func (s *Store) SetContext(ctx context.Context, id, theme string, confidence float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE transcripts
		SET context_theme = ?, context_confidence = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		theme, confidence, id,
	)
	if err != nil {
		return fmt.Errorf("set context: %w", err)
	}
	return nil
}

// MarkProcessed stamps processed_at on the transcript.
func (s *Store) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE transcripts SET processed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// SetTranscriptArchived flips the archived flag independently of pipeline state.
func (s *Store) SetTranscriptArchived(ctx context.Context, id string, archived bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE transcripts SET archived = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(archived), id,
	)
	if err != nil {
		return fmt.Errorf("set archived: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
