package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/eugene-nechvoloda/meetyai/insight"
)

// CreateInsight persists one insight and returns its generated id.
func (s *Store) CreateInsight(ctx context.Context, ins insight.Insight) (string, error) {
	id, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate insight id: %w", err)
	}

	quotes, err := json.Marshal(ins.EvidenceQuotes)
	if err != nil {
		return "", fmt.Errorf("marshal evidence quotes: %w", err)
	}
	dests := ins.Destinations
	if dests == nil {
		dests = map[string]insight.Destination{}
	}
	destJSON, err := json.Marshal(dests)
	if err != nil {
		return "", fmt.Errorf("marshal destinations: %w", err)
	}

	status := ins.Status
	if status == "" {
		status = insight.StatusNew
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO insights (id, transcript_id, type, title, description, author,
			speaker, evidence_text, evidence_quotes, confidence, timestamp_start,
			content_hash, status, exported, export_destinations, archived)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ins.TranscriptID, string(ins.Type), ins.Title, ins.Description, ins.Author,
		ins.Speaker, ins.EvidenceText, string(quotes), ins.Confidence, ins.TimestampStart,
		ins.ContentHash, string(status), boolToInt(ins.Exported), string(destJSON),
		boolToInt(ins.Archived),
	)
	if err != nil {
		return "", fmt.Errorf("insert insight: %w", err)
	}

	return id, nil
}

// GetInsight loads an insight by id.
func (s *Store) GetInsight(ctx context.Context, id string) (*insight.Insight, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, transcript_id, type, title, description, author, speaker,
		       evidence_text, evidence_quotes, confidence, timestamp_start,
		       content_hash, status, exported, export_destinations, archived,
		       created_at
		FROM insights WHERE id = ?`, id)

	ins, err := scanInsight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("insight %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return ins, nil
}

// InsightsByTranscript returns a transcript's insights in creation order.
// Archived insights are excluded unless includeArchived is set.
func (s *Store) InsightsByTranscript(ctx context.Context, transcriptID string, includeArchived bool) ([]insight.Insight, error) {
	query := `
		SELECT id, transcript_id, type, title, description, author, speaker,
		       evidence_text, evidence_quotes, confidence, timestamp_start,
		       content_hash, status, exported, export_destinations, archived,
		       created_at
		FROM insights WHERE transcript_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var out []insight.Insight
	for rows.Next() {
		ins, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ins)
	}

	return out, rows.Err()
}

// ArchiveUnexportedInsights archives a transcript's insights that were never
// exported. Used before re-analysis so stale findings drop out of active
// views while exported records keep their history.
func (s *Store) ArchiveUnexportedInsights(ctx context.Context, transcriptID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE insights SET archived = 1, status = ?
		WHERE transcript_id = ? AND exported = 0 AND archived = 0`,
		string(insight.StatusArchived), transcriptID,
	)
	if err != nil {
		return 0, fmt.Errorf("archive insights: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// MarkInsightExported records a successful export to one provider: status
// flips to exported and the provider's destination entry is set.
func (s *Store) MarkInsightExported(ctx context.Context, id, provider string, dest insight.Destination) error {
	ins, err := s.GetInsight(ctx, id)
	if err != nil {
		return err
	}

	if ins.Destinations == nil {
		ins.Destinations = map[string]insight.Destination{}
	}
	ins.Destinations[provider] = dest
	destJSON, err := json.Marshal(ins.Destinations)
	if err != nil {
		return fmt.Errorf("marshal destinations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE insights SET status = ?, exported = 1, export_destinations = ?
		WHERE id = ?`,
		string(insight.StatusExported), string(destJSON), id,
	)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// SetInsightStatus updates just the status column.
func (s *Store) SetInsightStatus(ctx context.Context, id string, status insight.Status) error {
	_, err := s.db.ExecContext(ctx, `UPDATE insights SET status = ? WHERE id = ?`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("set insight status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInsight(row rowScanner) (*insight.Insight, error) {
	var ins insight.Insight
	var typ, status, quotes, dests string
	var exported, archived int
	var createdAt time.Time

	err := row.Scan(
		&ins.ID, &ins.TranscriptID, &typ, &ins.Title, &ins.Description,
		&ins.Author, &ins.Speaker, &ins.EvidenceText, &quotes, &ins.Confidence,
		&ins.TimestampStart, &ins.ContentHash, &status, &exported, &dests,
		&archived, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	ins.Type = insight.Type(typ)
	ins.Status = insight.Status(status)
	ins.Exported = exported != 0
	ins.Archived = archived != 0
	ins.CreatedAt = createdAt
	if err := json.Unmarshal([]byte(quotes), &ins.EvidenceQuotes); err != nil {
		return nil, fmt.Errorf("unmarshal evidence quotes: %w", err)
	}
	if err := json.Unmarshal([]byte(dests), &ins.Destinations); err != nil {
		return nil, fmt.Errorf("unmarshal destinations: %w", err)
	}

	return &ins, nil
}
