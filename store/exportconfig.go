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

// ExportConfig is a configured third-party destination for insights.
// Credential material is stored encrypted; decryption happens just-in-time
// in the export path.
type ExportConfig struct {
	ID                 string
	UserID             string
	Provider           string
	Label              string
	APIKeyEncrypted    string
	APISecretEncrypted string

	// Provider-specific identifiers. Only the subset relevant to the
	// provider is populated.
	BaseID      string
	TableName   string
	TableID     string
	TeamID      string
	ProjectID   string
	DatabaseID  string
	SheetID     string
	WorkspaceID string
	APIEndpoint string

	// FieldMapping maps canonical insight field names to destination
	// field names.
	FieldMapping map[string]string

	Enabled         bool
	LastExportAt    *time.Time
	LastExportCount int
	TotalExported   int
	CreatedAt       time.Time
}

// CreateExportConfig persists a new export configuration and returns its id.
// Credential fields must already be encrypted by the caller.
func (s *Store) CreateExportConfig(ctx context.Context, c ExportConfig) (string, error) {
	id, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate config id: %w", err)
	}

	if c.FieldMapping == nil {
		c.FieldMapping = map[string]string{}
	}
	mapping, err := json.Marshal(c.FieldMapping)
	if err != nil {
		return "", fmt.Errorf("marshal field mapping: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO export_configs (id, user_id, provider, label,
			api_key_encrypted, api_secret_encrypted, base_id, table_name,
			table_id, team_id, project_id, database_id, sheet_id, workspace_id,
			api_endpoint, field_mapping, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.UserID, c.Provider, c.Label,
		c.APIKeyEncrypted, c.APISecretEncrypted, c.BaseID, c.TableName,
		c.TableID, c.TeamID, c.ProjectID, c.DatabaseID, c.SheetID, c.WorkspaceID,
		c.APIEndpoint, string(mapping), boolToInt(c.Enabled),
	)
	if err != nil {
		return "", fmt.Errorf("insert export config: %w", err)
	}

	return id, nil
}

// GetExportConfig loads an export configuration by id.
func (s *Store) GetExportConfig(ctx context.Context, id string) (*ExportConfig, error) {
	row := s.db.QueryRowContext(ctx, exportConfigColumns+` WHERE id = ?`, id)
	cfg, err := scanExportConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("export config %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExportConfigsByUser returns a user's export configurations, newest first.
func (s *Store) ExportConfigsByUser(ctx context.Context, userID string) ([]ExportConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		exportConfigColumns+` WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query export configs: %w", err)
	}
	defer rows.Close()

	var out []ExportConfig
	for rows.Next() {
		cfg, err := scanExportConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cfg)
	}

	return out, rows.Err()
}

// DeleteExportConfig removes an export configuration.
func (s *Store) DeleteExportConfig(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM export_configs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete export config: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("export config %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetExportConfigEnabled flips the enabled flag.
func (s *Store) SetExportConfigEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE export_configs SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	return nil
}

// RecordExport bumps the usage counters after a successful record creation.
func (s *Store) RecordExport(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE export_configs
		SET last_export_at = ?, last_export_count = last_export_count + 1,
		    total_exported = total_exported + 1
		WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}

const exportConfigColumns = `
	SELECT id, user_id, provider, label, api_key_encrypted, api_secret_encrypted,
	       base_id, table_name, table_id, team_id, project_id, database_id,
	       sheet_id, workspace_id, api_endpoint, field_mapping, enabled,
	       last_export_at, last_export_count, total_exported, created_at
	FROM export_configs`

func scanExportConfig(row rowScanner) (*ExportConfig, error) {
	var c ExportConfig
	var mapping string
	var enabled int
	var lastExportAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.UserID, &c.Provider, &c.Label, &c.APIKeyEncrypted,
		&c.APISecretEncrypted, &c.BaseID, &c.TableName, &c.TableID, &c.TeamID,
		&c.ProjectID, &c.DatabaseID, &c.SheetID, &c.WorkspaceID, &c.APIEndpoint,
		&mapping, &enabled, &lastExportAt, &c.LastExportCount, &c.TotalExported,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Enabled = enabled != 0
	if lastExportAt.Valid {
		c.LastExportAt = &lastExportAt.Time
	}
	if err := json.Unmarshal([]byte(mapping), &c.FieldMapping); err != nil {
		return nil, fmt.Errorf("unmarshal field mapping: %w", err)
	}

	return &c, nil
}
