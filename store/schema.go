package store

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL,
	title              TEXT NOT NULL,
	origin             TEXT NOT NULL DEFAULT 'upload',
	status             TEXT NOT NULL DEFAULT 'uploaded',
	transcript_text    TEXT NOT NULL DEFAULT '',
	language           TEXT NOT NULL DEFAULT '',
	context_theme      TEXT NOT NULL DEFAULT '',
	context_confidence REAL NOT NULL DEFAULT 0,
	archived           INTEGER NOT NULL DEFAULT 0,
	processed_at       TIMESTAMP,
	created_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transcript_activities (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	transcript_id TEXT NOT NULL REFERENCES transcripts(id),
	activity_type TEXT NOT NULL,
	message       TEXT NOT NULL,
	metadata      TEXT NOT NULL DEFAULT '{}',
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_activities_transcript
	ON transcript_activities(transcript_id, id);

CREATE TABLE IF NOT EXISTS insights (
	id                  TEXT PRIMARY KEY,
	transcript_id       TEXT NOT NULL REFERENCES transcripts(id),
	type                TEXT NOT NULL,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL,
	author              TEXT NOT NULL DEFAULT '',
	speaker             TEXT NOT NULL DEFAULT '',
	evidence_text       TEXT NOT NULL DEFAULT '',
	evidence_quotes     TEXT NOT NULL DEFAULT '[]',
	confidence          REAL NOT NULL DEFAULT 0,
	timestamp_start     TEXT NOT NULL DEFAULT '',
	content_hash        TEXT NOT NULL,
	status              TEXT NOT NULL DEFAULT 'new',
	exported            INTEGER NOT NULL DEFAULT 0,
	export_destinations TEXT NOT NULL DEFAULT '{}',
	archived            INTEGER NOT NULL DEFAULT 0,
	created_at          TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_insights_transcript
	ON insights(transcript_id);

CREATE TABLE IF NOT EXISTS export_configs (
	id                   TEXT PRIMARY KEY,
	user_id              TEXT NOT NULL,
	provider             TEXT NOT NULL,
	label                TEXT NOT NULL,
	api_key_encrypted    TEXT NOT NULL,
	api_secret_encrypted TEXT NOT NULL DEFAULT '',
	base_id              TEXT NOT NULL DEFAULT '',
	table_name           TEXT NOT NULL DEFAULT '',
	table_id             TEXT NOT NULL DEFAULT '',
	team_id              TEXT NOT NULL DEFAULT '',
	project_id           TEXT NOT NULL DEFAULT '',
	database_id          TEXT NOT NULL DEFAULT '',
	sheet_id             TEXT NOT NULL DEFAULT '',
	workspace_id         TEXT NOT NULL DEFAULT '',
	api_endpoint         TEXT NOT NULL DEFAULT '',
	field_mapping        TEXT NOT NULL DEFAULT '{}',
	enabled              INTEGER NOT NULL DEFAULT 1,
	last_export_at       TIMESTAMP,
	last_export_count    INTEGER NOT NULL DEFAULT 0,
	total_exported       INTEGER NOT NULL DEFAULT 0,
	created_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_export_configs_user
	ON export_configs(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id          TEXT PRIMARY KEY,
	custom_context   TEXT NOT NULL DEFAULT '',
	insight_examples TEXT NOT NULL DEFAULT '',
	updated_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
