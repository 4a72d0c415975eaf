package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the ledger tables. Timestamps are Unix nanoseconds; costs
// are decimal strings so no precision is lost.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,
    finished_at INTEGER,
    file_count INTEGER NOT NULL DEFAULT 0,
    total_tokens INTEGER NOT NULL DEFAULT 0,
    total_cost TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    file_name TEXT NOT NULL,
    model TEXT NOT NULL,
    estimated_prompt_tokens INTEGER NOT NULL,
    actual_prompt_tokens INTEGER,
    completion_tokens INTEGER,
    total_tokens INTEGER,
    estimated_completion_tokens INTEGER NOT NULL DEFAULT 0,
    cost TEXT NOT NULL,
    cost_estimated BOOLEAN NOT NULL DEFAULT 0,
    fallback_rate BOOLEAN NOT NULL DEFAULT 0,
    recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id);
CREATE INDEX IF NOT EXISTS idx_records_file_name ON records(file_name);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, ?)
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
