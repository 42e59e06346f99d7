package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the audit tables. Timestamps are stored as Unix nanoseconds
// in UTC so range filters and ordering compare integers.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    received_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,

    origin TEXT,
    client_hash TEXT,
    method TEXT NOT NULL,

    status_code INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    error_type TEXT,

    prompt_chars INTEGER,
    reply_chars INTEGER,
    model TEXT,
    upstream_latency_ms INTEGER
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_received_at ON audit_records(received_at);
CREATE INDEX IF NOT EXISTS idx_audit_outcome ON audit_records(outcome);
CREATE INDEX IF NOT EXISTS idx_audit_request_id ON audit_records(request_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const selectColumns = `id, request_id, received_at, recorded_at, origin, client_hash, method,
	status_code, outcome, error_type, prompt_chars, reply_chars, model, upstream_latency_ms`
