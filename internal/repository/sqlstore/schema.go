package sqlstore

// schemaSQLite is the SQLite3 DDL. Cascade deletes rely on
// "PRAGMA foreign_keys = ON", set by NewConnection.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS policy_stores (
	id                          TEXT PRIMARY KEY,
	name                        TEXT NOT NULL,
	description                 TEXT NOT NULL DEFAULT '',
	status                      TEXT NOT NULL,
	version                     TEXT NOT NULL,
	author                      TEXT NOT NULL DEFAULT '',
	tags                        TEXT NOT NULL DEFAULT '[]',
	identity_sources            TEXT NOT NULL DEFAULT '[]',
	default_identity_source_id  TEXT,
	created_at                  DATETIME NOT NULL,
	updated_at                  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS schemas (
	store_id    TEXT PRIMARY KEY REFERENCES policy_stores(id) ON DELETE CASCADE,
	raw_json    TEXT NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS policies (
	store_id          TEXT NOT NULL REFERENCES policy_stores(id) ON DELETE CASCADE,
	id                TEXT NOT NULL,
	statement         TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	template_id       TEXT,
	template_principal_type  TEXT,
	template_principal_id    TEXT,
	template_resource_type   TEXT,
	template_resource_id     TEXT,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL,
	PRIMARY KEY (store_id, id)
);

CREATE TABLE IF NOT EXISTS policy_templates (
	store_id     TEXT NOT NULL REFERENCES policy_stores(id) ON DELETE CASCADE,
	id           TEXT NOT NULL,
	statement    TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL,
	PRIMARY KEY (store_id, id)
);

CREATE TABLE IF NOT EXISTS identity_sources (
	store_id             TEXT NOT NULL REFERENCES policy_stores(id) ON DELETE CASCADE,
	id                   TEXT NOT NULL,
	kind                 TEXT NOT NULL,
	issuer_url           TEXT NOT NULL,
	accepted_client_ids  TEXT NOT NULL DEFAULT '[]',
	jwks_uri             TEXT NOT NULL DEFAULT '',
	group_claim_path     TEXT NOT NULL DEFAULT '',
	principal_entity_type TEXT NOT NULL DEFAULT 'User',
	claims_mapping       TEXT,
	description          TEXT NOT NULL DEFAULT '',
	created_at           DATETIME NOT NULL,
	updated_at           DATETIME NOT NULL,
	PRIMARY KEY (store_id, id)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id            TEXT PRIMARY KEY,
	store_id      TEXT NOT NULL REFERENCES policy_stores(id) ON DELETE CASCADE,
	description   TEXT NOT NULL DEFAULT '',
	policies_json TEXT NOT NULL,
	schema_json   TEXT,
	has_schema    INTEGER NOT NULL DEFAULT 0,
	policy_count  INTEGER NOT NULL DEFAULT 0,
	size_bytes    INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
	event_id      TEXT PRIMARY KEY,
	aggregate_id  TEXT NOT NULL,
	type          TEXT NOT NULL,
	occurred_at   DATETIME NOT NULL,
	version       INTEGER NOT NULL,
	actor         TEXT NOT NULL DEFAULT '',
	access_kind   TEXT NOT NULL DEFAULT '',
	detail_json   TEXT NOT NULL DEFAULT '{}',
	UNIQUE (aggregate_id, version)
);

CREATE INDEX IF NOT EXISTS idx_policies_store ON policies(store_id);
CREATE INDEX IF NOT EXISTS idx_templates_store ON policy_templates(store_id);
CREATE INDEX IF NOT EXISTS idx_identity_sources_store ON identity_sources(store_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_store ON snapshots(store_id);
CREATE INDEX IF NOT EXISTS idx_audit_events_aggregate ON audit_events(aggregate_id);
CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(type, occurred_at);
`

// schemaPostgres is the PostgreSQL DDL, identical in shape to schemaSQLite
// but using TIMESTAMPTZ/BOOLEAN/BIGINT and executed statement-by-statement
// (see execStatementsInTx).
const schemaPostgres = `
CREATE TABLE IF NOT EXISTS policy_stores (
	id                          TEXT PRIMARY KEY,
	name                        TEXT NOT NULL,
	description                 TEXT NOT NULL DEFAULT '',
	status                      TEXT NOT NULL,
	version                     TEXT NOT NULL,
	author                      TEXT NOT NULL DEFAULT '',
	tags                        TEXT NOT NULL DEFAULT '[]',
	identity_sources            TEXT NOT NULL DEFAULT '[]',
	default_identity_source_id  TEXT,
	created_at                  TIMESTAMPTZ NOT NULL,
	updated_at                  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS schemas (
	store_id    TEXT PRIMARY KEY REFERENCES policy_stores(id) ON DELETE CASCADE,
	raw_json    TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS policies (
	store_id          TEXT NOT NULL REFERENCES policy_stores(id) ON DELETE CASCADE,
	id                TEXT NOT NULL,
	statement         TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	template_id       TEXT,
	template_principal_type  TEXT,
	template_principal_id    TEXT,
	template_resource_type   TEXT,
	template_resource_id     TEXT,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (store_id, id)
);

CREATE TABLE IF NOT EXISTS policy_templates (
	store_id     TEXT NOT NULL REFERENCES policy_stores(id) ON DELETE CASCADE,
	id           TEXT NOT NULL,
	statement    TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (store_id, id)
);

CREATE TABLE IF NOT EXISTS identity_sources (
	store_id             TEXT NOT NULL REFERENCES policy_stores(id) ON DELETE CASCADE,
	id                   TEXT NOT NULL,
	kind                 TEXT NOT NULL,
	issuer_url           TEXT NOT NULL,
	accepted_client_ids  TEXT NOT NULL DEFAULT '[]',
	jwks_uri             TEXT NOT NULL DEFAULT '',
	group_claim_path     TEXT NOT NULL DEFAULT '',
	principal_entity_type TEXT NOT NULL DEFAULT 'User',
	claims_mapping       TEXT,
	description          TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (store_id, id)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id            TEXT PRIMARY KEY,
	store_id      TEXT NOT NULL REFERENCES policy_stores(id) ON DELETE CASCADE,
	description   TEXT NOT NULL DEFAULT '',
	policies_json TEXT NOT NULL,
	schema_json   TEXT,
	has_schema    BOOLEAN NOT NULL DEFAULT FALSE,
	policy_count  INTEGER NOT NULL DEFAULT 0,
	size_bytes    BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
	event_id      TEXT PRIMARY KEY,
	aggregate_id  TEXT NOT NULL,
	type          TEXT NOT NULL,
	occurred_at   TIMESTAMPTZ NOT NULL,
	version       INTEGER NOT NULL,
	actor         TEXT NOT NULL DEFAULT '',
	access_kind   TEXT NOT NULL DEFAULT '',
	detail_json   TEXT NOT NULL DEFAULT '{}',
	UNIQUE (aggregate_id, version)
);

CREATE INDEX IF NOT EXISTS idx_policies_store ON policies(store_id);
CREATE INDEX IF NOT EXISTS idx_templates_store ON policy_templates(store_id);
CREATE INDEX IF NOT EXISTS idx_identity_sources_store ON identity_sources(store_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_store ON snapshots(store_id);
CREATE INDEX IF NOT EXISTS idx_audit_events_aggregate ON audit_events(aggregate_id);
CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(type, occurred_at);
`
