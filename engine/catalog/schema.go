package catalog

// schema carries the union of both same-revision migration heads found in
// the source history (add_data_access_tracking_table and
// add_last_accessed_timestamps): the data_access_tracking table from one,
// the last_accessed_at columns from the other. See the dual-head note in
// the design notes for why both are kept rather than picking one.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS datasets (
	dataset_id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_datasets_owner ON datasets(owner_id);

CREATE TABLE IF NOT EXISTS dataset_database (
	dataset_id TEXT PRIMARY KEY REFERENCES datasets(dataset_id),
	vector_db_name TEXT NOT NULL,
	graph_db_name TEXT NOT NULL,
	vector_provider TEXT NOT NULL,
	graph_provider TEXT NOT NULL,
	connection_info JSONB NOT NULL DEFAULT '{}',
	last_accessed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	run_id TEXT PRIMARY KEY,
	pipeline_id TEXT NOT NULL,
	pipeline_name TEXT NOT NULL,
	dataset_id TEXT NOT NULL REFERENCES datasets(dataset_id),
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	status TEXT NOT NULL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS idx_pipeline_runs_dataset ON pipeline_runs(dataset_id);

CREATE TABLE IF NOT EXISTS data_access_tracking (
	id BIGSERIAL PRIMARY KEY,
	dataset_id TEXT NOT NULL REFERENCES datasets(dataset_id),
	principal_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	accessed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_data_access_dataset ON data_access_tracking(dataset_id);

CREATE TABLE IF NOT EXISTS principal_configuration (
	principal_id TEXT NOT NULL,
	dataset_id TEXT NOT NULL REFERENCES datasets(dataset_id),
	permissions JSONB NOT NULL DEFAULT '{}',
	PRIMARY KEY (principal_id, dataset_id)
);

CREATE TABLE IF NOT EXISTS nodes (
	id TEXT NOT NULL,
	dataset_id TEXT NOT NULL REFERENCES datasets(dataset_id),
	label TEXT NOT NULL,
	version INTEGER NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (id, dataset_id)
);

CREATE TABLE IF NOT EXISTS edges (
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	relation TEXT NOT NULL,
	dataset_id TEXT NOT NULL REFERENCES datasets(dataset_id),
	PRIMARY KEY (source_id, target_id, relation, dataset_id)
);
`
