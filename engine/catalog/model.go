// Package catalog is the C9 relational run/dataset catalog: users,
// datasets, dataset-to-backend bindings, pipeline run history, and access
// tracking, over PostgreSQL via pgx/sqlx.
package catalog

import "time"

// User is a principal that owns datasets.
type User struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// Dataset is a named collection of DataPoints owned by a user. Name
// uniqueness is not enforced across owners — only dataset_id is unique.
type Dataset struct {
	DatasetID string    `db:"dataset_id"`
	OwnerID   string    `db:"owner_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// DatasetDatabase binds a dataset to its provisioned graph/vector backends
// — the persisted form of what engine/router resolves and caches.
type DatasetDatabase struct {
	DatasetID      string    `db:"dataset_id"`
	VectorDBName   string    `db:"vector_db_name"`
	GraphDBName    string    `db:"graph_db_name"`
	VectorProvider string    `db:"vector_provider"`
	GraphProvider  string    `db:"graph_provider"`
	ConnectionInfo []byte    `db:"connection_info"` // opaque JSON
	LastAccessedAt time.Time `db:"last_accessed_at"`
}

// RunStatus is a PipelineRun's lifecycle state.
type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	RunErrored   RunStatus = "errored"
)

// PipelineRun is one execution of a named pipeline against a dataset.
// Invariant §3.6: every run terminates with exactly one completed or
// errored record; a dangling started record is a recoverable failure.
type PipelineRun struct {
	RunID        string     `db:"run_id"`
	PipelineID   string     `db:"pipeline_id"`
	PipelineName string     `db:"pipeline_name"`
	DatasetID    string     `db:"dataset_id"`
	StartedAt    time.Time  `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	Status       RunStatus  `db:"status"`
	Error        *string    `db:"error"`
}

// DataAccessRecord is one read or write against a dataset, for audit and
// the last_accessed_at bookkeeping both competing migration heads wanted.
type DataAccessRecord struct {
	ID          int64     `db:"id"`
	DatasetID   string    `db:"dataset_id"`
	PrincipalID string    `db:"principal_id"`
	Operation   string    `db:"operation"` // caller-supplied name, e.g. "search"
	AccessedAt  time.Time `db:"accessed_at"`
}

// PrincipalConfiguration is per-(principal, dataset) access policy, opaque
// beyond the catalog's own schema.
type PrincipalConfiguration struct {
	PrincipalID string `db:"principal_id"`
	DatasetID   string `db:"dataset_id"`
	Permissions []byte `db:"permissions"` // opaque JSON
}

// NodeIndexEntry mirrors a C3 node's identity for relational lookups
// (dataset isolation joins, cross-store consistency checks) without
// requiring a graph round-trip.
type NodeIndexEntry struct {
	ID        string `db:"id"`
	DatasetID string `db:"dataset_id"`
	Label     string `db:"label"`
	Version   int    `db:"version"`
	UpdatedAt int64  `db:"updated_at"`
}

// EdgeIndexEntry mirrors a C3 edge's identity.
type EdgeIndexEntry struct {
	SourceID  string `db:"source_id"`
	TargetID  string `db:"target_id"`
	Relation  string `db:"relation"`
	DatasetID string `db:"dataset_id"`
}
