package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Catalog wraps the PostgreSQL connection pool backing C9.
type Catalog struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// New connects to PostgreSQL at dsn and applies the schema.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: connect: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	c := &Catalog{db: db, logger: logger.With("component", "catalog")}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// CreateUser inserts a new user.
func (c *Catalog) CreateUser(ctx context.Context, u User) error {
	_, err := c.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, created_at) VALUES (:id, :email, :created_at)
		ON CONFLICT (id) DO NOTHING`, u)
	if err != nil {
		return fmt.Errorf("catalog: create user: %w", err)
	}
	return nil
}

// CreateDataset registers a dataset for an owner.
func (c *Catalog) CreateDataset(ctx context.Context, d Dataset) error {
	_, err := c.db.NamedExecContext(ctx, `
		INSERT INTO datasets (dataset_id, owner_id, name, created_at)
		VALUES (:dataset_id, :owner_id, :name, :created_at)
		ON CONFLICT (dataset_id) DO NOTHING`, d)
	if err != nil {
		return fmt.Errorf("catalog: create dataset: %w", err)
	}
	return nil
}

// GetDataset fetches a dataset by id.
func (c *Catalog) GetDataset(ctx context.Context, datasetID string) (Dataset, error) {
	var d Dataset
	err := c.db.GetContext(ctx, &d, `SELECT * FROM datasets WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return Dataset{}, fmt.Errorf("catalog: get dataset %s: %w", datasetID, err)
	}
	return d, nil
}

// UpsertDatasetDatabase records (or updates) which backends a dataset is
// provisioned on — the persisted counterpart of engine/router's resolution.
func (c *Catalog) UpsertDatasetDatabase(ctx context.Context, dd DatasetDatabase) error {
	_, err := c.db.NamedExecContext(ctx, `
		INSERT INTO dataset_database (dataset_id, vector_db_name, graph_db_name, vector_provider, graph_provider, connection_info, last_accessed_at)
		VALUES (:dataset_id, :vector_db_name, :graph_db_name, :vector_provider, :graph_provider, :connection_info, :last_accessed_at)
		ON CONFLICT (dataset_id) DO UPDATE SET
			vector_db_name = EXCLUDED.vector_db_name,
			graph_db_name = EXCLUDED.graph_db_name,
			vector_provider = EXCLUDED.vector_provider,
			graph_provider = EXCLUDED.graph_provider,
			connection_info = EXCLUDED.connection_info,
			last_accessed_at = EXCLUDED.last_accessed_at`, dd)
	if err != nil {
		return fmt.Errorf("catalog: upsert dataset_database %s: %w", dd.DatasetID, err)
	}
	return nil
}

// GetDatasetDatabase fetches a dataset's backend bindings.
func (c *Catalog) GetDatasetDatabase(ctx context.Context, datasetID string) (DatasetDatabase, error) {
	var dd DatasetDatabase
	err := c.db.GetContext(ctx, &dd, `SELECT * FROM dataset_database WHERE dataset_id = $1`, datasetID)
	if err != nil {
		return DatasetDatabase{}, fmt.Errorf("catalog: get dataset_database %s: %w", datasetID, err)
	}
	return dd, nil
}

// TouchDatasetAccess bumps last_accessed_at and appends a data_access_tracking
// row in one transaction, satisfying both migration heads at once.
func (c *Catalog) TouchDatasetAccess(ctx context.Context, datasetID, principalID, operation string) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: touch access: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE dataset_database SET last_accessed_at = now() WHERE dataset_id = $1`, datasetID,
	); err != nil {
		return fmt.Errorf("catalog: touch access: update: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO data_access_tracking (dataset_id, principal_id, operation) VALUES ($1, $2, $3)`,
		datasetID, principalID, operation,
	); err != nil {
		return fmt.Errorf("catalog: touch access: insert: %w", err)
	}
	return tx.Commit()
}

// RecordRunStarted logs a pipeline run's start. Invariant §3.6: exactly one
// of RecordRunCompleted/RecordRunErrored must follow.
func (c *Catalog) RecordRunStarted(ctx context.Context, run PipelineRun) error {
	run.Status = RunStarted
	_, err := c.db.NamedExecContext(ctx, `
		INSERT INTO pipeline_runs (run_id, pipeline_id, pipeline_name, dataset_id, started_at, status)
		VALUES (:run_id, :pipeline_id, :pipeline_name, :dataset_id, :started_at, :status)`, run)
	if err != nil {
		return fmt.Errorf("catalog: record run started %s: %w", run.RunID, err)
	}
	return nil
}

// RecordRunCompleted marks a run successful.
func (c *Catalog) RecordRunCompleted(ctx context.Context, runID string, completedAt time.Time) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = $1, completed_at = $2 WHERE run_id = $3`,
		RunCompleted, completedAt, runID)
	if err != nil {
		return fmt.Errorf("catalog: record run completed %s: %w", runID, err)
	}
	return nil
}

// RecordRunErrored marks a run failed, storing a truncated error message.
func (c *Catalog) RecordRunErrored(ctx context.Context, runID string, completedAt time.Time, errMsg string) error {
	msg := truncateError(errMsg, 4096)
	_, err := c.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = $1, completed_at = $2, error = $3 WHERE run_id = $4`,
		RunErrored, completedAt, msg, runID)
	if err != nil {
		return fmt.Errorf("catalog: record run errored %s: %w", runID, err)
	}
	return nil
}

// GetRun fetches a pipeline run by id.
func (c *Catalog) GetRun(ctx context.Context, runID string) (PipelineRun, error) {
	var run PipelineRun
	err := c.db.GetContext(ctx, &run, `SELECT * FROM pipeline_runs WHERE run_id = $1`, runID)
	if err != nil {
		if err == sql.ErrNoRows {
			return PipelineRun{}, fmt.Errorf("catalog: run %s: %w", runID, ErrNotFound)
		}
		return PipelineRun{}, fmt.Errorf("catalog: get run %s: %w", runID, err)
	}
	return run, nil
}

// ListDanglingRuns returns runs still in "started" status — invariant §3.6
// classifies these as recoverable failures, never silently forgotten.
func (c *Catalog) ListDanglingRuns(ctx context.Context, datasetID string) ([]PipelineRun, error) {
	var runs []PipelineRun
	err := c.db.SelectContext(ctx, &runs,
		`SELECT * FROM pipeline_runs WHERE dataset_id = $1 AND status = $2 ORDER BY started_at`,
		datasetID, RunStarted)
	if err != nil {
		return nil, fmt.Errorf("catalog: list dangling runs %s: %w", datasetID, err)
	}
	return runs, nil
}

// truncateError bounds an error message to n bytes so a pathological stack
// trace can't blow out the column.
func truncateError(msg string, n int) string {
	if len(msg) <= n {
		return msg
	}
	return msg[:n]
}

// ErrNotFound is returned when a catalog lookup finds no row.
var ErrNotFound = fmt.Errorf("catalog: not found")
