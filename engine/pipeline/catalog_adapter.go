package pipeline

import (
	"context"
	"time"

	"github.com/topoteretes/cognee-go/engine/catalog"
	"github.com/google/uuid"
)

// CatalogRunLogger adapts engine/catalog.Catalog to RunLogger.
type CatalogRunLogger struct {
	Catalog   *catalog.Catalog
	DatasetID string
}

var _ RunLogger = (*CatalogRunLogger)(nil)

func (l *CatalogRunLogger) RecordRunStarted(ctx context.Context, runID, pipelineName, datasetID string) error {
	return l.Catalog.RecordRunStarted(ctx, catalog.PipelineRun{
		RunID:        runID,
		PipelineID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(pipelineName)).String(),
		PipelineName: pipelineName,
		DatasetID:    datasetID,
		StartedAt:    time.Now(),
	})
}

func (l *CatalogRunLogger) RecordRunCompleted(ctx context.Context, runID string) error {
	return l.Catalog.RecordRunCompleted(ctx, runID, time.Now())
}

func (l *CatalogRunLogger) RecordRunErrored(ctx context.Context, runID string, errMsg string) error {
	return l.Catalog.RecordRunErrored(ctx, runID, time.Now(), errMsg)
}
