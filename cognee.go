// Package cognee is the outbound facade (§6 "Exposed"): Add, Cognify,
// Search, Prune, and ListTools, wiring the C1-C9 engine packages behind
// the five operations collaborators (CLI, HTTP/MCP server) actually call.
package cognee

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/topoteretes/cognee-go/engine/catalog"
	"github.com/topoteretes/cognee-go/engine/cognify"
	"github.com/topoteretes/cognee-go/engine/domain"
	"github.com/topoteretes/cognee-go/engine/embed"
	"github.com/topoteretes/cognee-go/engine/llm"
	"github.com/topoteretes/cognee-go/engine/materialize"
	"github.com/topoteretes/cognee-go/engine/pipeline"
	"github.com/topoteretes/cognee-go/engine/retrieval"
	"github.com/topoteretes/cognee-go/engine/router"
	"github.com/topoteretes/cognee-go/pkg/fn"
	"github.com/topoteretes/cognee-go/pkg/metrics"
	"github.com/topoteretes/cognee-go/pkg/natsutil"
)

// pendingDoc is a document Add has registered but Cognify has not yet
// processed — the Go analogue of the rows a document-queue table would
// hold; kept in memory since spec.md's persisted-state layout names no
// such table (§6).
type pendingDoc struct {
	ID   string
	Text string
}

// Engine wires one deployment's collaborators: the relational catalog
// (C9), the store router (C4), and the embedder/LLM gateway pair C7 and
// C8 both depend on. NATS is optional — when set, Add publishes a
// cognify.Trigger for an out-of-process worker (cmd/ingest) instead of
// Cognify running the pipeline inline.
type Engine struct {
	Catalog  *catalog.Catalog
	Router   *router.Router
	Embedder embed.Engine
	LLM      llm.Gateway
	NATS     *nats.Conn
	Retry    fn.RetryOpts
	Logger   *slog.Logger
	// Metrics is optional; when set it is threaded into every Materializer
	// Cognify constructs, so embedding volume is observable on whatever
	// /metrics endpoint the caller wired Metrics to.
	Metrics *metrics.Registry

	mu      sync.Mutex
	pending map[string][]pendingDoc
}

// New constructs an Engine. A Retry with MaxAttempts 0 falls back to
// fn.DefaultRetry, a nil Logger to slog.Default.
func New(cat *catalog.Catalog, rtr *router.Router, embedder embed.Engine, gateway llm.Gateway, nc *nats.Conn, retry fn.RetryOpts, logger *slog.Logger) *Engine {
	if retry.MaxAttempts == 0 {
		retry = fn.DefaultRetry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Catalog:  cat,
		Router:   rtr,
		Embedder: embedder,
		LLM:      gateway,
		NATS:     nc,
		Retry:    retry,
		Logger:   logger,
		pending:  make(map[string][]pendingDoc),
	}
}

// Add registers text for ingestion into a dataset, creating the owner and
// dataset catalog rows on first use, and returns the dataset id. If the
// Engine has a NATS connection, a cognify trigger is published so an
// out-of-process worker (cmd/ingest) can run the pipeline asynchronously;
// otherwise the document is queued in memory for the next Cognify call.
func (e *Engine) Add(ctx context.Context, req domain.IngestRequest) (string, error) {
	if err := domain.ValidateIngestRequest(req); err != nil {
		return "", err
	}

	if err := e.Catalog.CreateUser(ctx, catalog.User{ID: req.Dataset.OwnerID}); err != nil {
		return "", fmt.Errorf("cognee: add: %w", err)
	}
	if err := e.Catalog.CreateDataset(ctx, catalog.Dataset{
		DatasetID: req.Dataset.DatasetID,
		OwnerID:   req.Dataset.OwnerID,
		Name:      req.Dataset.DatasetID,
	}); err != nil {
		return "", fmt.Errorf("cognee: add: %w", err)
	}

	if _, err := e.Router.Resolve(ctx, req.Dataset.OwnerID, req.Dataset.DatasetID); err != nil {
		return "", fmt.Errorf("cognee: add: provision dataset: %w", err)
	}

	docID := uuid.New().String()

	if e.NATS != nil {
		trig := cognify.Trigger{
			OwnerID:   req.Dataset.OwnerID,
			DatasetID: req.Dataset.DatasetID,
			DocID:     docID,
			Path:      req.Source,
		}
		if err := natsutil.Publish(ctx, e.NATS, cognify.TriggerSubject, trig); err != nil {
			return "", fmt.Errorf("cognee: add: publish trigger: %w", err)
		}
		return req.Dataset.DatasetID, nil
	}

	e.mu.Lock()
	e.pending[req.Dataset.DatasetID] = append(e.pending[req.Dataset.DatasetID], pendingDoc{ID: docID, Text: req.Text})
	e.mu.Unlock()

	return req.Dataset.DatasetID, nil
}

// Cognify runs the cognify_pipeline (C7) over every document Add has
// queued for the given datasets, recording one pipeline_runs row per
// document (§8 invariant 3: exactly one completed or errored record per
// run). Only meaningful when the Engine has no NATS connection — an
// async deployment's worker drains triggers itself. strategy selects the
// chunker: StrategyCode is what the "codify" tool asks for, StrategyNaive
// what "cognify" asks for.
func (e *Engine) Cognify(ctx context.Context, ownerID string, datasetIDs []string, strategy cognify.ChunkStrategy) error {
	for _, datasetID := range datasetIDs {
		e.mu.Lock()
		docs := e.pending[datasetID]
		delete(e.pending, datasetID)
		e.mu.Unlock()

		handle, err := e.Router.Resolve(ctx, ownerID, datasetID)
		if err != nil {
			return fmt.Errorf("cognee: cognify: resolve dataset %s: %w", datasetID, err)
		}
		m := materialize.New(handle.Graph, handle.Vector, e.Embedder)
		m.Metrics = e.Metrics
		cfg := cognify.Config{
			Embedder:     e.Embedder,
			LLM:          e.LLM,
			Materializer: m,
			Retry:        e.Retry,
			Logger:       e.Logger,
			DatasetID:    datasetID,
			RunLogger:    &pipeline.CatalogRunLogger{Catalog: e.Catalog, DatasetID: datasetID},
		}
		p := cognify.DefaultPipeline(cfg)

		for _, doc := range docs {
			if _, err := p.Run(ctx, cognify.Document{ID: doc.ID, Text: doc.Text, Strategy: strategy}); err != nil {
				return fmt.Errorf("cognee: cognify: dataset %s doc %s: %w", datasetID, doc.ID, err)
			}
		}
	}
	return nil
}

// Search runs query against one dataset and returns its ranked result
// (§6 search returns a single result per call; a caller wanting several
// datasets merged issues one Search per dataset and combines them).
func (e *Engine) Search(ctx context.Context, req domain.SearchRequest, searchType retrieval.SearchType, opts retrieval.Options) (retrieval.Result, error) {
	if err := domain.ValidateSearchRequest(req); err != nil {
		return retrieval.Result{}, err
	}

	handle, err := e.Router.Resolve(ctx, req.Dataset.OwnerID, req.Dataset.DatasetID)
	if err != nil {
		return retrieval.Result{}, fmt.Errorf("cognee: search: resolve dataset %s: %w", req.Dataset.DatasetID, err)
	}

	svc := retrieval.New(e.Embedder, handle.Vector, handle.Graph, e.LLM, opts, e.Retry, e.Logger)
	result, err := svc.Search(ctx, req.Query, searchType)
	if err != nil {
		return result, err
	}

	if err := e.Catalog.TouchDatasetAccess(ctx, req.Dataset.DatasetID, req.Dataset.OwnerID, "search"); err != nil {
		e.Logger.Warn("cognee: touch dataset access failed", "error", err)
	}
	return result, nil
}

// Prune destroys a dataset's provisioned backends: every vector
// collection search can draw from, and every graph node, then
// invalidates the router's cached handle so the next Add reprovisions a
// clean dataset.
func (e *Engine) Prune(ctx context.Context, ref domain.DatasetRef) error {
	if err := domain.ValidateDatasetRef(ref); err != nil {
		return err
	}

	handle, err := e.Router.Resolve(ctx, ref.OwnerID, ref.DatasetID)
	if err != nil {
		return fmt.Errorf("cognee: prune: resolve dataset %s: %w", ref.DatasetID, err)
	}

	if _, err := handle.Graph.Query(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return fmt.Errorf("cognee: prune: clear graph: %w", err)
	}
	for _, collection := range retrieval.AllCollections() {
		if err := handle.Vector.Prune(ctx, collection); err != nil {
			e.Logger.Warn("cognee: prune: drop collection failed", "collection", collection, "error", err)
		}
	}

	e.Router.Invalidate(ref.OwnerID, ref.DatasetID)

	e.mu.Lock()
	delete(e.pending, ref.DatasetID)
	e.mu.Unlock()

	return nil
}

// Tool describes one MCP-callable operation's name, description, and
// JSON Schema parameters — the shape mcp/listTools returns (§6).
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ListTools returns the closed set of tools the MCP surface exposes:
// cognify, search, codify, prune (§6).
func ListTools() []Tool {
	return []Tool{
		{
			Name:        "cognify",
			Description: "Run the extraction pipeline over a dataset's queued documents.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"datasets": map[string]any{"type": "array", "items": map[string]any{"type": "string"}}},
				"required":   []string{"datasets"},
			},
		},
		{
			Name:        "search",
			Description: "Query a dataset's knowledge graph and vector memory.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":      map[string]any{"type": "string"},
					"query_type": map[string]any{"type": "string", "enum": []string{"GRAPH_COMPLETION", "INSIGHTS", "CODE", "TRIPLET_COMPLETION", "NATURAL_LANGUAGE"}},
					"datasets":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "codify",
			Description: "Cognify a dataset using the code-aware chunking strategy.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"datasets": map[string]any{"type": "array", "items": map[string]any{"type": "string"}}},
				"required":   []string{"datasets"},
			},
		},
		{
			Name:        "prune",
			Description: "Delete a dataset's graph and vector state.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"dataset": map[string]any{"type": "string"}},
				"required":   []string{"dataset"},
			},
		},
	}
}

