// Package materialize implements add_data_points (C5): atomic batch
// materialization of a heterogeneous DataPoint closure, plus its derived
// edges, into both the graph store and the vector store.
package materialize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/topoteretes/cognee-go/engine/datapoint"
	"github.com/topoteretes/cognee-go/engine/embed"
	"github.com/topoteretes/cognee-go/engine/graph"
	"github.com/topoteretes/cognee-go/engine/semantic"
	"github.com/topoteretes/cognee-go/pkg/fn"
	"github.com/topoteretes/cognee-go/pkg/metrics"
)

// BatchSizes bounds how many items cross into each backend per round-trip.
type BatchSizes struct {
	Nodes   int
	Edges   int
	Vectors int
}

// DefaultBatchSizes mirrors the reference implementation's chunking defaults.
func DefaultBatchSizes() BatchSizes {
	return BatchSizes{Nodes: 500, Edges: 1000, Vectors: 100}
}

// Materializer runs add_data_points against one (graph, vector) backend pair.
type Materializer struct {
	Graph    graph.Store
	Vector   semantic.Store
	Embedder embed.Engine
	NodeSets *graph.NodeSetRepo
	Batches  BatchSizes
	Retry    fn.RetryOpts
	// Metrics is optional; when set, upsertVectors reports one counter
	// increment per embedded vector, labeled by collection, so an operator
	// can see embedding volume per DataPoint subclass/field on /metrics.
	Metrics *metrics.Registry
}

func (m *Materializer) recordEmbedded(collection string) {
	if m.Metrics == nil {
		return
	}
	name := metrics.WithLabels("cognee_materialize_vectors_embedded_total", "collection", collection)
	m.Metrics.Counter(name, "Vectors embedded and upserted, by collection").Inc()
}

// New creates a Materializer with default batch sizes and retry policy.
func New(g graph.Store, v semantic.Store, embedder embed.Engine) *Materializer {
	return &Materializer{
		Graph:    g,
		Vector:   v,
		Embedder: embedder,
		Batches:  DefaultBatchSizes(),
		Retry:    fn.DefaultRetry,
	}
}

// existence classifies one incoming DataPoint against the graph's current
// state for it, if any.
type existence int

const (
	existenceNew existence = iota
	existenceChanged
	existenceUnchanged
)

// AddDataPoints walks the closure of roots (every DataPoint reachable
// through nested-DataPoint fields), partitions it into graph nodes and
// derived edges, classifies each node new/changed/unchanged against the
// current graph state, and fans out bounded, retried batches to both
// stores. Re-running with identical input is a no-op (idempotent on id).
//
// extraEdges carries relations discovered between sibling DataPoints that
// the field walk cannot see on its own — e.g. extract_graph_from_data's
// entity-to-entity relationships, which are siblings rather than nested
// fields of one another.
func (m *Materializer) AddDataPoints(ctx context.Context, roots []datapoint.DataPoint, extraEdges ...graph.Edge) error {
	nodes, edges := closure(roots)
	edges = append(edges, extraEdges...)
	if len(nodes) == 0 {
		return nil
	}

	ids := make([]string, len(nodes))
	for i, dp := range nodes {
		ids[i] = dp.Meta().ID
	}
	existing, err := m.Graph.GetNodes(ctx, ids)
	if err != nil {
		return fmt.Errorf("materialize: existence check: %w", err)
	}
	existingByID := make(map[string]graph.Node, len(existing))
	for _, n := range existing {
		existingByID[n.ID] = n
	}

	changedIDs := make(map[string]bool)
	for _, dp := range nodes {
		switch classify(dp, existingByID) {
		case existenceNew, existenceChanged:
			changedIDs[dp.Meta().ID] = true
		}
	}

	if err := m.upsertNodes(ctx, nodes); err != nil {
		return err
	}
	if err := m.upsertEdges(ctx, edges); err != nil {
		return err
	}
	if err := m.ensureNodeSets(ctx, nodes); err != nil {
		return err
	}
	if m.Embedder != nil && m.Vector != nil {
		if err := m.upsertVectors(ctx, nodes, changedIDs); err != nil {
			return err
		}
	}
	return nil
}

func classify(dp datapoint.DataPoint, existingByID map[string]graph.Node) existence {
	prior, ok := existingByID[dp.Meta().ID]
	if !ok {
		return existenceNew
	}
	if dp.Meta().Version > prior.Version {
		return existenceChanged
	}
	if dp.Meta().Version == prior.Version && dp.Meta().UpdatedAt > prior.UpdatedAt {
		return existenceChanged
	}
	return existenceUnchanged
}

func (m *Materializer) upsertNodes(ctx context.Context, nodes []datapoint.DataPoint) error {
	graphNodes := make([]graph.Node, len(nodes))
	for i, dp := range nodes {
		graphNodes[i] = toGraphNode(dp)
	}
	return batched(ctx, graphNodes, m.batchSize(m.Batches.Nodes), m.Retry, func(ctx context.Context, chunk []graph.Node) error {
		return m.Graph.AddNodes(ctx, chunk)
	})
}

func (m *Materializer) upsertEdges(ctx context.Context, edges []graph.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	return batched(ctx, edges, m.batchSize(m.Batches.Edges), m.Retry, func(ctx context.Context, chunk []graph.Edge) error {
		return m.Graph.AddEdges(ctx, chunk)
	})
}

// ensureNodeSets materializes the belongs_to_set weak reference as a real
// NodeSet node plus a belongs_to_set edge, so retrieval's NodeSet filter and
// deletion-by-set both see it.
func (m *Materializer) ensureNodeSets(ctx context.Context, nodes []datapoint.DataPoint) error {
	if m.NodeSets == nil {
		return nil
	}
	seen := map[string]bool{}
	var setEdges []graph.Edge
	for _, dp := range nodes {
		set := dp.Meta().BelongsToSet
		if set == nil || *set == "" {
			continue
		}
		if !seen[*set] {
			seen[*set] = true
			if _, err := graph.EnsureNodeSet(ctx, m.NodeSets, *set, *set); err != nil {
				return fmt.Errorf("materialize: ensure node_set %s: %w", *set, err)
			}
		}
		setEdges = append(setEdges, graph.Edge{Source: dp.Meta().ID, Target: *set, Relation: "belongs_to_set"})
	}
	return m.upsertEdges(ctx, setEdges)
}

// vectorJob is one (node, index field) pair awaiting an embedding call.
type vectorJob struct {
	dp         datapoint.DataPoint
	collection string
	field      string
	text       string
}

// placedItem pairs an embedded vector with the collection it belongs in,
// so embedded items (which forget their source job once the BatchStage
// pipeline finishes) can be re-grouped by destination collection.
type placedItem struct {
	collection string
	item       semantic.Item
}

// upsertVectors embeds and upserts one vector per (node_id, field_name) for
// every changed/new node whose subclass declares index_fields, skipping
// unchanged nodes to avoid redundant embedding calls.
//
// Embedding is the expensive step (one HTTP round trip per field), so jobs
// run through a bounded-concurrency BatchStage instead of a sequential
// loop — m.Embedder's own rate limiter still throttles the actual request
// rate, BatchStage just lets independent calls overlap their latency.
func (m *Materializer) upsertVectors(ctx context.Context, nodes []datapoint.DataPoint, changedIDs map[string]bool) error {
	var jobs []vectorJob
	for _, dp := range nodes {
		if !changedIDs[dp.Meta().ID] {
			continue
		}
		fields := datapoint.IndexFieldsFor(dp)
		if len(fields) == 0 {
			continue
		}
		walked := datapoint.Walk(dp)
		subclass := dp.Meta().TypeName

		for _, field := range fields {
			val, ok := walked.Properties[field]
			if !ok {
				continue
			}
			text, ok := val.(string)
			if !ok || text == "" {
				continue
			}
			jobs = append(jobs, vectorJob{dp: dp, collection: subclass + "_" + field, field: field, text: text})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	embedJob := fn.Stage[vectorJob, semantic.Item](func(ctx context.Context, j vectorJob) fn.Result[semantic.Item] {
		vec, err := m.Embedder.EmbedText(ctx, j.text)
		if err != nil {
			return fn.Errf[semantic.Item]("embed %s.%s for %s: %w", j.dp.Meta().TypeName, j.field, j.dp.Meta().ID, err)
		}
		return fn.Ok(semantic.Item{
			ID:      datapoint.NewDeterministicID(j.dp.Meta().ID + ":" + j.field),
			Vector:  vec,
			Payload: map[string]any{"node_id": j.dp.Meta().ID, "field": j.field, "text": j.text},
		})
	})
	logged := fn.TapStage(func(_ context.Context, item semantic.Item) {
		slog.Debug("materialize: embedded vector", "id", item.ID)
	})
	batch := fn.BatchStage(m.embedWorkers(), fn.Then(embedJob, logged))

	outcome := batch(ctx, jobs)
	if outcome.IsErr() {
		_, err := outcome.Unwrap()
		return fmt.Errorf("materialize: %w", err)
	}
	items, _ := outcome.Unwrap()

	placed := make([]placedItem, len(items))
	for i, item := range items {
		placed[i] = placedItem{collection: jobs[i].collection, item: item}
	}
	grouped := fn.GroupBy(placed, func(p placedItem) string { return p.collection })
	byCollection := make(map[string][]semantic.Item, len(grouped))
	for collection, ps := range grouped {
		byCollection[collection] = fn.Map(ps, func(p placedItem) semantic.Item { return p.item })
	}

	for collection, items := range byCollection {
		if err := m.Vector.CreateCollection(ctx, collection, m.Embedder.Dimensions(), semantic.DistanceCosine); err != nil {
			return fmt.Errorf("materialize: create collection %s: %w", collection, err)
		}
		err := batched(ctx, items, m.batchSize(m.Batches.Vectors), m.Retry, func(ctx context.Context, chunk []semantic.Item) error {
			return m.Vector.Upsert(ctx, collection, chunk)
		})
		if err != nil {
			return err
		}
		for range items {
			m.recordEmbedded(collection)
		}
	}
	return nil
}

func (m *Materializer) batchSize(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// embedWorkers bounds BatchStage's concurrency for embedding calls — high
// enough to overlap round-trip latency, low enough that the rate limiter
// on m.Embedder (not this bound) is what actually paces requests.
func (m *Materializer) embedWorkers() int {
	const maxEmbedWorkers = 8
	if m.Batches.Vectors <= 0 || m.Batches.Vectors > maxEmbedWorkers {
		return maxEmbedWorkers
	}
	return m.Batches.Vectors
}

func toGraphNode(dp datapoint.DataPoint) graph.Node {
	base := dp.Meta()
	walked := datapoint.Walk(dp)
	props := make(map[string]any, len(walked.Properties))
	for k, v := range walked.Properties {
		props[k] = v
	}
	return graph.Node{
		ID:         base.ID,
		Label:      base.TypeName,
		Version:    base.Version,
		UpdatedAt:  base.UpdatedAt,
		Properties: props,
	}
}

// closure performs a dedup'd traversal over roots and every DataPoint
// reachable through nested-DataPoint fields, returning the flattened node
// set plus one graph.Edge per traversed field.
func closure(roots []datapoint.DataPoint) ([]datapoint.DataPoint, []graph.Edge) {
	visited := map[string]bool{}
	var nodes []datapoint.DataPoint
	var edges []graph.Edge

	var walk func(dp datapoint.DataPoint)
	walk = func(dp datapoint.DataPoint) {
		if dp == nil {
			return
		}
		id := dp.Meta().ID
		if visited[id] {
			return
		}
		visited[id] = true
		nodes = append(nodes, dp)

		for _, e := range datapoint.Walk(dp).Edges {
			if e.Child == nil {
				continue
			}
			edges = append(edges, graph.Edge{
				Source:   id,
				Target:   e.Child.Meta().ID,
				Relation: e.FieldName,
			})
			walk(e.Child)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return nodes, edges
}

func batched[T any](ctx context.Context, items []T, size int, retryOpts fn.RetryOpts, f func(context.Context, []T) error) error {
	for _, chunk := range fn.Chunk(items, size) {
		result := fn.Retry(ctx, retryOpts, func(ctx context.Context) fn.Result[struct{}] {
			if err := f(ctx, chunk); err != nil {
				return fn.Err[struct{}](err)
			}
			return fn.Ok(struct{}{})
		})
		if result.IsErr() {
			_, err := result.Unwrap()
			return err
		}
	}
	return nil
}
