package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Store is the C3 contract: a labeled property graph with idempotent batch
// upsert, adjacency queries, and subgraph extraction. engine/materialize,
// engine/retrieval and the cognee facade's Prune are its callers; no other
// package should depend on a concrete backend.
type Store interface {
	AddNodes(ctx context.Context, nodes []Node) error
	AddEdges(ctx context.Context, edges []Edge) error
	HasNode(ctx context.Context, id string) (bool, error)
	GetNode(ctx context.Context, id string) (Node, bool, error)
	GetNodes(ctx context.Context, ids []string) ([]Node, error)
	GetNeighbours(ctx context.Context, id string, dir Direction, relation string) ([]Node, error)
	GetSubgraph(ctx context.Context, filter Filter) (Subgraph, error)
	Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	DeleteNodes(ctx context.Context, ids []string) error
	NodeCounts(ctx context.Context) (map[string]int64, error)
	RelationshipCounts(ctx context.Context) (map[string]int64, error)
}

// Neo4jStore is the Neo4j-backed implementation of Store.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
}

// New creates a Neo4jStore.
func New(driver neo4j.DriverWithContext) *Neo4jStore {
	return &Neo4jStore{driver: driver}
}

var _ Store = (*Neo4jStore)(nil)

// AddNodes idempotently upserts nodes, one MERGE per node under that
// node's label. A node already present is only overwritten when the incoming
// version is newer, or equal with a later updated_at — invariant §3.1.
func (s *Neo4jStore) AddNodes(ctx context.Context, nodes []Node) error {
	if len(nodes) == 0 {
		return nil
	}
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, n := range nodes {
			props := flattenNodeProps(n)
			cypher := fmt.Sprintf(`
				MERGE (n:%s {id: $id})
				ON CREATE SET n = $props
				WITH n
				WHERE $version > n.version OR ($version = n.version AND $updated_at >= n.updated_at)
				SET n += $props`, sanitizeLabel(n.Label))
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"id":         n.ID,
				"props":      props,
				"version":    n.Version,
				"updated_at": n.UpdatedAt,
			}); err != nil {
				return nil, fmt.Errorf("graph: add node %s: %w", n.ID, err)
			}
		}
		return nil, nil
	})
	return err
}

// AddEdges idempotently upserts edges. At most one edge exists per
// (source, target, relation); re-insertion merges properties last-writer-wins
// — invariant §3.2.
func (s *Neo4jStore) AddEdges(ctx context.Context, edges []Edge) error {
	if len(edges) == 0 {
		return nil
	}
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, e := range edges {
			cypher := fmt.Sprintf(`
				MATCH (a {id: $source}), (b {id: $target})
				MERGE (a)-[r:%s]->(b)
				SET r += $props`, sanitizeRelType(e.Relation))
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"source": e.Source,
				"target": e.Target,
				"props":  e.Properties,
			}); err != nil {
				return nil, fmt.Errorf("graph: add edge %s-[%s]->%s: %w", e.Source, e.Relation, e.Target, err)
			}
		}
		return nil, nil
	})
	return err
}

// HasNode reports whether a node with the given id exists, regardless of label.
func (s *Neo4jStore) HasNode(ctx context.Context, id string) (bool, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (n {id: $id}) RETURN n.id AS id LIMIT 1`, map[string]any{"id": id})
	if err != nil {
		return false, fmt.Errorf("graph: has_node %s: %w", id, err)
	}
	return result.Next(ctx), nil
}

// GetNode returns a single node by id.
func (s *Neo4jStore) GetNode(ctx context.Context, id string) (Node, bool, error) {
	nodes, err := s.GetNodes(ctx, []string{id})
	if err != nil {
		return Node{}, false, err
	}
	if len(nodes) == 0 {
		return Node{}, false, nil
	}
	return nodes[0], true, nil
}

// GetNodes bulk-probes the graph for a set of ids; used by add_data_points's
// existence check to classify nodes as new/changed/unchanged.
func (s *Neo4jStore) GetNodes(ctx context.Context, ids []string) ([]Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (n) WHERE n.id IN $ids RETURN n, labels(n) AS labels`, map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("graph: get_nodes: %w", err)
	}
	return collectNodes(ctx, result)
}

// GetNeighbours returns nodes adjacent to id, optionally filtered by
// relation name and constrained to an edge direction.
func (s *Neo4jStore) GetNeighbours(ctx context.Context, id string, dir Direction, relation string) ([]Node, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	pattern := relPattern(dir, relation)
	cypher := fmt.Sprintf(`MATCH (start {id: $id})%s(n) WHERE n.id <> $id RETURN DISTINCT n, labels(n) AS labels`, pattern)
	result, err := sess.Run(ctx, cypher, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("graph: get_neighbours %s: %w", id, err)
	}
	return collectNodes(ctx, result)
}

// GetSubgraph loads a consistent snapshot of nodes (and the edges between
// them) matching filter: a seed-id K-hop neighbourhood, every node carrying
// one of the given labels, or every node whose Property equals Value.
func (s *Neo4jStore) GetSubgraph(ctx context.Context, filter Filter) (Subgraph, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	hops := filter.Hops
	if hops <= 0 {
		hops = 1
	}

	var cypher string
	params := map[string]any{}

	switch {
	case len(filter.NodeIDs) > 0:
		cypher = fmt.Sprintf(`
			MATCH (seed) WHERE seed.id IN $ids
			OPTIONAL MATCH p = (seed)-[*1..%d]-(n)
			WITH collect(DISTINCT seed) + collect(DISTINCT n) AS allNodes
			UNWIND allNodes AS node
			WITH DISTINCT node WHERE node IS NOT NULL
			RETURN node AS n, labels(node) AS labels`, hops)
		params["ids"] = filter.NodeIDs
	case len(filter.Labels) > 0:
		cypher = fmt.Sprintf(`MATCH (n) WHERE any(l IN labels(n) WHERE l IN $labels) RETURN n, labels(n) AS labels`)
		params["labels"] = filter.Labels
	case filter.Property != "":
		cypher = fmt.Sprintf(`MATCH (n) WHERE n[$prop] = $value RETURN n, labels(n) AS labels`)
		params["prop"] = filter.Property
		params["value"] = filter.Value
	default:
		return Subgraph{}, fmt.Errorf("graph: get_subgraph: filter must set NodeIDs, Labels, or Property")
	}

	result, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return Subgraph{}, fmt.Errorf("graph: get_subgraph: %w", err)
	}
	nodes, err := collectNodes(ctx, result)
	if err != nil {
		return Subgraph{}, err
	}
	if len(nodes) == 0 {
		return Subgraph{}, nil
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	edges, err := s.edgesAmong(ctx, sess, ids)
	if err != nil {
		return Subgraph{}, err
	}
	return Subgraph{Nodes: nodes, Edges: edges}, nil
}

func (s *Neo4jStore) edgesAmong(ctx context.Context, sess neo4j.SessionWithContext, ids []string) ([]Edge, error) {
	result, err := sess.Run(ctx, `
		MATCH (a)-[r]->(b) WHERE a.id IN $ids AND b.id IN $ids
		RETURN a.id AS source, b.id AS target, type(r) AS relation, properties(r) AS props`,
		map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("graph: edges_among: %w", err)
	}
	var edges []Edge
	for result.Next(ctx) {
		rec := result.Record()
		source, _ := rec.Get("source")
		target, _ := rec.Get("target")
		relation, _ := rec.Get("relation")
		props, _ := rec.Get("props")
		propMap, _ := props.(map[string]any)
		edges = append(edges, Edge{
			Source:     fmt.Sprint(source),
			Target:     fmt.Sprint(target),
			Relation:   fmt.Sprint(relation),
			Properties: propMap,
		})
	}
	return edges, nil
}

// Query is a pass-through for raw Cypher; core retrieval/materialize logic
// must never depend on it being available (§4.3). Records are normalized to
// maps keyed by column name regardless of whether the driver returned
// tuples or a dict-shaped row.
func (s *Neo4jStore) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("graph: query: %w", err)
	}
	var rows []map[string]any
	for result.Next(ctx) {
		rec := result.Record()
		row := make(map[string]any, len(rec.Keys))
		for _, k := range rec.Keys {
			v, _ := rec.Get(k)
			row[k] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DeleteNodes removes nodes and cascades to their incident edges.
func (s *Neo4jStore) DeleteNodes(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, `MATCH (n) WHERE n.id IN $ids DETACH DELETE n`, map[string]any{"ids": ids})
	if err != nil {
		return fmt.Errorf("graph: delete_nodes: %w", err)
	}
	return nil
}

// NodeCounts returns the number of nodes per label, for run metrics and
// diagnostics — the generalized successor of this store's previous
// vehicle-specific node/relationship tallies.
func (s *Neo4jStore) NodeCounts(ctx context.Context) (map[string]int64, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (n) UNWIND labels(n) AS label RETURN label, count(*) AS count`, nil)
	if err != nil {
		return nil, fmt.Errorf("graph: node_counts: %w", err)
	}
	counts := map[string]int64{}
	for result.Next(ctx) {
		rec := result.Record()
		label, _ := rec.Get("label")
		count, _ := rec.Get("count")
		counts[fmt.Sprint(label)] = toInt64(count)
	}
	return counts, nil
}

// RelationshipCounts returns the number of relationships per type.
func (s *Neo4jStore) RelationshipCounts(ctx context.Context) (map[string]int64, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH ()-[r]->() RETURN type(r) AS rel, count(*) AS count`, nil)
	if err != nil {
		return nil, fmt.Errorf("graph: relationship_counts: %w", err)
	}
	counts := map[string]int64{}
	for result.Next(ctx) {
		rec := result.Record()
		rel, _ := rec.Get("rel")
		count, _ := rec.Get("count")
		counts[fmt.Sprint(rel)] = toInt64(count)
	}
	return counts, nil
}

func relPattern(dir Direction, relation string) string {
	rel := ""
	if relation != "" {
		rel = ":" + sanitizeRelType(relation)
	}
	switch dir {
	case DirOut:
		return fmt.Sprintf("-[%s*1]->", rel)
	case DirIn:
		return fmt.Sprintf("<-[%s*1]-", rel)
	default:
		return fmt.Sprintf("-[%s*1]-", rel)
	}
}

func collectNodes(ctx context.Context, result neo4j.ResultWithContext) ([]Node, error) {
	var nodes []Node
	for result.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[dbtype.Node](result.Record(), "n")
		if err != nil {
			return nil, err
		}
		labelsVal, _ := result.Record().Get("labels")
		labels, _ := labelsVal.([]any)
		label := ""
		if len(labels) > 0 {
			label = fmt.Sprint(labels[0])
		}
		nodes = append(nodes, nodeFromProps(label, node.Props))
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, nil
}

func nodeFromProps(label string, props map[string]any) Node {
	n := Node{Label: label, Properties: map[string]any{}}
	for k, v := range props {
		switch k {
		case "id":
			n.ID = fmt.Sprint(v)
		case "version":
			n.Version = int(toInt64(v))
		case "updated_at":
			n.UpdatedAt = toInt64(v)
		}
		n.Properties[k] = v
	}
	return n
}

func flattenNodeProps(n Node) map[string]any {
	props := make(map[string]any, len(n.Properties)+4)
	for k, v := range n.Properties {
		props[k] = v
	}
	props["id"] = n.ID
	props["version"] = n.Version
	props["updated_at"] = n.UpdatedAt
	return props
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
