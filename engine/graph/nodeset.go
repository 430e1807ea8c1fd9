package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/topoteretes/cognee-go/pkg/repo"
)

// NodeSetRecord is the minimal NodeSet projection materialize needs when
// resolving a DataPoint's belongs_to_set reference: just enough to confirm
// the tag exists (or create it) without pulling in the full Node shape.
type NodeSetRecord struct {
	ID   string
	Name string
}

// NodeSetRepo is a generic Neo4jRepo specialized to the NodeSet label. It
// rides on pkg/repo's generic CRUD machinery rather than Store's bulk
// upsert path, since NodeSet lifecycle (create-on-first-use, coarse lookup)
// is simple single-row CRUD, not a batched materialization.
type NodeSetRepo = repo.Neo4jRepo[NodeSetRecord, string]

// NewNodeSetRepo builds a NodeSetRepo over driver.
func NewNodeSetRepo(driver neo4j.DriverWithContext) *NodeSetRepo {
	return repo.NewNeo4jRepo[NodeSetRecord, string](driver, "NodeSet", nodeSetToMap, nodeSetFromRecord)
}

// EnsureNodeSet materializes a NodeSet by id, creating it with the given
// name on first use or refreshing its name otherwise. Used by
// add_data_points to materialize a DataPoint's belongs_to_set reference as
// a real node. Backed by Neo4jRepo.Upsert (a single MERGE) rather than a
// Get-then-Create probe, so two concurrent pipeline runs tagging the same
// set never race into a duplicate NodeSet row.
func EnsureNodeSet(ctx context.Context, r *NodeSetRepo, id, name string) (NodeSetRecord, error) {
	return r.Upsert(ctx, NodeSetRecord{ID: id, Name: name})
}

func nodeSetToMap(r NodeSetRecord) map[string]any {
	return map[string]any{"id": r.ID, "name": r.Name}
}

func nodeSetFromRecord(rec *neo4j.Record) (NodeSetRecord, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return NodeSetRecord{}, err
	}
	r := NodeSetRecord{}
	if v, ok := node.Props["id"]; ok {
		r.ID = fmt.Sprint(v)
	}
	if v, ok := node.Props["name"]; ok {
		r.Name = fmt.Sprint(v)
	}
	return r, nil
}
