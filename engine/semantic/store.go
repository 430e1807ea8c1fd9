package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Store is the C2 contract: a collection-scoped vector index. Every
// operation takes the collection name explicitly — engine/router resolves
// which collection a given (owner_id, dataset_id, subclass, field) maps to,
// this package only knows how to talk to Qdrant.
type Store interface {
	CreateCollection(ctx context.Context, name string, dim int, distance Distance) error
	HasCollection(ctx context.Context, name string) (bool, error)
	Upsert(ctx context.Context, collection string, items []Item) error
	Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error)
	SearchBatch(ctx context.Context, collection string, queries [][]float32, k int, filter Filter) ([][]SearchResult, error)
	Delete(ctx context.Context, collection string, ids []string) error
	Prune(ctx context.Context, collection string) error
}

// QdrantStore is the Qdrant-backed implementation of Store.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// New dials Qdrant at addr and returns a QdrantStore.
func New(addr string) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

// Close closes the underlying gRPC connection.
func (v *QdrantStore) Close() error {
	return v.conn.Close()
}

var _ Store = (*QdrantStore)(nil)

func toQdrantDistance(d Distance) pb.Distance {
	switch d {
	case DistanceDot:
		return pb.Distance_Dot
	case DistanceEuclid:
		return pb.Distance_Euclid
	default:
		return pb.Distance_Cosine
	}
}

// CreateCollection creates a collection if it doesn't already exist. Idempotent.
func (v *QdrantStore) CreateCollection(ctx context.Context, name string, dim int, distance Distance) error {
	exists, err := v.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dim),
					Distance: toQdrantDistance(distance),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", name, err)
	}
	return nil
}

// HasCollection reports whether name is provisioned.
func (v *QdrantStore) HasCollection(ctx context.Context, name string) (bool, error) {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == name {
			return true, nil
		}
	}
	return false, nil
}

// Upsert stores items into collection, idempotent on Item.ID.
func (v *QdrantStore) Upsert(ctx context.Context, collection string, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(items))
	for i, it := range items {
		payload := make(map[string]*pb.Value, len(it.Payload))
		for k, val := range it.Payload {
			payload[k] = toQdrantValue(val)
		}

		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: it.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: it.Vector},
				},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points into %s: %w", len(items), collection, err)
	}
	return nil
}

// Search performs k-NN similarity search against collection, optionally
// constrained by filter, sorted by score descending.
func (v *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error) {
	req := &pb.SearchPoints{
		CollectionName: collection,
		Vector:         query,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if len(filter) > 0 {
		req.Filter = toQdrantFilter(filter)
	}

	resp, err := v.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("semantic: search %s: %w", collection, err)
	}
	return fromQdrantScored(resp.GetResult()), nil
}

// SearchBatch runs one Search per query in a single round-trip.
func (v *QdrantStore) SearchBatch(ctx context.Context, collection string, queries [][]float32, k int, filter Filter) ([][]SearchResult, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	searches := make([]*pb.SearchPoints, len(queries))
	for i, q := range queries {
		sp := &pb.SearchPoints{
			CollectionName: collection,
			Vector:         q,
			Limit:          uint64(k),
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		}
		if len(filter) > 0 {
			sp.Filter = toQdrantFilter(filter)
		}
		searches[i] = sp
	}

	resp, err := v.points.SearchBatch(ctx, &pb.SearchBatchPoints{
		CollectionName: collection,
		SearchPoints:   searches,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search_batch %s: %w", collection, err)
	}

	out := make([][]SearchResult, len(resp.GetResult()))
	for i, batch := range resp.GetResult() {
		out[i] = fromQdrantScored(batch.GetResult())
	}
	return out, nil
}

// Delete removes ids from collection. Idempotent: deleting an absent id is
// not an error.
func (v *QdrantStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}
	}

	wait := true
	_, err := v.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: delete %d points from %s: %w", len(ids), collection, err)
	}
	return nil
}

// Prune drops the entire collection. Used by the Prune (reset-all) operation.
func (v *QdrantStore) Prune(ctx context.Context, collection string) error {
	_, err := v.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: collection})
	if err != nil {
		return fmt.Errorf("semantic: prune collection %s: %w", collection, err)
	}
	return nil
}

func toQdrantValue(val any) *pb.Value {
	switch tv := val.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

func toQdrantFilter(filter Filter) *pb.Filter {
	must := make([]*pb.Condition, 0, len(filter))
	for k, val := range filter {
		must = append(must, fieldMatch(k, val))
	}
	return &pb.Filter{Must: must}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func fromQdrantScored(scored []*pb.ScoredPoint) []SearchResult {
	results := make([]SearchResult, len(scored))
	for i, r := range scored {
		sr := SearchResult{
			ID:      r.GetId().GetUuid(),
			Score:   r.GetScore(),
			Payload: make(map[string]any, len(r.GetPayload())),
		}
		for k, val := range r.GetPayload() {
			sr.Payload[k] = fromQdrantValue(val)
		}
		results[i] = sr
	}
	return results
}

func fromQdrantValue(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}
