package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
)

const payloadIDKey = "_id"

// QdrantStore persists embeddings in a Qdrant collection with cosine
// distance. Qdrant point ids must be numeric or UUID, so the item id is
// mapped to a deterministic UUID and kept verbatim in the payload.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

func NewQdrantStore(ctx context.Context, cfg *config.Config) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.QdrantHost,
		Port: cfg.QdrantPort,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}

	exists, err := client.CollectionExists(ctx, cfg.QdrantCollection)
	if err != nil {
		return nil, fmt.Errorf("check qdrant collection: %w", err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: cfg.QdrantCollection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(cfg.VectorDim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("create qdrant collection: %w", err)
		}
		logger.Info("Created Qdrant collection", "collection", cfg.QdrantCollection, "dim", cfg.VectorDim)
	}

	return &QdrantStore{client: client, collection: cfg.QdrantCollection}, nil
}

func pointID(id string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String())
}

func (s *QdrantStore) Upsert(ctx context.Context, id string, vector []float32, payload map[string]interface{}) error {
	merged := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		merged[k] = v
	}
	merged[payloadIDKey] = id

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      pointID(id),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(merged),
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert %s: %w", id, err)
	}
	return nil
}

func (s *QdrantStore) SearchSimilar(ctx context.Context, vector []float32, limit int, scoreThreshold *float64) ([]SearchResult, error) {
	query := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if scoreThreshold != nil {
		query.ScoreThreshold = qdrant.PtrOf(float32(*scoreThreshold))
	}

	hits, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		payload := payloadToMap(hit.Payload)
		id, _ := payload[payloadIDKey].(string)
		delete(payload, payloadIDKey)
		results = append(results, SearchResult{
			ID:      id,
			Score:   float64(hit.Score),
			Payload: payload,
		})
	}
	return results, nil
}

func (s *QdrantStore) Get(ctx context.Context, id string) (*Record, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: s.collection,
		Ids:            []*qdrant.PointId{pointID(id)},
		WithVectors:    qdrant.NewWithVectors(true),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant get %s: %w", id, err)
	}
	if len(points) == 0 {
		return nil, nil
	}

	point := points[0]
	payload := payloadToMap(point.Payload)
	delete(payload, payloadIDKey)

	rec := &Record{ID: id, Payload: payload}
	if v := point.Vectors.GetVector(); v != nil {
		rec.Vector = v.Data
	}
	return rec, nil
}

func (s *QdrantStore) Delete(ctx context.Context, id string) (bool, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelector(pointID(id)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return false, fmt.Errorf("qdrant delete %s: %w", id, err)
	}
	return true, nil
}

func (s *QdrantStore) CollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("qdrant collection info: %w", err)
	}

	var count int64
	if info.PointsCount != nil {
		count = int64(*info.PointsCount)
	}
	return &CollectionInfo{
		Name:   s.collection,
		Count:  count,
		Status: info.Status.String(),
	}, nil
}

func (s *QdrantStore) Close() error { return s.client.Close() }

func payloadToMap(payload map[string]*qdrant.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = valueToInterface(v)
	}
	return out
}

func valueToInterface(v *qdrant.Value) interface{} {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = valueToInterface(item)
		}
		return out
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}
