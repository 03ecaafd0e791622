package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process backend used for local runs and tests. It
// implements the same semantics as the server backends.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Upsert(ctx context.Context, id string, vector []float32, payload map[string]interface{}) error {
	vec := make([]float32, len(vector))
	copy(vec, vector)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = Record{ID: id, Vector: vec, Payload: payload}
	return nil
}

func (s *MemoryStore) SearchSimilar(ctx context.Context, vector []float32, limit int, scoreThreshold *float64) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.records))
	for _, rec := range s.records {
		score := CosineSimilarity(vector, rec.Vector)
		if scoreThreshold != nil && score < *scoreThreshold {
			continue
		}
		results = append(results, SearchResult{ID: rec.ID, Score: score, Payload: rec.Payload})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	out := Record{ID: rec.ID, Vector: make([]float32, len(rec.Vector)), Payload: rec.Payload}
	copy(out.Vector, rec.Vector)
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *MemoryStore) CollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &CollectionInfo{Name: "memory", Count: int64(len(s.records)), Status: "green"}, nil
}

func (s *MemoryStore) Close() error { return nil }

// CosineSimilarity returns the cosine of the angle between a and b, or 0 for
// mismatched or zero-magnitude vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
