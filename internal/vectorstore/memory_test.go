package vectorstore

import (
	"context"
	"math"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	vec := []float32{0.1, 0.2, 0.3}
	payload := map[string]interface{}{"source_type": "reddit"}
	if err := s.Upsert(ctx, "item1", vec, payload); err != nil {
		t.Fatalf("upsert error: %v", err)
	}

	rec, err := s.Get(ctx, "item1")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if rec == nil {
		t.Fatal("stored record not found")
	}
	for i := range vec {
		if math.Abs(float64(rec.Vector[i]-vec[i])) > 1e-6 {
			t.Fatalf("vector[%d] = %v, want %v", i, rec.Vector[i], vec[i])
		}
	}
	if rec.Payload["source_type"] != "reddit" {
		t.Errorf("payload lost: %v", rec.Payload)
	}

	missing, err := s.Get(ctx, "absent")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if missing != nil {
		t.Fatal("absent id returned a record")
	}
}

func TestMemoryStoreUpsertIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, "item1", []float32{1, 0}, nil); err != nil {
		t.Fatalf("upsert error: %v", err)
	}
	if err := s.Upsert(ctx, "item1", []float32{0, 1}, nil); err != nil {
		t.Fatalf("upsert error: %v", err)
	}

	info, err := s.CollectionInfo(ctx)
	if err != nil {
		t.Fatalf("collection info error: %v", err)
	}
	if info.Count != 1 {
		t.Fatalf("got count %d, want 1 after double upsert", info.Count)
	}

	rec, _ := s.Get(ctx, "item1")
	if rec.Vector[0] != 0 || rec.Vector[1] != 1 {
		t.Errorf("latest write did not win: %v", rec.Vector)
	}
}

func TestMemoryStoreSearchRanksBySimilarity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Upsert(ctx, "same", []float32{1, 0, 0}, nil)
	s.Upsert(ctx, "near", []float32{0.9, 0.1, 0}, nil)
	s.Upsert(ctx, "far", []float32{0, 0, 1}, nil)

	results, err := s.SearchSimilar(ctx, []float32{1, 0, 0}, 10, nil)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].ID != "same" {
		t.Errorf("got top hit %q, want same", results[0].ID)
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("self similarity %v, want 1.0", results[0].Score)
	}
	if results[1].ID != "near" || results[2].ID != "far" {
		t.Errorf("ranking wrong: %v", results)
	}
}

func TestMemoryStoreSearchThresholdAndLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Upsert(ctx, "same", []float32{1, 0}, nil)
	s.Upsert(ctx, "orthogonal", []float32{0, 1}, nil)

	threshold := 0.5
	results, err := s.SearchSimilar(ctx, []float32{1, 0}, 10, &threshold)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "same" {
		t.Fatalf("threshold filter failed: %v", results)
	}

	s.Upsert(ctx, "close", []float32{0.95, 0.05}, nil)
	results, err = s.SearchSimilar(ctx, []float32{1, 0}, 1, nil)
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("limit not applied: %v", results)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Upsert(ctx, "item1", []float32{1}, nil)

	existed, err := s.Delete(ctx, "item1")
	if err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if !existed {
		t.Fatal("delete reported missing for stored record")
	}

	existed, err = s.Delete(ctx, "item1")
	if err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if existed {
		t.Fatal("second delete reported existing")
	}
}

func TestCosineSimilarityEdgeCases(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("mismatched lengths: got %v, want 0", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero vector: got %v, want 0", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{-1, 0}); math.Abs(got+1) > 1e-9 {
		t.Errorf("opposite vectors: got %v, want -1", got)
	}
}

func TestPgVectorFormatParseRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3}
	parsed, err := parseVector(formatVector(vec))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(parsed) != len(vec) {
		t.Fatalf("got %d elements, want %d", len(parsed), len(vec))
	}
	for i := range vec {
		if parsed[i] != vec[i] {
			t.Errorf("element %d: got %v, want %v", i, parsed[i], vec[i])
		}
	}
}
