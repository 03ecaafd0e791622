package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PgVectorStore persists embeddings in PostgreSQL with the pgvector
// extension. Cosine distance (<=>) drives similarity search; stored score is
// 1 - distance.
type PgVectorStore struct {
	db *sql.DB
}

func NewPgVectorStore(ctx context.Context, db *sql.DB, dim int) (*PgVectorStore, error) {
	var exists bool
	err := db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check pgvector extension: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("pgvector extension is not installed in the database")
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS opportunity_embeddings (
			id TEXT PRIMARY KEY,
			embedding VECTOR(%d),
			payload JSONB,
			created_at TIMESTAMP DEFAULT NOW()
		)`, dim))
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS opportunity_embeddings_embedding_idx
		ON opportunity_embeddings USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings index: %w", err)
	}

	return &PgVectorStore{db: db}, nil
}

func (s *PgVectorStore) Upsert(ctx context.Context, id string, vector []float32, payload map[string]interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO opportunity_embeddings (id, embedding, payload)
		VALUES ($1, $2::vector, $3)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload,
			created_at = NOW()`,
		id, formatVector(vector), payloadJSON)
	if err != nil {
		return fmt.Errorf("upsert embedding %s: %w", id, err)
	}
	return nil
}

func (s *PgVectorStore) SearchSimilar(ctx context.Context, vector []float32, limit int, scoreThreshold *float64) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload, 1 - (embedding <=> $1::vector) AS score
		FROM opportunity_embeddings
		ORDER BY embedding <=> $1::vector
		LIMIT $2`,
		formatVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r           SearchResult
			payloadJSON []byte
		)
		if err := rows.Scan(&r.ID, &payloadJSON, &r.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		if scoreThreshold != nil && r.Score < *scoreThreshold {
			continue
		}
		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &r.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal payload: %w", err)
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *PgVectorStore) Get(ctx context.Context, id string) (*Record, error) {
	var (
		rec         Record
		vectorStr   string
		payloadJSON []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, embedding::text, payload
		FROM opportunity_embeddings
		WHERE id = $1`, id).Scan(&rec.ID, &vectorStr, &payloadJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get embedding %s: %w", id, err)
	}

	rec.Vector, err = parseVector(vectorStr)
	if err != nil {
		return nil, fmt.Errorf("parse embedding %s: %w", id, err)
	}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &rec.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	return &rec, nil
}

func (s *PgVectorStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM opportunity_embeddings WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete embedding %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *PgVectorStore) CollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM opportunity_embeddings`).Scan(&count); err != nil {
		return nil, fmt.Errorf("collection info: %w", err)
	}
	return &CollectionInfo{Name: "opportunity_embeddings", Count: count, Status: "green"}, nil
}

func (s *PgVectorStore) Close() error { return s.db.Close() }

// formatVector renders a vector in pgvector's text form: [1,2,3]
func formatVector(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

func parseVector(s string) ([]float32, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}
