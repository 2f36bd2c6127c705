package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/veridoc/veridoc/internal/model"
)

// Store is a pgvector-backed similarity index over known-authentic
// reference documents.
type Store struct {
	cfg  model.IndexConfig
	pool *pgxpool.Pool
}

// NewStore connects to the database and ensures the schema exists
func NewStore(ctx context.Context, cfg model.IndexConfig) (*Store, error) {
	if cfg.Table == "" {
		cfg.Table = "reference_documents"
	}
	if cfg.TopK == 0 {
		cfg.TopK = 20
	}
	if cfg.VectorDim == 0 {
		cfg.VectorDim = 512
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to index database: %w", err)
	}

	s := &Store{cfg: cfg, pool: pool}
	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			side TEXT NOT NULL DEFAULT 'unknown',
			embedding vector(%d)
		)`, s.cfg.Table, s.cfg.VectorDim)
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create reference table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`, s.cfg.Table, s.cfg.Table)
	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	return nil
}

// Search returns the nearest reference documents by cosine similarity.
// side == SideUnknown queries the whole corpus.
func (s *Store) Search(ctx context.Context, vector []float32, side model.DocumentSide, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = s.cfg.TopK
	}

	query := fmt.Sprintf(`
		SELECT filename, side, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, s.cfg.Table)
	args := []interface{}{pgvector.NewVector(vector), topK}

	if side != model.SideUnknown && side != "" {
		query = fmt.Sprintf(`
			SELECT filename, side, 1 - (embedding <=> $1) AS score
			FROM %s
			WHERE side = $2
			ORDER BY embedding <=> $1
			LIMIT $3`, s.cfg.Table)
		args = []interface{}{pgvector.NewVector(vector), string(side), topK}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query similarity index: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var sideStr string
		if err := rows.Scan(&r.Filename, &sideStr, &r.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		r.Side = model.DocumentSide(sideStr)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read search results: %w", err)
	}
	return results, nil
}

// Add upserts one reference embedding. Used by the corpus seeding
// command, never by the evaluation path.
func (s *Store) Add(ctx context.Context, id, filename string, side model.DocumentSide, vector []float32) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, filename, side, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			side = EXCLUDED.side,
			embedding = EXCLUDED.embedding`, s.cfg.Table)
	if _, err := s.pool.Exec(ctx, stmt, id, filename, string(side), pgvector.NewVector(vector)); err != nil {
		return fmt.Errorf("upsert reference embedding: %w", err)
	}
	return nil
}

// Healthy pings the database
func (s *Store) Healthy(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
