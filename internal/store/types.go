// Package store provides the persistence and index layer: the SQLite
// chunk corpus, the bleve keyword index, and the HNSW vector backend.
package store

import (
	"context"

	"github.com/kanunlaw/kanun/internal/segment"
)

// KeywordResult is a single keyword search hit. Scores are BM25-style:
// non-negative, higher is more relevant. Zero-score documents are never
// returned.
type KeywordResult struct {
	ChunkID string
	Score   float64
}

// VectorResult is a single vector search hit in cosine-distance space.
// Lower distance is more similar.
type VectorResult struct {
	ChunkID  string
	Distance float32
}

// KeywordIndex answers lexical queries over the chunk corpus. Built once
// at construction; read-only afterwards.
type KeywordIndex interface {
	// Search returns up to n chunks matching the query, best first.
	Search(ctx context.Context, query string, n int) ([]KeywordResult, error)

	// Count returns the number of indexed documents.
	Count() int

	// Close releases index resources.
	Close() error
}

// VectorSearcher is the externally supplied embedding-and-nearest-neighbor
// capability. Ingestion populates it keyed by chunk id; queries return ids
// with cosine distances.
type VectorSearcher interface {
	// Add embeds texts and inserts them keyed by the matching ids.
	Add(ctx context.Context, ids []string, texts []string) error

	// Query embeds text and returns the n nearest chunks.
	Query(ctx context.Context, text string, n int) ([]VectorResult, error)

	// Count returns the number of stored vectors.
	Count() int
}

// ChunkStore persists the segmented corpus as a flat record set.
type ChunkStore interface {
	// SaveChunks inserts chunk records. A chunk id already present in the
	// store is a hard error: cross-document id collisions must be resolved
	// by the caller, never silently overwritten.
	SaveChunks(ctx context.Context, chunks []segment.Chunk) error

	// LoadChunks returns the whole corpus ordered by act and position.
	LoadChunks(ctx context.Context) ([]segment.Chunk, error)

	// Close releases store resources.
	Close() error
}
