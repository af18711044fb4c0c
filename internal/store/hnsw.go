package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kanunlaw/kanun/internal/embed"
)

// ErrNilEmbedder is returned when an HNSW backend is constructed without
// an embedder.
var ErrNilEmbedder = errors.New("nil embedder")

// HNSWBackend implements VectorSearcher with a pure-Go HNSW graph and an
// injected embedder. Cosine distance throughout.
type HNSWBackend struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[uint64]
	embedder embed.Embedder

	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
}

// NewHNSWBackend creates an empty cosine-space vector backend.
func NewHNSWBackend(embedder embed.Embedder) (*HNSWBackend, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &HNSWBackend{
		graph:    graph,
		embedder: embedder,
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
	}, nil
}

// Add embeds texts and inserts them keyed by the matching ids. An id that
// already exists is replaced via lazy deletion (mappings updated, old node
// orphaned in the graph).
func (b *HNSWBackend) Add(ctx context.Context, ids []string, texts []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) != len(texts) {
		return fmt.Errorf("ids and texts length mismatch: %d vs %d", len(ids), len(texts))
	}

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, id := range ids {
		if existingKey, exists := b.idMap[id]; exists {
			delete(b.keyMap, existingKey)
			delete(b.idMap, id)
		}

		key := b.nextKey
		b.nextKey++

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeInPlace(vec)

		b.graph.Add(hnsw.MakeNode(key, vec))
		b.idMap[id] = key
		b.keyMap[key] = id
	}

	return nil
}

// Query embeds text and returns the n nearest chunks with their cosine
// distances. An empty graph returns an empty list.
func (b *HNSWBackend) Query(ctx context.Context, text string, n int) ([]VectorResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.graph.Len() == 0 || n <= 0 {
		return []VectorResult{}, nil
	}

	query, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	normalizeInPlace(query)

	nodes := b.graph.Search(query, n)

	results := make([]VectorResult, 0, len(nodes))
	for _, node := range nodes {
		id, ok := b.keyMap[node.Key]
		if !ok {
			// Lazily deleted node still present in the graph.
			continue
		}
		results = append(results, VectorResult{
			ChunkID:  id,
			Distance: b.graph.Distance(query, node.Value),
		})
	}

	return results, nil
}

// Count returns the number of live vectors.
func (b *HNSWBackend) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.idMap)
}

// normalizeInPlace scales a vector to unit length for cosine distance.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return
	}
	for i, val := range v {
		v[i] = float32(float64(val) / magnitude)
	}
}

var _ VectorSearcher = (*HNSWBackend)(nil)
