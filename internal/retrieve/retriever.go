package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kanunlaw/kanun/internal/segment"
	"github.com/kanunlaw/kanun/internal/store"
)

// Retriever is the retrieval facade. It owns the corpus snapshot and the
// index handles for its lifetime; everything is read-only after
// construction, so concurrent Retrieve calls need no locking.
type Retriever struct {
	chunks  map[string]segment.Chunk
	keyword store.KeywordIndex
	vector  store.VectorSearcher
	cfg     Config
}

// NewRetriever builds a retriever over the loaded corpus snapshot.
//
// Either index handle may be nil: that modality is then unavailable and
// its sub-searches return empty lists (hybrid queries proceed on the
// other modality). Configuration errors fail fast here; nothing else
// does. Updating the corpus means discarding the instance and building a
// new one; there is no incremental re-index path.
func NewRetriever(corpus []segment.Chunk, keyword store.KeywordIndex, vector store.VectorSearcher, cfg Config) (*Retriever, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retrieval config: %w", err)
	}

	chunks := make(map[string]segment.Chunk, len(corpus))
	for _, c := range corpus {
		if _, dup := chunks[c.ChunkID]; dup {
			return nil, fmt.Errorf("duplicate chunk id in corpus: %s", c.ChunkID)
		}
		chunks[c.ChunkID] = c
	}

	return &Retriever{
		chunks:  chunks,
		keyword: keyword,
		vector:  vector,
		cfg:     cfg,
	}, nil
}

// ranked is one scored candidate from a sub-search, in rank order.
type ranked struct {
	chunkID string
	score   float64
}

// Retrieve runs the sub-searches the method requires, fuses hybrid
// rankings with RRF, and hydrates the top n ids into full results.
//
// Per-query sub-search failures are absorbed and reported through
// Response.Failed rather than as errors; only context cancellation and
// an unknown method surface here.
func (r *Retriever) Retrieve(ctx context.Context, query string, n int, method Method) (*Response, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return &Response{Results: []Result{}}, nil
	}

	if n <= 0 {
		n = r.cfg.DefaultLimit
	}
	if n > r.cfg.MaxLimit {
		n = r.cfg.MaxLimit
	}

	// Each list is truncated to 2×N before fusion: enough recall for
	// overlap without scoring the whole corpus twice.
	fetch := n * 2

	var semantic, keyword []ranked
	var failed []Method

	switch method {
	case MethodHybrid:
		// Sub-searches are independent; run them concurrently.
		g, gctx := errgroup.WithContext(ctx)
		var semFailed, kwFailed bool
		g.Go(func() error {
			semantic, semFailed = r.semanticSearch(gctx, query, fetch)
			return nil
		})
		g.Go(func() error {
			keyword, kwFailed = r.keywordSearch(gctx, query, fetch)
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if semFailed {
			failed = append(failed, MethodSemantic)
		}
		if kwFailed {
			failed = append(failed, MethodKeyword)
		}
	case MethodSemantic:
		var semFailed bool
		semantic, semFailed = r.semanticSearch(ctx, query, fetch)
		if semFailed {
			failed = append(failed, MethodSemantic)
		}
	case MethodKeyword:
		var kwFailed bool
		keyword, kwFailed = r.keywordSearch(ctx, query, fetch)
		if kwFailed {
			failed = append(failed, MethodKeyword)
		}
	}

	// Combine. Single-method modes skip fusion and keep native scores.
	var combined map[string]float64
	if method == MethodHybrid {
		combined = ReciprocalRankFusion(
			rankedIDs(semantic), rankedIDs(keyword),
			r.cfg.SemanticWeight, r.cfg.KeywordWeight, r.cfg.RRFConstant)
	} else {
		lists := semantic
		if method == MethodKeyword {
			lists = keyword
		}
		combined = make(map[string]float64, len(lists))
		for _, c := range lists {
			combined[c.chunkID] = c.score
		}
	}

	// Sort descending by score; equal scores break ties by ascending
	// chunk id so result order is deterministic.
	ids := make([]string, 0, len(combined))
	for id := range combined {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, sj := combined[ids[i]], combined[ids[j]]
		if si != sj {
			return si > sj
		}
		return ids[i] < ids[j]
	})

	if len(ids) > n {
		ids = ids[:n]
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		chunk, ok := r.chunks[id]
		if !ok {
			// Stale index entry not present in the corpus snapshot.
			slog.Warn("stale_chunk_id_skipped", slog.String("chunk_id", id))
			continue
		}
		results = append(results, Result{
			ChunkID:         chunk.ChunkID,
			Content:         chunk.Content,
			ActName:         chunk.ActName,
			ActNumber:       chunk.ActNumber,
			Part:            chunk.Part,
			SectionNumber:   chunk.SectionNumber,
			SectionTitle:    chunk.SectionTitle,
			Score:           combined[id],
			RetrievalMethod: method,
		})
	}

	return &Response{Results: results, Failed: failed}, nil
}

// semanticSearch is the adapter boundary over the vector-search
// capability: similarity = 1 - cosine distance, and any backend failure
// or unavailable store degrades to an empty list.
func (r *Retriever) semanticSearch(ctx context.Context, query string, n int) ([]ranked, bool) {
	if r.vector == nil || r.vector.Count() == 0 {
		return nil, true
	}

	hits, err := r.vector.Query(ctx, query, n)
	if err != nil {
		slog.Warn("semantic_search_failed", slog.String("error", err.Error()))
		return nil, true
	}

	out := make([]ranked, 0, len(hits))
	for _, h := range hits {
		out = append(out, ranked{
			chunkID: h.ChunkID,
			score:   1 - float64(h.Distance),
		})
	}
	return out, false
}

// keywordSearch runs the lexical sub-search with the same degradation
// policy as the semantic side.
func (r *Retriever) keywordSearch(ctx context.Context, query string, n int) ([]ranked, bool) {
	if r.keyword == nil || r.keyword.Count() == 0 {
		return nil, true
	}

	hits, err := r.keyword.Search(ctx, query, n)
	if err != nil {
		slog.Warn("keyword_search_failed", slog.String("error", err.Error()))
		return nil, true
	}

	out := make([]ranked, 0, len(hits))
	for _, h := range hits {
		out = append(out, ranked{chunkID: h.ChunkID, score: h.Score})
	}
	return out, false
}

// rankedIDs projects a ranked list to ids, preserving order.
func rankedIDs(list []ranked) []string {
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.chunkID
	}
	return ids
}

// ChunkCount returns the size of the loaded corpus snapshot.
func (r *Retriever) ChunkCount() int {
	return len(r.chunks)
}
