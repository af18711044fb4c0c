package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/kanunlaw/kanun/internal/segment"
)

const (
	// LegalTokenizerName is the name of the statute-aware tokenizer.
	LegalTokenizerName = "legal_tokenizer"

	// LegalAnalyzerName is the name of the statute-aware analyzer.
	LegalAnalyzerName = "legal_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(LegalTokenizerName, legalTokenizerConstructor)
}

// LexicalIndex wraps an in-memory bleve index for BM25-style keyword
// search over a chunk corpus. The index is built once at construction and
// is read-only afterwards.
type LexicalIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	count  int
	closed bool
}

// bleveDocument is the document shape indexed per chunk.
type bleveDocument struct {
	Content string `json:"content"`
}

// NewLexicalIndex builds an in-memory keyword index over the corpus.
func NewLexicalIndex(chunks []segment.Chunk) (*LexicalIndex, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("create index mapping: %w", err)
	}

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	batch := idx.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ChunkID, bleveDocument{Content: c.Content}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("index chunk %s: %w", c.ChunkID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("execute index batch: %w", err)
	}

	return &LexicalIndex{index: idx, count: len(chunks)}, nil
}

// createIndexMapping builds the bleve mapping with the legal analyzer as
// default, so indexing and query analysis share identical tokenization.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(LegalAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     LegalTokenizerName,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("add custom analyzer: %w", err)
	}

	indexMapping.DefaultAnalyzer = LegalAnalyzerName
	return indexMapping, nil
}

// Search returns chunks matching the query, scored by BM25, best first.
// Only matching (non-zero score) documents come back from bleve, so the
// zero-score exclusion holds by construction.
func (l *LexicalIndex) Search(ctx context.Context, queryStr string, n int) ([]KeywordResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, fmt.Errorf("index is closed")
	}

	if strings.TrimSpace(queryStr) == "" || n <= 0 {
		return []KeywordResult{}, nil
	}

	matchQuery := bleve.NewMatchQuery(queryStr)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = n

	result, err := l.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make([]KeywordResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		results = append(results, KeywordResult{
			ChunkID: hit.ID,
			Score:   hit.Score,
		})
	}
	return results, nil
}

// Count returns the number of indexed documents.
func (l *LexicalIndex) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Close closes the underlying bleve index.
func (l *LexicalIndex) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.index.Close()
}

var _ KeywordIndex = (*LexicalIndex)(nil)

// legalTokenizerConstructor creates the statute tokenizer for bleve.
func legalTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &legalTokenizer{}, nil
}

// legalTokenizer implements analysis.Tokenizer with statute-aware rules.
type legalTokenizer struct{}

// Tokenize implements analysis.Tokenizer. Token offsets point at the
// first occurrence of the token text; fused section tokens keep the
// offset of the "section" word they start from.
func (t *legalTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := TokenizeLegal(text)

	stream := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0

	for _, token := range tokens {
		term := token
		if i := strings.IndexByte(term, '_'); i > 0 {
			// Fused "section_N": locate by its leading word.
			term = term[:i]
		}

		start := strings.Index(strings.ToLower(text[offset:]), term)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(term)

		stream = append(stream, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}

	return stream
}

var (
	// sectionRefPattern fuses "section 10" style references into one
	// token so a query for Section 10 matches the provision, not every
	// occurrence of the words "section" and "10" independently.
	sectionRefPattern = regexp.MustCompile(`section\s+(\d+[a-z]*)`)

	// wordPattern matches maximal alphanumeric runs; underscore is kept
	// so fused section tokens survive as single terms.
	wordPattern = regexp.MustCompile(`[a-z0-9_]+`)
)

// TokenizeLegal lowercases text, fuses section-number bigrams into single
// tokens, and splits the rest into maximal alphanumeric runs. The same
// rule is applied to corpus content and queries.
func TokenizeLegal(text string) []string {
	lowered := strings.ToLower(text)
	fused := sectionRefPattern.ReplaceAllString(lowered, "section_$1")
	return wordPattern.FindAllString(fused, -1)
}
