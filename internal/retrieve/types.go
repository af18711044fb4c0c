// Package retrieve implements hybrid retrieval over a segmented statute
// corpus: keyword and semantic sub-searches fused with Reciprocal Rank
// Fusion (RRF) into a single ranked, citation-bearing result list.
package retrieve

import (
	"errors"
	"fmt"
)

// Method selects which search modalities a retrieval runs.
type Method string

const (
	// MethodSemantic ranks by embedding similarity only.
	MethodSemantic Method = "semantic"

	// MethodKeyword ranks by BM25 keyword relevance only.
	MethodKeyword Method = "keyword"

	// MethodHybrid fuses both rankings with RRF.
	MethodHybrid Method = "hybrid"
)

// ParseMethod validates and normalizes a method name.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodSemantic, MethodKeyword, MethodHybrid:
		return Method(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// ErrUnknownMethod is returned for a method outside semantic/keyword/hybrid.
var ErrUnknownMethod = errors.New("unknown retrieval method")

// Result is a single retrieval hit with its citation fields copied from
// the source chunk. Constructed fresh per query, never mutated after.
type Result struct {
	ChunkID         string
	Content         string
	ActName         string
	ActNumber       int
	Part            string
	SectionNumber   string
	SectionTitle    string
	Score           float64
	RetrievalMethod Method
}

// Response is the outcome of one retrieval. Failed lists the modalities
// whose sub-search was unavailable or errored; a hybrid query with one
// failed modality still carries the other's results.
type Response struct {
	Results []Result
	Failed  []Method
}

// Partial reports whether some modality failed while results were still
// produced from another.
func (r *Response) Partial() bool {
	return len(r.Failed) > 0
}

// DefaultRRFConstant is the standard RRF damping parameter. Small k
// sharply privileges rank-1 items; larger k flattens the influence gap
// between nearby ranks.
const DefaultRRFConstant = 60

// Config holds the retrieval tuning surface. Weights need not sum to 1;
// keyword weight is typically raised for terminology-sensitive corpora.
type Config struct {
	// SemanticWeight scales semantic rank contributions in fusion.
	SemanticWeight float64

	// KeywordWeight scales keyword rank contributions in fusion.
	KeywordWeight float64

	// RRFConstant is the damping constant k (default: 60).
	RRFConstant int

	// DefaultLimit is the result count when the caller passes n <= 0.
	DefaultLimit int

	// MaxLimit caps the requested result count.
	MaxLimit int
}

// DefaultConfig returns the standard retrieval configuration.
func DefaultConfig() Config {
	return Config{
		SemanticWeight: 0.5,
		KeywordWeight:  0.5,
		RRFConstant:    DefaultRRFConstant,
		DefaultLimit:   5,
		MaxLimit:       100,
	}
}

// Validate rejects configurations that cannot be recovered from
// mid-query. This is the one failure class that surfaces to the caller.
func (c Config) Validate() error {
	if c.SemanticWeight < 0 {
		return fmt.Errorf("semantic weight must be non-negative, got %v", c.SemanticWeight)
	}
	if c.KeywordWeight < 0 {
		return fmt.Errorf("keyword weight must be non-negative, got %v", c.KeywordWeight)
	}
	if c.RRFConstant <= 0 {
		return fmt.Errorf("rrf constant must be positive, got %d", c.RRFConstant)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max limit %d below default limit %d", c.MaxLimit, c.DefaultLimit)
	}
	return nil
}
