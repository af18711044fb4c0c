package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanunlaw/kanun/internal/segment"
	"github.com/kanunlaw/kanun/internal/store"
)

// fakeKeyword returns canned hits or an error.
type fakeKeyword struct {
	hits []store.KeywordResult
	err  error
}

func (f *fakeKeyword) Search(_ context.Context, _ string, n int) ([]store.KeywordResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > n {
		return f.hits[:n], nil
	}
	return f.hits, nil
}

func (f *fakeKeyword) Count() int { return len(f.hits) }

func (f *fakeKeyword) Close() error { return nil }

// fakeVector returns canned hits or an error.
type fakeVector struct {
	hits []store.VectorResult
	err  error
}

func (f *fakeVector) Add(_ context.Context, _ []string, _ []string) error { return nil }

func (f *fakeVector) Query(_ context.Context, _ string, n int) ([]store.VectorResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > n {
		return f.hits[:n], nil
	}
	return f.hits, nil
}

func (f *fakeVector) Count() int { return len(f.hits) }

func testChunks() []segment.Chunk {
	return []segment.Chunk{
		{ChunkID: "act_136_s10", ActName: "Contracts Act 1950", ActNumber: 136, SectionNumber: "10", SectionTitle: "What agreements are contracts", Content: "All agreements are contracts."},
		{ChunkID: "act_136_s14", ActName: "Contracts Act 1950", ActNumber: 136, SectionNumber: "14", SectionTitle: "Free consent defined", Content: "Consent is free when not caused by coercion."},
		{ChunkID: "act_136_s75", ActName: "Contracts Act 1950", ActNumber: 136, SectionNumber: "75", SectionTitle: "Compensation for breach", Content: "Reasonable compensation for breach."},
	}
}

func TestNewRetriever_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RRFConstant = 0

	_, err := NewRetriever(testChunks(), &fakeKeyword{}, &fakeVector{}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid retrieval config")
}

func TestNewRetriever_DuplicateCorpusID(t *testing.T) {
	chunks := testChunks()
	chunks = append(chunks, chunks[0])

	_, err := NewRetriever(chunks, &fakeKeyword{}, &fakeVector{}, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate chunk id")
}

func TestRetriever_Retrieve_Hybrid(t *testing.T) {
	keyword := &fakeKeyword{hits: []store.KeywordResult{
		{ChunkID: "act_136_s10", Score: 2.1},
		{ChunkID: "act_136_s14", Score: 1.3},
	}}
	vector := &fakeVector{hits: []store.VectorResult{
		{ChunkID: "act_136_s14", Distance: 0.1},
		{ChunkID: "act_136_s75", Distance: 0.4},
	}}

	r, err := NewRetriever(testChunks(), keyword, vector, DefaultConfig())
	require.NoError(t, err)

	resp, err := r.Retrieve(context.Background(), "free consent", 3, MethodHybrid)
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.False(t, resp.Partial())

	// s14 appears in both rankings, so fusion puts it first.
	assert.Equal(t, "act_136_s14", resp.Results[0].ChunkID)
	assert.InDelta(t, 0.5/61+0.5/62, resp.Results[0].Score, 1e-12)

	// Hydrated citation fields come from the corpus snapshot.
	assert.Equal(t, "Contracts Act 1950", resp.Results[0].ActName)
	assert.Equal(t, "Free consent defined", resp.Results[0].SectionTitle)
	assert.Equal(t, MethodHybrid, resp.Results[0].RetrievalMethod)

	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
}

func TestRetriever_Retrieve_SingleMethodKeepsNativeScores(t *testing.T) {
	keyword := &fakeKeyword{hits: []store.KeywordResult{
		{ChunkID: "act_136_s10", Score: 2.1},
		{ChunkID: "act_136_s14", Score: 1.3},
	}}

	r, err := NewRetriever(testChunks(), keyword, &fakeVector{}, DefaultConfig())
	require.NoError(t, err)

	resp, err := r.Retrieve(context.Background(), "contracts", 5, MethodKeyword)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2.1, resp.Results[0].Score)
	assert.Equal(t, MethodKeyword, resp.Results[0].RetrievalMethod)
}

func TestRetriever_Retrieve_SemanticSimilarityFromDistance(t *testing.T) {
	vector := &fakeVector{hits: []store.VectorResult{
		{ChunkID: "act_136_s14", Distance: 0.25},
	}}

	r, err := NewRetriever(testChunks(), &fakeKeyword{}, vector, DefaultConfig())
	require.NoError(t, err)

	resp, err := r.Retrieve(context.Background(), "consent", 5, MethodSemantic)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 0.75, resp.Results[0].Score, 1e-9)
}

func TestRetriever_Retrieve_DeterministicTieBreak(t *testing.T) {
	// Two ids with identical keyword scores must come back in ascending
	// id order, every time.
	keyword := &fakeKeyword{hits: []store.KeywordResult{
		{ChunkID: "act_136_s75", Score: 1.0},
		{ChunkID: "act_136_s10", Score: 1.0},
	}}

	r, err := NewRetriever(testChunks(), keyword, &fakeVector{}, DefaultConfig())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		resp, err := r.Retrieve(context.Background(), "contract", 5, MethodKeyword)
		require.NoError(t, err)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "act_136_s10", resp.Results[0].ChunkID)
		assert.Equal(t, "act_136_s75", resp.Results[1].ChunkID)
	}
}

func TestRetriever_Retrieve_StaleIDSkipped(t *testing.T) {
	keyword := &fakeKeyword{hits: []store.KeywordResult{
		{ChunkID: "act_999_gone", Score: 3.0},
		{ChunkID: "act_136_s10", Score: 1.0},
	}}

	r, err := NewRetriever(testChunks(), keyword, &fakeVector{}, DefaultConfig())
	require.NoError(t, err)

	resp, err := r.Retrieve(context.Background(), "contract", 5, MethodKeyword)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "act_136_s10", resp.Results[0].ChunkID)
}

func TestRetriever_Retrieve_PartialDegradation(t *testing.T) {
	keyword := &fakeKeyword{hits: []store.KeywordResult{
		{ChunkID: "act_136_s10", Score: 2.0},
	}}
	vector := &fakeVector{err: errors.New("embedder offline")}

	r, err := NewRetriever(testChunks(), keyword, vector, DefaultConfig())
	require.NoError(t, err)

	resp, err := r.Retrieve(context.Background(), "contract", 5, MethodHybrid)
	require.NoError(t, err)

	assert.True(t, resp.Partial())
	assert.Equal(t, []Method{MethodSemantic}, resp.Failed)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "act_136_s10", resp.Results[0].ChunkID)
}

func TestRetriever_Retrieve_BothModalitiesFailed(t *testing.T) {
	r, err := NewRetriever(testChunks(),
		&fakeKeyword{err: errors.New("index corrupt")},
		&fakeVector{err: errors.New("embedder offline")},
		DefaultConfig())
	require.NoError(t, err)

	resp, err := r.Retrieve(context.Background(), "contract", 5, MethodHybrid)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.ElementsMatch(t, []Method{MethodSemantic, MethodKeyword}, resp.Failed)
}

func TestRetriever_Retrieve_NilIndicesUnavailable(t *testing.T) {
	r, err := NewRetriever(testChunks(), nil, nil, DefaultConfig())
	require.NoError(t, err)

	resp, err := r.Retrieve(context.Background(), "contract", 5, MethodHybrid)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.ElementsMatch(t, []Method{MethodSemantic, MethodKeyword}, resp.Failed)
}

func TestRetriever_Retrieve_LimitHandling(t *testing.T) {
	keyword := &fakeKeyword{hits: []store.KeywordResult{
		{ChunkID: "act_136_s10", Score: 3.0},
		{ChunkID: "act_136_s14", Score: 2.0},
		{ChunkID: "act_136_s75", Score: 1.0},
	}}

	cfg := DefaultConfig()
	cfg.DefaultLimit = 2
	r, err := NewRetriever(testChunks(), keyword, &fakeVector{}, cfg)
	require.NoError(t, err)

	// n <= 0 falls back to the configured default.
	resp, err := r.Retrieve(context.Background(), "contract", 0, MethodKeyword)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)

	// n above the cap is clamped.
	resp, err = r.Retrieve(context.Background(), "contract", 1000, MethodKeyword)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)

	resp, err = r.Retrieve(context.Background(), "contract", 1, MethodKeyword)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestRetriever_Retrieve_EmptyQuery(t *testing.T) {
	r, err := NewRetriever(testChunks(), &fakeKeyword{}, &fakeVector{}, DefaultConfig())
	require.NoError(t, err)

	resp, err := r.Retrieve(context.Background(), "   ", 5, MethodHybrid)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.Failed)
}

func TestRetriever_Retrieve_UnknownMethod(t *testing.T) {
	r, err := NewRetriever(testChunks(), &fakeKeyword{}, &fakeVector{}, DefaultConfig())
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "contract", 5, Method("fuzzy"))
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"negative semantic weight", func(c *Config) { c.SemanticWeight = -0.1 }, true},
		{"negative keyword weight", func(c *Config) { c.KeywordWeight = -1 }, true},
		{"zero rrf constant", func(c *Config) { c.RRFConstant = 0 }, true},
		{"zero default limit", func(c *Config) { c.DefaultLimit = 0 }, true},
		{"max below default", func(c *Config) { c.MaxLimit = 2 }, true},
		{"zero weights allowed", func(c *Config) { c.SemanticWeight = 0; c.KeywordWeight = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
