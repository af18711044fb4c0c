// Package segment provides structure-aware segmentation of statute text
// into citation-bearing chunks. Instead of naive token-window splitting,
// documents are cut along Section and Part boundaries so each chunk holds
// a complete legal provision together with its citation metadata.
package segment

// Chunk is the atomic retrievable and citeable unit of legal text.
// Chunks are immutable after segmentation; the only mutation is the
// construction-phase merge of an undersized chunk into its predecessor.
type Chunk struct {
	// ChunkID uniquely identifies the chunk within a document's output set.
	ChunkID string `json:"chunk_id"`

	// ActName is the short title of the act (e.g., "Contracts Act 1950").
	ActName string `json:"act_name"`

	// ActNumber is the act's number in the statute series.
	ActNumber int `json:"act_number"`

	// Part is the enclosing part label (e.g., "Part I - Preliminary"),
	// empty when the chunk is not under a part header.
	Part string `json:"part,omitempty"`

	// SectionNumber is the section identifier, possibly with a letter
	// suffix (e.g., "5A"). Empty for the whole-document fallback chunk.
	SectionNumber string `json:"section_number,omitempty"`

	// SectionTitle is the text following the section header on its line.
	SectionTitle string `json:"section_title,omitempty"`

	// Content is the chunk text. Never empty.
	Content string `json:"content"`

	// TokenCount is the token count of Content, 0 when counting failed.
	TokenCount int `json:"token_count"`

	// StartPosition is the character offset of the chunk in the source.
	StartPosition int `json:"start_position"`
}

// Metadata carries document-level citation fields supplied by the caller.
type Metadata struct {
	ActName   string
	ActNumber int
}

// TokenCounter counts tokens in text. Implementations may call out to a
// real tokenizer; the segmenter treats a counting failure as a count of
// zero rather than aborting.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// Default chunk size thresholds, matching the corpus the segmenter was
// tuned on (statute sections average well under 1000 cl100k tokens).
const (
	DefaultMaxTokens = 1000
	DefaultMinTokens = 50
)

// Options controls chunk sizing.
type Options struct {
	// MaxTokens is the upper bound before a section is split.
	MaxTokens int

	// MinTokens is the lower bound below which a chunk is merged into
	// its predecessor.
	MinTokens int
}

// DefaultOptions returns the standard sizing thresholds.
func DefaultOptions() Options {
	return Options{
		MaxTokens: DefaultMaxTokens,
		MinTokens: DefaultMinTokens,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.MinTokens < 0 {
		o.MinTokens = DefaultMinTokens
	}
	return o
}
