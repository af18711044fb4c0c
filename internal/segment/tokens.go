package segment

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter counts tokens with a tiktoken encoding, matching the
// counts the embedding pipeline sees.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// DefaultEncoding is the cl100k_base BPE used by the ingestion pipeline.
const DefaultEncoding = "cl100k_base"

// NewTiktokenCounter loads the named encoding ("" selects cl100k_base).
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %s: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

// CountTokens returns the BPE token count of text.
func (c *TiktokenCounter) CountTokens(text string) (int, error) {
	return len(c.enc.Encode(text, []string{"all"}, nil)), nil
}

// HeuristicCounter approximates tokens as whitespace-separated words.
// Used in tests and when the BPE tables are unavailable offline.
type HeuristicCounter struct{}

// CountTokens returns the number of whitespace-separated fields.
func (HeuristicCounter) CountTokens(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

var (
	_ TokenCounter = (*TiktokenCounter)(nil)
	_ TokenCounter = HeuristicCounter{}
)
