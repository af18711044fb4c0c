package segment

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNilCounter is returned when a Segmenter is constructed without a
// token counter.
var ErrNilCounter = errors.New("nil token counter")

// Segmenter converts cleaned statute text into an ordered sequence of
// chunks. It is stateless apart from the injected token counter and safe
// for concurrent use.
type Segmenter struct {
	counter TokenCounter
}

// New creates a Segmenter using the given token counter.
func New(counter TokenCounter) (*Segmenter, error) {
	if counter == nil {
		return nil, ErrNilCounter
	}
	return &Segmenter{counter: counter}, nil
}

// Segment splits document text into chunks along section boundaries.
//
// Chunks come out ordered by StartPosition with unique ChunkIDs. When no
// section headers are detected the whole document becomes a single chunk
// (degraded mode, logged as a warning). Text before the first section
// becomes a preamble chunk if it meets the minimum token threshold.
// Sections above MaxTokens are split on subsection markers, falling back
// to paragraph boundaries; pieces below MinTokens are merged into the
// previous chunk.
func (s *Segmenter) Segment(text string, meta Metadata, opts Options) []Chunk {
	opts = opts.withDefaults()

	if strings.TrimSpace(text) == "" {
		return nil
	}

	sections := findSections(text)

	if len(sections) == 0 {
		slog.Warn("no_sections_found",
			slog.String("act", meta.ActName),
			slog.Int("act_number", meta.ActNumber))
		return []Chunk{{
			ChunkID:       fmt.Sprintf("act_%d_full", meta.ActNumber),
			ActName:       meta.ActName,
			ActNumber:     meta.ActNumber,
			Content:       text,
			TokenCount:    s.countTokens(text),
			StartPosition: 0,
		}}
	}

	var chunks []Chunk

	// Preamble before the first detected section.
	if sections[0].start > 0 {
		preamble := strings.TrimSpace(text[:sections[0].start])
		if preamble != "" && s.countTokens(preamble) >= opts.MinTokens {
			chunks = append(chunks, Chunk{
				ChunkID:       fmt.Sprintf("act_%d_preamble", meta.ActNumber),
				ActName:       meta.ActName,
				ActNumber:     meta.ActNumber,
				Part:          currentPart(text, 0),
				SectionNumber: "Preamble",
				SectionTitle:  "Preliminary Provisions",
				Content:       preamble,
				TokenCount:    s.countTokens(preamble),
				StartPosition: 0,
			})
		}
	}

	// seenIDs tracks collision counts per base id. Repeated section
	// numbering across non-adjacent spans (e.g., TOC then body) gets a
	// _dup suffix instead of silently overwriting.
	seenIDs := make(map[string]int)

	for _, sec := range sections {
		sectionText := strings.TrimSpace(text[sec.start:sec.end])
		part := currentPart(text, sec.start)

		pieces := s.splitLargeSection(sectionText, opts.MaxTokens)

		searchFrom := 0
		for i, piece := range pieces {
			startPos := sec.start
			if idx := strings.Index(sectionText[searchFrom:], piece); idx >= 0 {
				startPos = sec.start + searchFrom + idx
				searchFrom += idx + len(piece)
			}

			if s.countTokens(piece) < opts.MinTokens && len(chunks) > 0 {
				// Merge undersized piece into the previous chunk.
				prev := &chunks[len(chunks)-1]
				prev.Content = prev.Content + "\n\n" + piece
				prev.TokenCount = s.countTokens(prev.Content)
				continue
			}

			baseID := fmt.Sprintf("act_%d_s%s", meta.ActNumber, sec.number)
			if len(pieces) > 1 {
				baseID = fmt.Sprintf("%s_%d", baseID, i+1)
			}

			chunkID := baseID
			if n, ok := seenIDs[baseID]; ok {
				seenIDs[baseID] = n + 1
				chunkID = fmt.Sprintf("%s_dup%d", baseID, n+1)
			} else {
				seenIDs[baseID] = 0
			}

			chunks = append(chunks, Chunk{
				ChunkID:       chunkID,
				ActName:       meta.ActName,
				ActNumber:     meta.ActNumber,
				Part:          part,
				SectionNumber: sec.number,
				SectionTitle:  sec.title,
				Content:       piece,
				TokenCount:    s.countTokens(piece),
				StartPosition: startPos,
			})
		}
	}

	return chunks
}

// splitLargeSection splits a section exceeding maxTokens into smaller
// pieces, preferring subsection markers and falling back to paragraph
// boundaries. Pieces accumulate until the running token count would
// exceed maxTokens, then flush.
func (s *Segmenter) splitLargeSection(sectionText string, maxTokens int) []string {
	if s.countTokens(sectionText) <= maxTokens {
		return []string{sectionText}
	}

	marks := subsectionPattern.FindAllStringIndex(sectionText, -1)
	if len(marks) == 0 {
		return s.splitByParagraphs(sectionText, maxTokens)
	}

	var pieces []string
	current := sectionText[:marks[0][0]]

	for i, m := range marks {
		var sub string
		if i+1 < len(marks) {
			sub = sectionText[m[0]:marks[i+1][0]]
		} else {
			sub = sectionText[m[0]:]
		}

		test := current + sub
		if s.countTokens(test) > maxTokens && strings.TrimSpace(current) != "" {
			pieces = append(pieces, strings.TrimSpace(current))
			current = sub
		} else {
			current = test
		}
	}

	if strings.TrimSpace(current) != "" {
		pieces = append(pieces, strings.TrimSpace(current))
	}

	if len(pieces) == 0 {
		return []string{sectionText}
	}
	return pieces
}

// splitByParagraphs splits on blank lines under the same
// accumulate-and-flush policy.
func (s *Segmenter) splitByParagraphs(sectionText string, maxTokens int) []string {
	paragraphs := strings.Split(sectionText, "\n\n")

	var pieces []string
	current := ""

	for _, para := range paragraphs {
		test := para
		if current != "" {
			test = current + "\n\n" + para
		}
		if s.countTokens(test) > maxTokens && current != "" {
			pieces = append(pieces, strings.TrimSpace(current))
			current = para
		} else {
			current = test
		}
	}

	if strings.TrimSpace(current) != "" {
		pieces = append(pieces, strings.TrimSpace(current))
	}

	if len(pieces) == 0 {
		return []string{sectionText}
	}
	return pieces
}

// countTokens delegates to the injected counter, degrading to zero on
// failure so a tokenizer outage never aborts segmentation.
func (s *Segmenter) countTokens(text string) int {
	n, err := s.counter.CountTokens(text)
	if err != nil {
		slog.Warn("token_count_failed", slog.String("error", err.Error()))
		return 0
	}
	return n
}
