package segment

import (
	"regexp"
	"sort"
	"strings"
)

// Regex patterns for statute structure. Both English and Malay header
// forms appear in the corpus (Section/Seksyen, PART/BAHAGIAN).
var (
	// Matches "Section 5", "Seksyen 12A", or a bare "7." at line start,
	// capturing the section number and the rest of the line as title.
	sectionPattern = regexp.MustCompile(`(?im)^(?:(?:Section|Seksyen)[ \t]+(\d+[A-Za-z]*)|(\d+[A-Za-z]*)\.)[ \t]*(.*)$`)

	// Matches "PART I - PRELIMINARY", "BAHAGIAN 2", etc.
	partPattern = regexp.MustCompile(`(?im)^(?:PART|BAHAGIAN)[ \t]+([IVXLCDM]+|\d+)\b[ \t\-–—]*(.*)$`)

	// Matches subsection markers like "(1)" or "(2a)" at line start.
	subsectionPattern = regexp.MustCompile(`(?m)^[ \t]*\((\d+[a-z]?)\)`)
)

// sectionSpan is a detected section header with its source range.
// The span runs from the header's own start to the next header's start.
type sectionSpan struct {
	number string
	title  string
	start  int
	end    int
}

// findSections locates every section header occurrence and assigns each
// a span ending at the next header (or the document end for the last).
func findSections(text string) []sectionSpan {
	matches := sectionPattern.FindAllStringSubmatchIndex(text, -1)

	spans := make([]sectionSpan, 0, len(matches))
	for _, m := range matches {
		number := groupText(text, m, 1)
		if number == "" {
			number = groupText(text, m, 2)
		}
		if number == "" {
			continue
		}
		spans = append(spans, sectionSpan{
			number: number,
			title:  strings.TrimSpace(groupText(text, m, 3)),
			start:  m[0],
		})
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	for i := range spans {
		if i+1 < len(spans) {
			spans[i].end = spans[i+1].start
		} else {
			spans[i].end = len(text)
		}
	}

	return spans
}

// currentPart returns the label of the nearest part header preceding pos,
// formatted as "Part <numeral>" or "Part <numeral> - <title>". Empty when
// no part header precedes the position.
func currentPart(text string, pos int) string {
	var part string
	for _, m := range partPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > pos {
			break
		}
		numeral := groupText(text, m, 1)
		title := strings.TrimSpace(groupText(text, m, 2))
		part = "Part " + numeral
		if title != "" {
			part += " - " + title
		}
	}
	return part
}

// groupText extracts capture group n from a SubmatchIndex result.
func groupText(text string, m []int, n int) string {
	lo, hi := m[2*n], m[2*n+1]
	if lo < 0 || hi < 0 {
		return ""
	}
	return text[lo:hi]
}
