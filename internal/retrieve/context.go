package retrieve

import (
	"fmt"
	"strings"
)

// FormatContext renders results as labeled source blocks for downstream
// prompt assembly. Each block opens with a citation header and the blocks
// are separated by a horizontal rule.
func FormatContext(results []Result) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(results))
	for i, res := range results {
		var header strings.Builder
		fmt.Fprintf(&header, "[Source %d: %s", i+1, res.ActName)
		if res.SectionNumber != "" {
			fmt.Fprintf(&header, ", Section %s", res.SectionNumber)
			if res.SectionTitle != "" {
				fmt.Fprintf(&header, " - %s", res.SectionTitle)
			}
		}
		header.WriteString("]")

		blocks = append(blocks, header.String()+"\n"+res.Content)
	}

	return strings.Join(blocks, "\n\n---\n\n")
}
