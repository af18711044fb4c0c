package retrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatContext(t *testing.T) {
	results := []Result{
		{
			ActName:       "Contracts Act 1950",
			SectionNumber: "10",
			SectionTitle:  "What agreements are contracts",
			Content:       "All agreements are contracts if made by free consent.",
		},
		{
			ActName:       "Penal Code",
			SectionNumber: "302",
			Content:       "Punishment for murder.",
		},
	}

	got := FormatContext(results)

	want := "[Source 1: Contracts Act 1950, Section 10 - What agreements are contracts]\n" +
		"All agreements are contracts if made by free consent.\n\n---\n\n" +
		"[Source 2: Penal Code, Section 302]\n" +
		"Punishment for murder."
	assert.Equal(t, want, got)
}

func TestFormatContext_NoSectionNumber(t *testing.T) {
	results := []Result{{
		ActName: "Fees Order",
		Content: "A schedule of fees.",
	}}

	assert.Equal(t, "[Source 1: Fees Order]\nA schedule of fees.", FormatContext(results))
}

func TestFormatContext_Empty(t *testing.T) {
	assert.Equal(t, "", FormatContext(nil))
}
