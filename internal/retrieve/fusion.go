package retrieve

// ReciprocalRankFusion combines two ranked id lists into one score map.
//
// Each list is walked in rank order starting at rank 1, adding
// weight/(k+rank) to the id's running score. An id absent from a list
// receives no contribution from it; an id in both lists receives the sum.
// Callers truncate the inputs (typically to 2×N) before fusion and sort
// the returned map themselves.
func ReciprocalRankFusion(semanticIDs, keywordIDs []string, semanticWeight, keywordWeight float64, k int) map[string]float64 {
	scores := make(map[string]float64, len(semanticIDs)+len(keywordIDs))

	for i, id := range semanticIDs {
		scores[id] += semanticWeight / float64(k+i+1)
	}
	for i, id := range keywordIDs {
		scores[id] += keywordWeight / float64(k+i+1)
	}

	return scores
}
