package chunk

import "math"

// buildProfile computes the adjacent-pair cosine similarity profile:
// profile[i] compares sentence i with sentence i+1, so its length is
// len(embeddings)-1. The profile is built once per document and treated as
// read-only; domain optimization works on a derived copy.
func buildProfile(embeddings [][]float32) []float32 {
	if len(embeddings) < 2 {
		return nil
	}
	profile := make([]float32, len(embeddings)-1)
	for i := 0; i < len(embeddings)-1; i++ {
		profile[i] = cosineSim(embeddings[i], embeddings[i+1])
	}
	return profile
}

// cosineSim computes cosine similarity between two vectors.
func cosineSim(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}
