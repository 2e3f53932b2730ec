// Package vector holds the similarity math shared by the query engine.
package vector

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1].
// A zero-norm vector has no meaningful direction; similarity is defined
// as 0 in that case to avoid division by zero.
// Both vectors must have the same length; the caller checks dimensions.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
