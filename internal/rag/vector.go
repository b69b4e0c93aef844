package rag

import (
	"math"
	"sort"
)

// cosine returns the cosine similarity of two vectors, 0 when either is
// degenerate or the dimensions disagree.
func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// centroid averages a set of vectors. Vectors with mismatched dimensions are
// skipped.
func centroid(vectors [][]float64) []float64 {
	var dim int
	for _, v := range vectors {
		if len(v) > 0 {
			dim = len(v)
			break
		}
	}
	if dim == 0 {
		return nil
	}

	sum := make([]float64, dim)
	count := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i := range v {
			sum[i] += v[i]
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= float64(count)
	}
	return sum
}

// rankBySimilarity returns the indexes of candidates ordered by descending
// cosine similarity to the reference vector. Ties keep input order.
func rankBySimilarity(reference []float64, candidates [][]float64) []int {
	idx := make([]int, len(candidates))
	for i := range idx {
		idx[i] = i
	}
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = cosine(reference, c)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}
