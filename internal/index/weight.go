package index

import "math"

// TermFrequency is the log-scaled term frequency 1 + ln(count).
func TermFrequency(count int) float64 {
	if count <= 0 {
		return 0
	}
	return 1 + math.Log(float64(count))
}

// InverseDocumentFrequency returns the smoothed idf ln((1+n)/(1+df)) + 1.
// It stays positive for every df <= n, so weights and cosine scores are never negative.
func InverseDocumentFrequency(n, df int) float64 {
	return math.Log(float64(1+n)/float64(1+df)) + 1
}

// Normalize scales vec to unit L2 length in place and returns its original norm.
func Normalize(vec map[string]float64) float64 {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return 0
	}
	for term, v := range vec {
		vec[term] = v / norm
	}
	return norm
}

// Dot computes the dot product of two sparse vectors.
func Dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	sum := 0.0
	for term, v := range a {
		sum += v * b[term]
	}
	return sum
}
