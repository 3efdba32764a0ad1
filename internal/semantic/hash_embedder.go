package semantic

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder projects text into a fixed-dimension vector via feature
// hashing: each lowercase token is hashed into a bucket and the bucket
// is incremented, then the vector is L2-normalized so cosine similarity
// reflects token overlap. It has no notion of semantics beyond shared
// vocabulary, but it is deterministic, dependency-free, and enough to
// drive Qdrant's cosine search with real (non-zero, non-random) vectors
// in the absence of a configured embedding-model client.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns a HashEmbedder with the given vector width.
func NewHashEmbedder(dim int) *HashEmbedder {
	return &HashEmbedder{Dim: dim}
}

// Embed tokenizes text on non-alphanumeric boundaries and hashes each
// token into the output vector.
func (h *HashEmbedder) Embed(text string) ([]float32, error) {
	vec := make([]float32, h.Dim)
	for _, token := range tokenize(text) {
		idx := bucketFor(token, h.Dim)
		vec[idx] += 1
	}
	normalize(vec)
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}

func bucketFor(token string, dim int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(dim))
}

func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := math.Sqrt(sumSquares)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
}
