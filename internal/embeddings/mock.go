package embeddings

import (
	"context"
	"unicode/utf16"
)

// lcgMultiplier and lcgModulus are the classic minimal-standard generator
// constants. They are part of the on-disk fixture contract: the same text
// must produce the same vector in every build.
const (
	lcgMultiplier = 16807
	lcgModulus    = 2147483647
)

// MockEmbedder computes a reproducible pseudo-random unit vector from a hash
// of the input text. It needs no network, no model, and no credentials, which
// makes it both the test backend and the final fallback for every other
// backend's failure path.
type MockEmbedder struct {
	dimension int
}

// NewMockEmbedder creates a deterministic mock embedder of the given
// dimension.
func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 1536
	}
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Name() string {
	return "mock"
}

func (e *MockEmbedder) Dimensions() int {
	return e.dimension
}

func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := textHash(text)

	vec := make([]float32, e.dimension)
	for i := range vec {
		seed := (h + int64(i)) * lcgMultiplier % lcgModulus
		// Map [0, modulus) to [-1, 1).
		vec[i] = float32(float64(seed)/lcgModulus*2 - 1)
	}

	Normalize(vec)
	if isZero(vec) {
		// Degenerate input (possible only at tiny dimensions); keep the
		// unit-norm guarantee.
		vec[0] = 1
	}
	return vec, nil
}

// textHash is a rolling 32-bit hash over the UTF-16 code units of text,
// returned as its absolute value. UTF-16 units keep fixtures identical to
// charCodeAt-based producers for all BMP text.
func textHash(text string) int64 {
	var h int32
	for _, u := range utf16.Encode([]rune(text)) {
		h = h*31 + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
