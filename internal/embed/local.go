package embed

import (
	"context"
	"crypto/sha256"
	"math"
	"strings"
	"unicode"
)

const localDimensions = 64

// Local is a deterministic, offline embedding provider. Each token
// hashes into a fixed bucket, so texts sharing identifiers land near
// each other in vector space. It trades quality for having no network
// or model dependency.
type Local struct {
	model string
}

func NewLocal(model string) *Local {
	if model == "" {
		model = "local-hash-64"
	}
	return &Local{model: model}
}

func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, localDimensions)

	for _, token := range tokenize(text) {
		sum := sha256.Sum256([]byte(token))
		// Spread each token over four buckets to soften collisions.
		for i := 0; i < 4; i++ {
			bucket := int(sum[i*2]) % localDimensions
			sign := float32(1)
			if sum[i*2+1]%2 == 1 {
				sign = -1
			}
			vec[bucket] += sign
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func (l *Local) Model() string {
	return l.model
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
