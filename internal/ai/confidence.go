package ai

import (
	"math/rand/v2"

	"github.com/polypost/polypost-server/internal/publish"
)

// Confidence scores a polish result. The top band carries random jitter
// drawn from rng so that it does not read as a precise measurement.
func Confidence(original, generated string, rng *rand.Rand) int {
	if generated == "" {
		return 0
	}

	in, out := publish.Length(original), publish.Length(generated)
	if in == 0 {
		return 70
	}
	ratio := float64(out) / float64(in)
	if ratio < 0.3 || ratio > 3.0 {
		return 70
	}

	if out > publish.MaxPostLength {
		return 75
	}

	return 90 + rng.IntN(8)
}
