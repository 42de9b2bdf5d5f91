package generate

import "strings"

// Rand is the randomness source consumed by the sampler.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	// IntN returns a uniform int in [0, n). n is always > 0.
	IntN(n int) int
}

// Sampler picks random truncation points for phrases.
type Sampler struct {
	rng       Rand
	minPrefix int
}

// NewSampler creates a sampler that keeps at least minPrefix words.
func NewSampler(rng Rand, minPrefix int) *Sampler {
	if minPrefix < 1 {
		minPrefix = 1
	}
	return &Sampler{rng: rng, minPrefix: minPrefix}
}

// Cut returns a prefix length drawn uniformly from [minPrefix, n-1).
// At least one trailing word is always dropped. If the range is empty
// the minimum prefix (capped at n) is returned.
func (s *Sampler) Cut(n int) int {
	hi := n - 1
	if hi <= s.minPrefix {
		return min(s.minPrefix, n)
	}
	return s.minPrefix + s.rng.IntN(hi-s.minPrefix)
}

// Truncate returns the space-joined random prefix of words used as a prompt.
func (s *Sampler) Truncate(words []string) string {
	return strings.Join(words[:s.Cut(len(words))], " ")
}
