// Package refno issues human-readable reference numbers for service requests.
//
// A reference number is <prefix><epoch-millis><suffix>, where suffix is drawn
// from [A-Z0-9]. Uniqueness is probabilistic; persistence enforces it and
// callers retry with a fresh number on conflict.
package refno

import (
	"crypto/rand"
	"io"
	"strconv"
	"time"
)

const (
	alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultLength = 6
)

// Generator produces reference numbers.
type Generator interface {
	Generate(prefix string, now time.Time) (string, error)
}

// RandomGenerator draws the suffix from a cryptographic source.
type RandomGenerator struct {
	length int
	source io.Reader
}

// New returns a generator with the default suffix length.
func New() *RandomGenerator {
	return &RandomGenerator{length: DefaultLength, source: rand.Reader}
}

// NewWithSource is used by tests to make suffixes deterministic.
func NewWithSource(length int, source io.Reader) *RandomGenerator {
	if length <= 0 {
		length = DefaultLength
	}
	return &RandomGenerator{length: length, source: source}
}

// Generate implements Generator.
func (g *RandomGenerator) Generate(prefix string, now time.Time) (string, error) {
	suffix, err := g.suffix()
	if err != nil {
		return "", err
	}
	return prefix + strconv.FormatInt(now.UnixMilli(), 10) + suffix, nil
}

func (g *RandomGenerator) suffix() (string, error) {
	out := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)
	// 252 is the largest multiple of 36 below 256; rejecting above it keeps the draw uniform.
	const limit = 252
	for len(out) < g.length {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == g.length {
				break
			}
		}
	}
	return string(out), nil
}
