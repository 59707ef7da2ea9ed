package refno

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referencePattern = regexp.MustCompile(`^(BR|DD|IP|BS)\d{13}[A-Z0-9]{6}$`)

func TestGenerateFormat(t *testing.T) {
	gen := New()
	now := time.UnixMilli(1700000000000)
	for _, prefix := range []string{"BR", "DD", "IP", "BS"} {
		ref, err := gen.Generate(prefix, now)
		require.NoError(t, err)
		assert.Regexp(t, referencePattern, ref)
		assert.Contains(t, ref, "1700000000000")
	}
}

func TestGenerateDeterministicSource(t *testing.T) {
	// 0..5 map to A..F; 255 is rejected.
	src := bytes.NewReader([]byte{0, 255, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})
	gen := NewWithSource(6, src)
	ref, err := gen.Generate("DD", time.UnixMilli(1700000000000))
	require.NoError(t, err)
	assert.Equal(t, "DD1700000000000ABCDEF", ref)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerateSourceFailure(t *testing.T) {
	_, err := NewWithSource(6, failingReader{}).Generate("BR", time.Now())
	assert.Error(t, err)
}
