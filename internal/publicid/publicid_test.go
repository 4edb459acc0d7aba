package publicid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShape(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := Generate()
		require.Len(t, id, Length)
		for _, r := range id {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected rune %q in %s", r, id)
		}
		assert.True(t, Valid(id))
	}
}

func TestGenerateIsUniformEnough(t *testing.T) {
	const draws = 20000 // 240k characters
	counts := make(map[rune]int, len(Alphabet))
	for i := 0; i < draws; i++ {
		for _, r := range Generate() {
			counts[r]++
		}
	}
	require.Len(t, counts, len(Alphabet), "every character should appear")

	total := float64(draws * Length)
	expected := total / float64(len(Alphabet))
	var chi2 float64
	for _, r := range Alphabet {
		d := float64(counts[r]) - expected
		chi2 += d * d / expected
	}
	// 35 degrees of freedom; critical value at p=0.001 is ~66.6
	assert.Less(t, chi2, 66.6, "chi-square %.2f rejects uniformity", chi2)
}

func TestGenerateCallsAreIndependent(t *testing.T) {
	seen := make(map[string]struct{}, 5000)
	for i := 0; i < 5000; i++ {
		seen[Generate()] = struct{}{}
	}
	assert.Len(t, seen, 5000)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("ABC123XYZ789"))
	assert.False(t, Valid("abc123xyz789"))
	assert.False(t, Valid("ABC123"))
	assert.False(t, Valid("ABC123XYZ78!"))
	assert.False(t, Valid(""))
}
