package shorten

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlias_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		alias := NewAlias()
		require.Len(t, alias, AliasLength)
		for _, r := range alias {
			assert.Contains(t, Alphabet(), string(r))
		}
	}
}

func TestNewAlias_NoCollisionsInSmallSample(t *testing.T) {
	// Statistical, not a hard guarantee: 10k draws out of 62^7 should not
	// collide in practice.
	seen := make(map[string]struct{}, 10_000)
	for i := 0; i < 10_000; i++ {
		alias := NewAlias()
		_, dup := seen[alias]
		require.False(t, dup, "unexpected collision on %q", alias)
		seen[alias] = struct{}{}
	}
}

func TestValidAlias(t *testing.T) {
	valid := []string{"abc", "my-link", "my_link", "ABC123", strings.Repeat("a", 64)}
	for _, s := range valid {
		assert.True(t, ValidAlias(s), "expected %q to be valid", s)
	}

	invalid := []string{"", "ab", strings.Repeat("a", 65), "with space", "with/slash", "h€llo", "dot.dot"}
	for _, s := range invalid {
		assert.False(t, ValidAlias(s), "expected %q to be invalid", s)
	}
}

func TestReserved(t *testing.T) {
	for _, s := range []string{"api", "info", "analytics", "generate", "resolve", "health", "favicon.ico"} {
		assert.True(t, Reserved(s))
	}

	// Case-insensitive
	assert.True(t, Reserved("API"))
	assert.True(t, Reserved("Analytics"))

	assert.False(t, Reserved("apis"))
	assert.False(t, Reserved("mylink"))
}
