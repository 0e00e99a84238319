package shorten_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdusco/shortr/internal"
	"github.com/abdusco/shortr/internal/db"
	"github.com/abdusco/shortr/internal/repo"
	"github.com/abdusco/shortr/internal/shorten"
)

func newTestService(t *testing.T) *shorten.Service {
	t.Helper()

	dbInstance, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbInstance.Close() })

	return shorten.NewService(repo.NewLinksRepo(dbInstance))
}

func TestShorten_GeneratesAlias(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	link, err := svc.Shorten(ctx, "https://example.com/long", "")
	require.NoError(t, err)

	assert.Len(t, link.ShortID, shorten.AliasLength)
	assert.Equal(t, "https://example.com/long", link.LongURL)
	assert.EqualValues(t, 0, link.Clicks)
	assert.False(t, link.CreatedAt.IsZero())
}

func TestShorten_IdempotentForSameURL(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Shorten(ctx, "https://example.com/long", "")
	require.NoError(t, err)

	second, err := svc.Shorten(ctx, "https://example.com/long", "")
	require.NoError(t, err)

	assert.Equal(t, first.ShortID, second.ShortID)
	assert.Equal(t, first.ID, second.ID)
}

func TestShorten_InvalidURL(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, raw := range []string{"", "example.com", "ftp://example.com", "http://", "not a url"} {
		_, err := svc.Shorten(ctx, raw, "")
		assert.ErrorIs(t, err, internal.ErrInvalidURL, "url %q", raw)
	}
}

func TestShorten_CustomAlias(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	link, err := svc.Shorten(ctx, "https://example.com/a", "my-alias")
	require.NoError(t, err)
	assert.Equal(t, "my-alias", link.ShortID)

	// Same alias and same URL is idempotent.
	again, err := svc.Shorten(ctx, "https://example.com/a", "my-alias")
	require.NoError(t, err)
	assert.Equal(t, link.ID, again.ID)

	// Same alias pointing elsewhere conflicts.
	_, err = svc.Shorten(ctx, "https://example.com/b", "my-alias")
	assert.ErrorIs(t, err, internal.ErrAliasConflict)
}

func TestShorten_RejectsBadAliases(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, alias := range []string{"ab", "has space", "api", "ANALYTICS", "generate"} {
		_, err := svc.Shorten(ctx, "https://example.com", alias)
		assert.ErrorIs(t, err, internal.ErrInvalidAlias, "alias %q", alias)
	}
}

func TestGenerateFree(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	alias, err := svc.GenerateFree(ctx)
	require.NoError(t, err)
	assert.Len(t, alias, shorten.AliasLength)

	// Probing must not have created a mapping.
	_, err = svc.Lookup(ctx, alias)
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestLookup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	link, err := svc.Shorten(ctx, "https://example.com/long", "known")
	require.NoError(t, err)

	for _, input := range []string{"known", "/known", "https://sho.rt/known", "http://sho.rt/known"} {
		got, err := svc.Lookup(ctx, input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, link.ID, got.ID)
	}

	_, err = svc.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestExtractShortID(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"abc1234", "abc1234"},
		{"/abc1234", "abc1234"},
		{"https://sho.rt/abc1234", "abc1234"},
		{"http://sho.rt/abc1234", "abc1234"},
	}
	for _, tc := range cases {
		got, err := shorten.ExtractShortID(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got)
	}

	for _, input := range []string{"", "   ", "/", "https://sho.rt/", "https://sho.rt"} {
		_, err := shorten.ExtractShortID(input)
		assert.ErrorIs(t, err, internal.ErrInvalidInput, "input %q", input)
	}
}
