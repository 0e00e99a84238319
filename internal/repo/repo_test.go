package repo_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdusco/shortr/internal"
	"github.com/abdusco/shortr/internal/db"
	"github.com/abdusco/shortr/internal/repo"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbInstance, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbInstance.Close() })

	return dbInstance
}

func strPtr(s string) *string { return &s }

func TestLinksRepo_CreateAndGet(t *testing.T) {
	dbInstance := newTestDB(t)
	links := repo.NewLinksRepo(dbInstance)
	ctx := context.Background()

	created, err := links.Create(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.EqualValues(t, 0, created.Clicks)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := links.GetByShortID(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "https://example.com", got.LongURL)

	byURL, err := links.GetByLongURL(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byURL.ID)

	_, err = links.GetByShortID(ctx, "missing")
	assert.ErrorIs(t, err, internal.ErrNotFound)

	_, err = links.GetByLongURL(ctx, "https://example.com/other")
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestLinksRepo_DuplicateShortID(t *testing.T) {
	dbInstance := newTestDB(t)
	links := repo.NewLinksRepo(dbInstance)
	ctx := context.Background()

	_, err := links.Create(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)

	_, err = links.Create(ctx, "abc1234", "https://example.com/other")
	assert.ErrorIs(t, err, internal.ErrAliasConflict)
}

func TestLinksRepo_IncrementClicks(t *testing.T) {
	dbInstance := newTestDB(t)
	links := repo.NewLinksRepo(dbInstance)
	ctx := context.Background()

	_, err := links.Create(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, links.IncrementClicks(ctx, "abc1234"))
	}

	got, err := links.GetByShortID(ctx, "abc1234")
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Clicks)
}

func TestLinksRepo_DeleteCascadesVisits(t *testing.T) {
	dbInstance := newTestDB(t)
	links := repo.NewLinksRepo(dbInstance)
	visits := repo.NewVisitsRepo(dbInstance)
	ctx := context.Background()

	_, err := links.Create(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, visits.Create(ctx, internal.Visit{
			ShortID: "abc1234",
			IP:      "192.0.2.1",
			Device:  "desktop",
		}))
	}

	require.NoError(t, links.Delete(ctx, "abc1234"))

	var count int
	require.NoError(t, dbInstance.QueryRowContext(ctx, "SELECT COUNT(*) FROM analytics").Scan(&count))
	assert.Zero(t, count, "cascade should remove visit rows")

	assert.ErrorIs(t, links.Delete(ctx, "abc1234"), internal.ErrNotFound)
}

func TestVisitsRepo_Aggregates(t *testing.T) {
	dbInstance := newTestDB(t)
	links := repo.NewLinksRepo(dbInstance)
	visits := repo.NewVisitsRepo(dbInstance)
	ctx := context.Background()

	_, err := links.Create(ctx, "abc1234", "https://example.com")
	require.NoError(t, err)

	seed := []internal.Visit{
		{ShortID: "abc1234", IP: "192.0.2.1", Country: strPtr("US"), Device: "desktop", Browser: "Chrome", Referrer: strPtr("https://a.example")},
		{ShortID: "abc1234", IP: "192.0.2.2", Country: strPtr("US"), Device: "mobile", Browser: "Safari", Referrer: strPtr("https://a.example")},
		{ShortID: "abc1234", IP: "192.0.2.3", Country: strPtr("DE"), Device: "desktop", Browser: "Firefox"},
		{ShortID: "abc1234", IP: "192.0.2.4", Device: "desktop", Browser: ""},
	}
	for _, v := range seed {
		require.NoError(t, visits.Create(ctx, v))
	}

	byCountry, err := visits.CountByCountry(ctx, "abc1234", 10)
	require.NoError(t, err)
	require.NotEmpty(t, byCountry)
	// US leads with two visits; the nil-country visit groups under null.
	require.NotNil(t, byCountry[0].Country)
	assert.Equal(t, "US", *byCountry[0].Country)
	assert.EqualValues(t, 2, byCountry[0].Count)
	assert.Len(t, byCountry, 3)

	byDevice, err := visits.CountByDevice(ctx, "abc1234")
	require.NoError(t, err)
	require.Len(t, byDevice, 2)
	assert.Equal(t, "desktop", byDevice[0].Device)
	assert.EqualValues(t, 3, byDevice[0].Count)
	assert.Equal(t, "mobile", byDevice[1].Device)

	// Visits without a referrer are not counted.
	byReferrer, err := visits.CountByReferrer(ctx, "abc1234", 10)
	require.NoError(t, err)
	require.Len(t, byReferrer, 1)
	assert.Equal(t, "https://a.example", byReferrer[0].Referrer)
	assert.EqualValues(t, 2, byReferrer[0].Count)

	recent, err := visits.Recent(ctx, "abc1234", 100)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	// Newest first: the last inserted visit comes back on top.
	assert.Equal(t, "192.0.2.4", recent[0].IP)
	assert.Equal(t, "192.0.2.1", recent[3].IP)

	limited, err := visits.Recent(ctx, "abc1234", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestVisitsRepo_AggregatesScopedToShortID(t *testing.T) {
	dbInstance := newTestDB(t)
	links := repo.NewLinksRepo(dbInstance)
	visits := repo.NewVisitsRepo(dbInstance)
	ctx := context.Background()

	_, err := links.Create(ctx, "first12", "https://example.com/1")
	require.NoError(t, err)
	_, err = links.Create(ctx, "second2", "https://example.com/2")
	require.NoError(t, err)

	require.NoError(t, visits.Create(ctx, internal.Visit{ShortID: "first12", IP: "192.0.2.1", Device: "desktop"}))
	require.NoError(t, visits.Create(ctx, internal.Visit{ShortID: "second2", IP: "192.0.2.2", Device: "mobile"}))

	recent, err := visits.Recent(ctx, "first12", 100)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "192.0.2.1", recent[0].IP)

	byDevice, err := visits.CountByDevice(ctx, "second2")
	require.NoError(t, err)
	require.Len(t, byDevice, 1)
	assert.Equal(t, "mobile", byDevice[0].Device)
}
