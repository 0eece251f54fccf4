package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewgateway/internal/reviews"
)

func TestNewFileStore_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	list, err := s.GetAppList(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileStore_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.CreateApp(ctx, reviews.App{ID: reviews.AppID(1)}))
	require.NoError(t, s.CreateReviews(ctx, []reviews.Review{
		{ID: reviews.NewReviewID(1, "a"), AppID: 1, Title: "great app"},
	}))

	_, err = os.Stat(path)
	require.NoError(t, err, "persist should have written the file")

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)

	app, ok, err := reloaded.GetApp(ctx, reviews.AppID(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, reviews.AppID(1), app.ID)

	revs, err := reloaded.GetReviewList(ctx, reviews.AppID(1), nil)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "great app", revs[0].Title)
}

func TestFileStore_NoStaleTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateApp(ctx, reviews.App{ID: reviews.AppID(1)}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the atomic rename should leave exactly the target file behind")
	assert.Equal(t, "store.json", entries[0].Name())
}

func TestNewFileStore_CorruptFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}
