package filesystem

import (
	"context"
	"document-search/core"
	"document-search/stores/storetest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.DocumentStore {
		store, err := NewDocumentStore(filepath.Join(t.TempDir(), "documents"))
		require.NoError(t, err)
		return store
	})
}

func TestDocumentStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewDocumentStore(dir)
	require.NoError(t, err)
	saved, err := first.Save(ctx, core.Document{ID: "../escape/attempt", Title: "T"})
	require.NoError(t, err)

	second, err := NewDocumentStore(dir)
	require.NoError(t, err)
	found, err := second.FindID(ctx, "../escape/attempt")
	require.NoError(t, err)
	storetest.AssertSameDocument(t, saved, *found)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".json", filepath.Ext(entries[0].Name()))
}

func TestDocumentStoreSearchSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	store, err := NewDocumentStore(dir)
	require.NoError(t, err)
	_, err = store.Save(context.Background(), core.Document{Title: "T"})
	require.NoError(t, err)

	got, err := store.Search(context.Background(), core.SearchRequest{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDocumentStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDocumentStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0644))

	_, err = store.Search(context.Background(), core.SearchRequest{})
	assert.Error(t, err)
}

func TestDocumentStoreLongID(t *testing.T) {
	store, err := NewDocumentStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	id := strings.Repeat("x", 1000)

	saved, err := store.Save(ctx, core.Document{ID: id, Title: "long"})
	require.NoError(t, err)
	assert.Equal(t, id, saved.ID)

	found, err := store.FindID(ctx, id)
	require.NoError(t, err)
	storetest.AssertSameDocument(t, saved, *found)

	got, err := store.Search(ctx, core.SearchRequest{TitlePrefixes: []string{"long"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
}
