// Package storetest holds the behaviour every core.DocumentStore backend has
// to share. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"document-search/core"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) core.DocumentStore

func at(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func ptr(t time.Time) *time.Time {
	return &t
}

// AssertSameDocument compares documents field by field, using time.Equal for
// the creation time so backends may return a different location.
func AssertSameDocument(t *testing.T, want, got core.Document) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Content, got.Content)
	assert.Equal(t, want.Author, got.Author)
	assert.True(t, want.Created.Equal(got.Created), "created: want %v, got %v", want.Created, got.Created)
}

var (
	firstYear = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	lastYear  = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

func ids(docs []core.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("Save assigns id and created", func(t *testing.T) {
		store := newStore(t)
		before := time.Now().Add(-time.Second)

		saved, err := store.Save(ctx, core.Document{Title: "Intro", Content: "hello world"})
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.False(t, saved.Created.IsZero())
		assert.WithinRange(t, saved.Created, before, time.Now().Add(time.Second))

		other, err := store.Save(ctx, core.Document{Title: "Intro", Content: "hello world"})
		require.NoError(t, err)
		assert.NotEqual(t, saved.ID, other.ID)
	})

	t.Run("Save keeps caller created for a new id", func(t *testing.T) {
		store := newStore(t)

		saved, err := store.Save(ctx, core.Document{ID: "doc-1", Title: "T", Created: at(1000)})
		require.NoError(t, err)
		assert.Equal(t, "doc-1", saved.ID)
		assert.True(t, saved.Created.Equal(at(1000)))

		found, err := store.FindID(ctx, "doc-1")
		require.NoError(t, err)
		assert.True(t, found.Created.Equal(at(1000)))
	})

	t.Run("Save preserves created of an existing id", func(t *testing.T) {
		store := newStore(t)

		first, err := store.Save(ctx, core.Document{ID: "doc-1", Title: "v1", Created: at(1000)})
		require.NoError(t, err)

		second, err := store.Save(ctx, core.Document{ID: "doc-1", Title: "v2", Created: at(2000)})
		require.NoError(t, err)
		assert.True(t, second.Created.Equal(first.Created))
		assert.Equal(t, "v2", second.Title)

		third, err := store.Save(ctx, core.Document{ID: "doc-1", Title: "v3"})
		require.NoError(t, err)
		assert.True(t, third.Created.Equal(at(1000)))

		found, err := store.FindID(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "v3", found.Title)
		assert.True(t, found.Created.Equal(at(1000)))
	})

	t.Run("FindID returns the saved document", func(t *testing.T) {
		store := newStore(t)

		saved, err := store.Save(ctx, core.Document{
			Title:   "Intro",
			Content: "hello world",
			Author:  &core.Author{ID: "a1", Name: "Ann"},
		})
		require.NoError(t, err)

		found, err := store.FindID(ctx, saved.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		AssertSameDocument(t, saved, *found)
	})

	t.Run("FindID of unknown id is not found", func(t *testing.T) {
		store := newStore(t)

		found, err := store.FindID(ctx, "missing")
		assert.Nil(t, found)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Save and FindID return copies", func(t *testing.T) {
		store := newStore(t)
		author := &core.Author{ID: "a1", Name: "Ann"}

		saved, err := store.Save(ctx, core.Document{ID: "doc-1", Title: "T", Author: author})
		require.NoError(t, err)
		author.ID = "mutated"
		saved.Author.Name = "mutated"
		saved.Title = "mutated"

		found, err := store.FindID(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "T", found.Title)
		assert.Equal(t, &core.Author{ID: "a1", Name: "Ann"}, found.Author)
		found.Author.ID = "mutated"

		again, err := store.FindID(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "a1", again.Author.ID)
	})

	t.Run("Search with empty request returns everything", func(t *testing.T) {
		store := newStore(t)

		all, err := store.Search(ctx, core.SearchRequest{})
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)

		var want []string
		for _, title := range []string{"a", "b", "c"} {
			saved, err := store.Save(ctx, core.Document{Title: title})
			require.NoError(t, err)
			want = append(want, saved.ID)
		}

		all, err = store.Search(ctx, core.SearchRequest{})
		require.NoError(t, err)
		assert.ElementsMatch(t, want, ids(all))
	})

	t.Run("Search by criteria", func(t *testing.T) {
		store := newStore(t)
		docs := []core.Document{
			{ID: "foobar", Title: "FooBar", Content: "hello world", Author: &core.Author{ID: "a1"}, Created: at(100)},
			{ID: "bar", Title: "Bar", Content: "goodbye world", Author: &core.Author{ID: "a2"}, Created: at(200)},
			{ID: "orphan", Title: "Foo", Content: "Hello", Created: at(300)},
		}
		for _, d := range docs {
			_, err := store.Save(ctx, d)
			require.NoError(t, err)
		}

		cases := []struct {
			name    string
			request core.SearchRequest
			want    []string
		}{
			{"title prefix", core.SearchRequest{TitlePrefixes: []string{"Foo"}}, []string{"foobar", "orphan"}},
			{"title prefixes", core.SearchRequest{TitlePrefixes: []string{"FooB", "Ba"}}, []string{"foobar", "bar"}},
			{"content case sensitive", core.SearchRequest{ContainsContents: []string{"hello"}}, []string{"foobar"}},
			{"contents", core.SearchRequest{ContainsContents: []string{"bye", "Hell"}}, []string{"bar", "orphan"}},
			{"author excludes missing author", core.SearchRequest{AuthorIDs: []string{"a1", "a3"}}, []string{"foobar"}},
			{"inclusive window", core.SearchRequest{CreatedFrom: ptr(at(100)), CreatedTo: ptr(at(200))}, []string{"foobar", "bar"}},
			{"from just after", core.SearchRequest{CreatedFrom: ptr(at(100).Add(time.Millisecond))}, []string{"bar", "orphan"}},
			{"to just before", core.SearchRequest{CreatedTo: ptr(at(300).Add(-time.Millisecond))}, []string{"foobar", "bar"}},
			{"combined", core.SearchRequest{
				TitlePrefixes:    []string{"Foo"},
				ContainsContents: []string{"world"},
				AuthorIDs:        []string{"a1"},
				CreatedFrom:      ptr(at(100)),
				CreatedTo:        ptr(at(100)),
			}, []string{"foobar"}},
			{"no match", core.SearchRequest{TitlePrefixes: []string{"Zed"}}, []string{}},
			{"widest window", core.SearchRequest{CreatedFrom: ptr(firstYear), CreatedTo: ptr(lastYear)}, []string{"foobar", "bar", "orphan"}},
			{"from far future", core.SearchRequest{CreatedFrom: ptr(lastYear)}, []string{}},
			{"to distant past", core.SearchRequest{CreatedTo: ptr(firstYear)}, []string{}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got, err := store.Search(ctx, tc.request)
				require.NoError(t, err)
				assert.NotNil(t, got)
				assert.ElementsMatch(t, tc.want, ids(got))
			})
		}
	})

	t.Run("Saved document is found by content", func(t *testing.T) {
		store := newStore(t)

		saved, err := store.Save(ctx, core.Document{
			Title:   "Intro",
			Content: "hello world",
			Author:  &core.Author{ID: "a1"},
		})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), saved.Created, time.Minute)

		got, err := store.Search(ctx, core.SearchRequest{ContainsContents: []string{"hello"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		AssertSameDocument(t, saved, got[0])
	})
}
