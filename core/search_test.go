package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(sec int64) *time.Time {
	t := time.Unix(sec, 0).UTC()
	return &t
}

func TestSearchRequestMatches(t *testing.T) {
	doc := Document{
		ID:      "d1",
		Title:   "FooBar",
		Content: "hello world",
		Author:  &Author{ID: "a1", Name: "Ann"},
		Created: *at(100),
	}

	cases := []struct {
		name    string
		request SearchRequest
		want    bool
	}{
		{"empty request", SearchRequest{}, true},
		{"empty slices", SearchRequest{TitlePrefixes: []string{}, AuthorIDs: []string{}}, true},
		{"title prefix", SearchRequest{TitlePrefixes: []string{"Foo"}}, true},
		{"title prefix any of", SearchRequest{TitlePrefixes: []string{"Baz", "FooB"}}, true},
		{"title prefix miss", SearchRequest{TitlePrefixes: []string{"Bar"}}, false},
		{"title prefix case sensitive", SearchRequest{TitlePrefixes: []string{"foo"}}, false},
		{"content substring", SearchRequest{ContainsContents: []string{"lo wo"}}, true},
		{"content miss", SearchRequest{ContainsContents: []string{"bye", "Hello"}}, false},
		{"author", SearchRequest{AuthorIDs: []string{"a2", "a1"}}, true},
		{"author miss", SearchRequest{AuthorIDs: []string{"a2"}}, false},
		{"from inclusive", SearchRequest{CreatedFrom: at(100)}, true},
		{"from after", SearchRequest{CreatedFrom: at(101)}, false},
		{"to inclusive", SearchRequest{CreatedTo: at(100)}, true},
		{"to before", SearchRequest{CreatedTo: at(99)}, false},
		{"window", SearchRequest{CreatedFrom: at(50), CreatedTo: at(150)}, true},
		{"all dimensions", SearchRequest{
			TitlePrefixes:    []string{"Foo"},
			ContainsContents: []string{"world"},
			AuthorIDs:        []string{"a1"},
			CreatedFrom:      at(100),
			CreatedTo:        at(100),
		}, true},
		{"one dimension fails", SearchRequest{
			TitlePrefixes:    []string{"Foo"},
			ContainsContents: []string{"nope"},
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.request.Matches(doc))
		})
	}
}

func TestSearchRequestMatchesWithoutAuthor(t *testing.T) {
	doc := Document{ID: "d1", Title: "T", Content: "C", Created: *at(1)}

	assert.False(t, SearchRequest{AuthorIDs: []string{"a1"}}.Matches(doc))
	assert.True(t, SearchRequest{}.Matches(doc))
}

func TestSearchRequestMatchesEmptyStrings(t *testing.T) {
	doc := Document{ID: "d1", Created: *at(1)}

	assert.True(t, SearchRequest{TitlePrefixes: []string{""}}.Matches(doc))
	assert.False(t, SearchRequest{TitlePrefixes: []string{"a"}}.Matches(doc))
	assert.True(t, SearchRequest{ContainsContents: []string{""}}.Matches(doc))
	assert.False(t, SearchRequest{ContainsContents: []string{"a"}}.Matches(doc))
}

func TestSearchRequestIsEmpty(t *testing.T) {
	assert.True(t, SearchRequest{}.IsEmpty())
	assert.True(t, SearchRequest{AuthorIDs: []string{}}.IsEmpty())
	assert.False(t, SearchRequest{CreatedTo: at(1)}.IsEmpty())
}

func TestFilter(t *testing.T) {
	docs := []Document{
		{ID: "1", Title: "FooBar", Author: &Author{ID: "a1"}},
		{ID: "2", Title: "Bar"},
	}

	got := Filter(docs, SearchRequest{TitlePrefixes: []string{"Foo"}})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got[0].Author.ID = "changed"
	assert.Equal(t, "a1", docs[0].Author.ID)

	none := Filter(docs, SearchRequest{TitlePrefixes: []string{"Zed"}})
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPrepare(t *testing.T) {
	clock := func() time.Time { return *at(500) }

	t.Run("assigns id and created", func(t *testing.T) {
		d := Prepare(Document{Title: "T"}, nil, clock)
		assert.NotEmpty(t, d.ID)
		assert.True(t, d.Created.Equal(*at(500)))
	})

	t.Run("keeps caller created for new id", func(t *testing.T) {
		d := Prepare(Document{ID: "x", Created: *at(7)}, nil, clock)
		assert.Equal(t, "x", d.ID)
		assert.True(t, d.Created.Equal(*at(7)))
	})

	t.Run("existing created wins", func(t *testing.T) {
		existing := Document{ID: "x", Created: *at(7)}
		d := Prepare(Document{ID: "x", Created: *at(9)}, &existing, clock)
		assert.True(t, d.Created.Equal(*at(7)))
	})

	t.Run("does not alias author", func(t *testing.T) {
		in := Document{Author: &Author{ID: "a1"}}
		d := Prepare(in, nil, clock)
		d.Author.ID = "a2"
		assert.Equal(t, "a1", in.Author.ID)
	})

	t.Run("unique ids", func(t *testing.T) {
		a := Prepare(Document{}, nil, clock)
		b := Prepare(Document{}, nil, clock)
		assert.NotEqual(t, a.ID, b.ID)
	})
}
