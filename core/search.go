package core

import (
	"slices"
	"strings"
)

// Matches reports whether d satisfies every criterion set on r. Within a
// dimension any single value is enough; time bounds are inclusive.
func (r SearchRequest) Matches(d Document) bool {
	if len(r.TitlePrefixes) > 0 && !matchesAny(r.TitlePrefixes, d.Title, strings.HasPrefix) {
		return false
	}
	if len(r.ContainsContents) > 0 && !matchesAny(r.ContainsContents, d.Content, strings.Contains) {
		return false
	}
	if len(r.AuthorIDs) > 0 && (d.Author == nil || !slices.Contains(r.AuthorIDs, d.Author.ID)) {
		return false
	}
	if r.CreatedFrom != nil && d.Created.Before(*r.CreatedFrom) {
		return false
	}
	if r.CreatedTo != nil && d.Created.After(*r.CreatedTo) {
		return false
	}
	return true
}

// IsEmpty reports whether r places no constraint at all.
func (r SearchRequest) IsEmpty() bool {
	return len(r.TitlePrefixes) == 0 &&
		len(r.ContainsContents) == 0 &&
		len(r.AuthorIDs) == 0 &&
		r.CreatedFrom == nil &&
		r.CreatedTo == nil
}

func matchesAny(values []string, s string, match func(s, v string) bool) bool {
	for _, v := range values {
		if match(s, v) {
			return true
		}
	}
	return false
}

// Filter returns clones of the documents in docs that match r. The result is
// never nil.
func Filter(docs []Document, r SearchRequest) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if r.Matches(d) {
			out = append(out, d.Clone())
		}
	}
	return out
}
