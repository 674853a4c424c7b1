package store

import (
	"sort"
	"strings"
	"unicode"

	"recipeshare_backend/models"
)

// MaxQueryTerms caps how many search terms are matched; Firestore's
// array-contains-any accepts at most 30 values.
const MaxQueryTerms = 10

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "with": {}, "in": {}, "on": {}, "for": {}, "to": {}, "or": {},
}

// Tokenize lowercases s and splits it into distinct searchable words.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// QueryTerms tokenizes a search query and bounds its size.
func QueryTerms(q string) []string {
	terms := Tokenize(q)
	if len(terms) > MaxQueryTerms {
		terms = terms[:MaxQueryTerms]
	}
	return terms
}

// Keywords derives the search index of a recipe from its title, description
// and ingredient names.
func Keywords(r *models.Recipe) []string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteByte(' ')
	b.WriteString(r.Description)
	for _, ing := range r.Ingredients {
		b.WriteByte(' ')
		b.WriteString(ing.Name)
	}
	b.WriteByte(' ')
	b.WriteString(string(r.Category))
	words := Tokenize(b.String())
	sort.Strings(words)
	return words
}

// Score counts how many query terms appear in keywords.
func Score(keywords, terms []string) int {
	n := 0
	for _, t := range terms {
		i := sort.SearchStrings(keywords, t)
		if i < len(keywords) && keywords[i] == t {
			n++
		}
	}
	return n
}
