package history

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Veraticus/sortwise/internal/model"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {},
	"of": {}, "for": {}, "with": {}, "in": {}, "on": {}, "to": {}, "from": {}, "by": {}, "at": {},
	"item": {}, "items": {}, "thing": {}, "piece": {}, "some": {},
	"recyclable": {}, "recycling": {}, "recycle": {}, "recycled": {},
}

// tokenSet is an unordered set of normalized tokens.
type tokenSet map[string]struct{}

func (s tokenSet) sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Tokenize lowercases name, splits it on non-alphanumeric runs, drops
// stopwords and strips a trailing "s" from tokens longer than three
// characters. The result is sorted and free of duplicates.
func Tokenize(name string) []string {
	return tokenize(name).sorted()
}

func tokenize(name string) tokenSet {
	set := tokenSet{}
	for _, raw := range strings.FieldsFunc(strings.ToLower(name), isSeparator) {
		if _, stop := stopwords[raw]; stop {
			continue
		}
		set[foldPlural(raw)] = struct{}{}
	}
	return set
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func foldPlural(token string) string {
	if len(token) > 3 && strings.HasSuffix(token, "s") {
		return token[:len(token)-1]
	}
	return token
}

// NormalizeMaterial lowercases and trims material and collapses internal
// whitespace. An empty material is "unknown".
func NormalizeMaterial(material string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(material)), " ")
	if normalized == "" {
		return model.UnknownMaterial
	}
	return normalized
}

func materialKnown(material string) bool {
	return material != model.UnknownMaterial
}

// Signature is the token set identifying an item: its name tokens with the
// material folded in once as its own token. Name tokens that repeat the
// material are dropped.
func Signature(item, material string) []string {
	set := tokenize(item)
	mat := NormalizeMaterial(material)
	for token := range tokenize(mat) {
		delete(set, token)
	}
	delete(set, mat)
	if materialKnown(mat) {
		set[mat] = struct{}{}
	}
	return set.sorted()
}

// similarityTokens are the tokens compared for dedup. Material only stands in
// when the name yields nothing.
func similarityTokens(item, material string) tokenSet {
	set := tokenize(item)
	if len(set) > 0 {
		return set
	}
	if mat := NormalizeMaterial(material); materialKnown(mat) {
		set[mat] = struct{}{}
	}
	return set
}
