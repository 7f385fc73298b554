// Copyright Tales Pardini, 2026. All rights reserved.

package refine

import (
	"sort"
	"strings"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// stopwords are tokens too generic to be useful as query terms.
var stopwords = map[string]bool{
	"the": true, "and": true, "or": true, "in": true, "of": true,
	"to": true, "a": true, "an": true, "with": true, "for": true,
	"on": true, "at": true, "from": true, "by": true, "about": true,
	"as": true, "is": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "but": true, "if": true,
	"because": true, "until": true, "while": true, "however": true,
	"therefore": true,
}

// specificityMarkers are lexical cues that the following word names
// something the abstract treats as distinctive.
var specificityMarkers = []string{
	"specifically", "particular", "unique", "distinct", "special",
	"precisely", "exactly", "exclusively", "only", "solely",
}

// frequentTerms mines the abstracts for terms worth OR-ing into a
// too-narrow query: lowercase tokens longer than three characters that
// are not stopwords and occur more than once across the sample. At most
// limit terms are returned, most frequent first (ties alphabetical, so
// the output is deterministic).
func frequentTerms(abstracts []types.Abstract, limit int) []string {
	counts := make(map[string]int)
	for _, a := range abstracts {
		for _, word := range tokenize(a.Abstract) {
			if len(word) > 3 && !stopwords[word] {
				counts[word]++
			}
		}
	}

	var terms []string
	for word, n := range counts {
		if n > 1 {
			terms = append(terms, word)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

// specificTerms mines the abstracts for terms that can tighten a
// too-broad query. It first looks for words following a specificity
// marker ("specifically", "exclusively", ...); when the markers yield
// nothing it falls back to long words that occur exactly once across
// the sample, which tend to be the most specific vocabulary present.
func specificTerms(abstracts []types.Abstract, limit int) []string {
	var terms []string
	seen := make(map[string]bool)

	for _, a := range abstracts {
		words := tokenize(a.Abstract)
		for i, word := range words {
			if i+1 >= len(words) || !isMarker(word) {
				continue
			}
			candidate := words[i+1]
			if len(candidate) > 3 && !stopwords[candidate] && !seen[candidate] {
				seen[candidate] = true
				terms = append(terms, candidate)
			}
		}
	}

	if len(terms) == 0 {
		counts := make(map[string]int)
		var order []string
		for _, a := range abstracts {
			for _, word := range tokenize(a.Abstract) {
				if len(word) <= 6 {
					continue
				}
				if counts[word] == 0 {
					order = append(order, word)
				}
				counts[word]++
			}
		}
		for _, word := range order {
			if counts[word] == 1 {
				terms = append(terms, word)
			}
		}
	}

	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

// tokenize lowercases the text and splits it on whitespace and common
// punctuation.
func tokenize(text string) []string {
	replacer := strings.NewReplacer(".", " ", ",", " ", ";", " ", ":", " ", "(", " ", ")", " ")
	return strings.Fields(replacer.Replace(strings.ToLower(text)))
}

func isMarker(word string) bool {
	for _, m := range specificityMarkers {
		if word == m {
			return true
		}
	}
	return false
}
