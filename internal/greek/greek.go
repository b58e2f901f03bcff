// Package greek holds Greek-language helpers: article lookup for display and
// article detection for typed input.
package greek

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/hellenika/hellenika/internal/model"
)

var lower = cases.Lower(language.Greek)

// articles maps a leading article to the gender it implies.  Plural forms
// are ambiguous ("οι" serves masculine and feminine) and resolve to the
// first gender listed in the grammar tables.
var articles = map[string]model.Gender{
	"ο":    model.Masculine,
	"η":    model.Feminine,
	"το":   model.Neuter,
	"οι":   model.Masculine,
	"τα":   model.Neuter,
	"τον":  model.Masculine,
	"την":  model.Feminine,
	"τους": model.Masculine,
	"τις":  model.Feminine,
	"ένας": model.Masculine,
	"έναν": model.Masculine,
	"μία":  model.Feminine,
	"μια":  model.Feminine,
	"ένα":  model.Neuter,
}

// Normalize trims s and converts it to NFC so that precomposed and
// combining-accent spellings of the same word compare equal.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ArticleFor returns the definite/indefinite article pair shown before a
// noun of gender g, or "" for an unknown gender.
func ArticleFor(g model.Gender) string {
	switch g {
	case model.Masculine:
		return "ο/ένας"
	case model.Feminine:
		return "η/μια"
	case model.Neuter:
		return "το/ένα"
	}
	return ""
}

// DetectArticle reports whether text starts with a Greek article.  It
// returns the article, the gender it implies and the remaining words.  When
// no article is found ok is false and rest is the normalized input.
func DetectArticle(text string) (article string, gender model.Gender, rest string, ok bool) {
	parts := strings.Fields(Normalize(text))
	if len(parts) < 2 {
		return "", "", strings.Join(parts, " "), false
	}
	first := lower.String(parts[0])
	g, found := articles[first]
	if !found {
		return "", "", strings.Join(parts, " "), false
	}
	return first, g, strings.Join(parts[1:], " "), true
}

// Headword renders the front of a card: nouns with a known gender get the
// article pair, every other word is shown bare.
func Headword(w model.Word) string {
	if w.WordType == model.Noun {
		if a := ArticleFor(w.DisplayGender()); a != "" {
			return a + " " + w.GreekWord
		}
	}
	return w.GreekWord
}
