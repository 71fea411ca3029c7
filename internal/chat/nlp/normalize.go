// Package nlp holds the string-matching pieces of the chat resolver:
// normalization, intent classification, ordinal extraction and fuzzy
// item matching. Everything here is pure and framework-free.
package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize strips diacritics, lowercases and trims.
// "  Búzios " → "buzios".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	return strings.TrimSpace(strings.ToLower(result))
}

// Slugify turns a display name into a URL slug.
// "Armação dos Búzios" → "armacao-dos-buzios".
func Slugify(s string) string {
	n := Normalize(s)
	var b strings.Builder
	lastDash := true
	for _, r := range n {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Tokens splits normalized text on anything that is not a letter or digit.
func Tokens(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stopwords are dropped when message tokens are used as search terms.
var stopwords = map[string]struct{}{
	"a": {}, "o": {}, "as": {}, "os": {}, "um": {}, "uma": {}, "uns": {}, "umas": {},
	"de": {}, "da": {}, "do": {}, "das": {}, "dos": {}, "em": {}, "no": {}, "na": {},
	"nos": {}, "nas": {}, "para": {}, "pra": {}, "pro": {}, "por": {}, "com": {},
	"e": {}, "ou": {}, "que": {}, "qual": {}, "quais": {}, "onde": {}, "tem": {},
	"algum": {}, "alguma": {}, "quero": {}, "queria": {}, "gostaria": {}, "me": {},
	"eu": {}, "voce": {}, "indica": {}, "indicar": {}, "sugere": {}, "sugestao": {},
	"bom": {}, "boa": {}, "bons": {}, "boas": {}, "melhor": {}, "melhores": {},
	"lugar": {}, "lugares": {}, "aqui": {}, "hoje": {}, "agora": {}, "ai": {},
}

// ContentTokens returns message tokens minus stopwords and very short words.
func ContentTokens(s string) []string {
	out := make([]string, 0, 4)
	seen := make(map[string]struct{})
	for _, tok := range Tokens(s) {
		if len([]rune(tok)) < 3 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
