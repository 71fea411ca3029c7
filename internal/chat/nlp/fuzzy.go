package nlp

import (
	"strings"
	"unicode"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// SimilarityThreshold is the minimum bigram Dice score for a fuzzy match.
const SimilarityThreshold = 0.45

// categorySynonyms maps words users type to the category they mean.
// Both sides normalized.
var categorySynonyms = map[string]string{
	"pizza":      "pizzaria",
	"sushi":      "japonesa",
	"japones":    "japonesa",
	"temaki":     "japonesa",
	"churrasco":  "churrascaria",
	"carne":      "churrascaria",
	"cafe":       "cafeteria",
	"cafezinho":  "cafeteria",
	"sorvete":    "sorveteria",
	"acai":       "acaiteria",
	"hamburguer": "hamburgueria",
	"burger":     "hamburgueria",
	"lanche":     "lanchonete",
	"peixe":      "frutos do mar",
	"camarao":    "frutos do mar",
	"drink":      "bar",
	"cerveja":    "bar",
	"chopp":      "bar",
	"pousada":    "hospedagem",
	"hotel":      "hospedagem",
	"barco":      "passeio",
	"mergulho":   "passeio",
	"trilha":     "passeio",
}

// MatchItem resolves free text to one of the candidates, or nil.
//
// Order: name containment (either direction), category containment or
// synonym, then best bigram similarity against name and category.
func MatchItem(text string, items []domain.Item) *domain.Item {
	t := Normalize(text)
	if t == "" || len(items) == 0 {
		return nil
	}

	for i := range items {
		name := Normalize(items[i].Name)
		if name == "" {
			continue
		}
		if strings.Contains(t, name) || (len([]rune(t)) >= 3 && strings.Contains(name, t)) {
			return &items[i]
		}
	}

	for i := range items {
		cat := Normalize(items[i].Category)
		if cat == "" {
			continue
		}
		if strings.Contains(t, cat) || (len([]rune(t)) >= 3 && strings.Contains(cat, t)) {
			return &items[i]
		}
		for word, target := range categorySynonyms {
			if strings.Contains(t, word) && strings.Contains(cat, target) {
				return &items[i]
			}
		}
	}

	best, bestScore := -1, 0.0
	for i := range items {
		for _, field := range []string{items[i].Name, items[i].Category} {
			score := Similarity(t, Normalize(field))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
	}
	if best >= 0 && bestScore >= SimilarityThreshold {
		return &items[best]
	}
	return nil
}

// Similarity is the Sørensen–Dice coefficient over character bigrams,
// whitespace ignored. Identical strings score 1, disjoint ones 0.
func Similarity(a, b string) float64 {
	a = stripSpace(a)
	b = stripSpace(b)
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	counts := make(map[string]int, len(ra))
	for i := 0; i < len(ra)-1; i++ {
		counts[string(ra[i:i+2])]++
	}

	intersection := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := string(rb[i : i+2])
		if counts[bg] > 0 {
			counts[bg]--
			intersection++
		}
	}
	return 2 * float64(intersection) / float64(len(ra)+len(rb)-2)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
