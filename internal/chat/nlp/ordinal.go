package nlp

import (
	"regexp"
	"strconv"
)

var (
	// explicitMarker: "opcao 3", "numero 2", "nº 2", "n 2", "#4", "item 1".
	explicitMarker = regexp.MustCompile(`(?:opcao|opcoes|numero|item|n[º°o]?|#)\s*(\d+)`)

	// bareNumber: a standalone number token.
	bareNumber = regexp.MustCompile(`(?:^|[^\p{L}\d])(\d+)(?:$|[^\p{L}\d])`)
)

// ordinalWords maps number words and ordinals to zero-based indexes.
// "um"/"uma" are articles in Portuguese and are handled apart.
var ordinalWords = map[string]int{
	"primeiro": 0, "primeira": 0,
	"dois": 1, "duas": 1, "segundo": 1, "segunda": 1,
	"tres": 2, "terceiro": 2, "terceira": 2,
	"quatro": 3, "quarto": 3, "quarta": 3,
	"cinco": 4, "quinto": 4, "quinta": 4,
}

// ExtractOrdinal parses a selection like "2", "segundo" or "opção 3" into a
// zero-based index. The bool is false when nothing matched or the parsed
// index would be negative.
func ExtractOrdinal(text string) (int, bool) {
	n := Normalize(text)
	if n == "" {
		return 0, false
	}

	if m := explicitMarker.FindStringSubmatch(n); m != nil {
		return toIndex(m[1])
	}
	if m := bareNumber.FindStringSubmatch(n); m != nil {
		return toIndex(m[1])
	}

	tokens := Tokens(n)
	for _, tok := range tokens {
		if idx, ok := ordinalWords[tok]; ok {
			return idx, true
		}
	}
	// "um"/"uma" only select when they are the whole message.
	if len(tokens) == 1 && (tokens[0] == "um" || tokens[0] == "uma") {
		return 0, true
	}
	return 0, false
}

func toIndex(digits string) (int, bool) {
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	idx := v - 1
	if idx < 0 {
		return 0, false
	}
	return idx, true
}
