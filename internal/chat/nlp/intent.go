package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
)

// intentRule maps one intent to the phrases that trigger it.
// Phrases are stored already normalized (no accents, lowercase).
type intentRule struct {
	intent   domain.Intent
	keywords []string
}

// intentRules is checked in order; first match wins. A keyword only
// matches at the start of a word, so "dica" hits "dicas" but not "indica".
var intentRules = []intentRule{
	{domain.IntentRoteiro, []string{
		"roteiro", "itinerario", "planejar", "planeja", "programacao",
		"fim de semana", "final de semana", "feriado",
	}},
	{domain.IntentHorario, []string{
		"horario", "que horas", "abre", "fecha", "funcionamento", "aberto", "expediente",
	}},
	{domain.IntentEndereco, []string{
		"endereco", "onde fica", "localiza", "como chegar", "fica onde",
	}},
	{domain.IntentContato, []string{
		"contato", "telefone", "whatsapp", "instagram", "ligar", "e-mail", "email", "reserva",
	}},
	{domain.IntentFotos, []string{
		"foto", "imagem", "imagens", "ver como e",
	}},
	{domain.IntentPreco, []string{
		"faixa de preco", "preco", "caro", "barato", "quanto custa", "valor", "custa",
	}},
	{domain.IntentDica, []string{
		"transito", "engarrafamento", "estacionar", "estacionamento", "cafe da manha",
		"seguranca", "seguro andar", "perigoso", "dica",
	}},
}

// nDays matches "3 dias", "2dias", "1 dia".
var nDays = regexp.MustCompile(`\b\d+\s*dias?\b`)

// ClassifyIntent maps free text to exactly one intent. It is total:
// anything unmatched is IntentNenhuma.
func ClassifyIntent(text string) domain.Intent {
	n := Normalize(text)
	if n == "" {
		return domain.IntentNenhuma
	}

	if nDays.MatchString(n) {
		return domain.IntentRoteiro
	}
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if hasWordPrefix(n, kw) {
				return rule.intent
			}
		}
	}
	return domain.IntentNenhuma
}

// hasWordPrefix reports whether kw occurs in s starting at a word boundary.
func hasWordPrefix(s, kw string) bool {
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return false
		}
		i += from
		if i == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(s[:i])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		from = i + 1
	}
	return false
}

// ParseDayCount extracts the requested number of days for an itinerary.
// "fim de semana" counts as 2; default is 1; capped at 7.
func ParseDayCount(text string) int {
	n := Normalize(text)
	if m := nDays.FindString(n); m != "" {
		days := 0
		for _, r := range m {
			if r < '0' || r > '9' {
				break
			}
			days = days*10 + int(r-'0')
		}
		switch {
		case days < 1:
			return 1
		case days > 7:
			return 7
		default:
			return days
		}
	}
	if strings.Contains(n, "fim de semana") || strings.Contains(n, "final de semana") {
		return 2
	}
	return 1
}
