// Package service — composer.go monta o texto da resposta de cada ramo.
//
//   - resposta direta: um campo do item em foco (horário, endereço, ...)
//   - seleção: resumo do item escolhido
//   - busca: texto livre via LLM, ou template com até 3 candidatos
//
// Falha do LLM nunca derruba o turno: cai no template.
package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/chat/port"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// maxListed é quantos candidatos aparecem no template e nos photoLinks.
const maxListed = 3

// Composer gera o texto final.
type Composer struct {
	llm    port.TextGenerator
	logger *zap.Logger
}

// NewComposer cria o Composer. llm nil = só template.
func NewComposer(llm port.TextGenerator, logger *zap.Logger) *Composer {
	return &Composer{llm: llm, logger: logger}
}

// ============================================================
// Resposta direta (item em foco)
// ============================================================

// DirectAnswer responde a intenção de detalhe com o campo do item.
// Devolve também os links de foto (só para IntentFotos).
func DirectAnswer(intent domain.Intent, item *maindomain.Item) (string, []string) {
	switch intent {
	case domain.IntentHorario:
		if item.Hours == "" {
			return fmt.Sprintf("Não tenho o horário de funcionamento do %s cadastrado. Vale confirmar direto com eles.", item.Name), nil
		}
		return fmt.Sprintf("O horário do %s é: %s.", item.Name, item.Hours), nil

	case domain.IntentEndereco:
		if item.Address == "" {
			return fmt.Sprintf("Não tenho o endereço do %s cadastrado.", item.Name), nil
		}
		return fmt.Sprintf("O %s fica em: %s.", item.Name, item.Address), nil

	case domain.IntentContato:
		if item.Contact == "" {
			return fmt.Sprintf("Não tenho um contato do %s cadastrado.", item.Name), nil
		}
		return fmt.Sprintf("Você fala com o %s por: %s.", item.Name, item.Contact), nil

	case domain.IntentPreco:
		if item.PriceRange == "" {
			return fmt.Sprintf("Não tenho a faixa de preço do %s cadastrada.", item.Name), nil
		}
		return fmt.Sprintf("A faixa de preço do %s é: %s.", item.Name, item.PriceRange), nil

	case domain.IntentFotos:
		if len(item.Photos) == 0 {
			return fmt.Sprintf("Ainda não temos fotos do %s.", item.Name), []string{}
		}
		return fmt.Sprintf("Aqui estão as fotos do %s.", item.Name), append([]string(nil), item.Photos...)
	}
	return Summary(item), nil
}

// Summary é o resumo de um item selecionado.
func Summary(item *maindomain.Item) string {
	var b strings.Builder
	b.WriteString(item.Name)
	if item.Category != "" {
		b.WriteString(" (")
		b.WriteString(item.Category)
		b.WriteString(")")
	}
	if item.Description != "" {
		b.WriteString(": ")
		b.WriteString(item.Description)
	}
	b.WriteString(".")
	if item.Benefit != "" {
		b.WriteString(" Benefício BEPIT: ")
		b.WriteString(item.Benefit)
		b.WriteString(".")
	}
	if item.Address != "" {
		b.WriteString(" Endereço: ")
		b.WriteString(item.Address)
		b.WriteString(".")
	}
	if item.Hours != "" {
		b.WriteString(" Horário: ")
		b.WriteString(item.Hours)
		b.WriteString(".")
	}
	b.WriteString(" Quer o contato, o preço ou as fotos?")
	return b.String()
}

// ============================================================
// Resposta de busca
// ============================================================

// SearchReply compõe a resposta de uma busca nova.
func (c *Composer) SearchReply(ctx context.Context, text string, ext domain.Extraction, items []maindomain.Item) string {
	ctx, span := chatTracer.Start(ctx, "Composer.SearchReply")
	defer span.End()

	if len(items) == 0 {
		return "Não encontrei nenhum parceiro para isso na região. Pode tentar com outras palavras, como o tipo de comida ou o nome da cidade?"
	}
	if c.llm == nil {
		return TemplateReply(items)
	}

	reply, err := c.llm.Generate(ctx, answerPrompt(text, ext, items))
	if err != nil || strings.TrimSpace(reply) == "" {
		c.logger.Warn("answer via LLM failed, using template", zap.Error(err))
		return TemplateReply(items)
	}
	return strings.TrimSpace(reply)
}

// TemplateReply lista até 3 candidatos numerados.
func TemplateReply(items []maindomain.Item) string {
	var b strings.Builder
	b.WriteString("Encontrei estas opções:\n")
	for i, it := range items {
		if i == maxListed {
			break
		}
		fmt.Fprintf(&b, "%d. %s", i+1, it.Name)
		if it.Category != "" {
			fmt.Fprintf(&b, " (%s)", it.Category)
		}
		if it.Benefit != "" {
			fmt.Fprintf(&b, " - %s", it.Benefit)
		}
		b.WriteString("\n")
	}
	b.WriteString("Me diga o número ou o nome da opção que te interessa.")
	return b.String()
}

// PhotoLinks pega a primeira foto de cada um dos primeiros candidatos.
func PhotoLinks(items []maindomain.Item) []string {
	out := make([]string, 0, maxListed)
	for i, it := range items {
		if i == maxListed {
			break
		}
		if len(it.Photos) > 0 {
			out = append(out, it.Photos[0])
		}
	}
	return out
}

func answerPrompt(text string, ext domain.Extraction, items []maindomain.Item) string {
	var b strings.Builder
	b.WriteString("Você é o concierge BEPIT. Responda em português, curto e simpático, priorizando os parceiros listados.\n")
	b.WriteString("Perfil do turista:")
	writeProfile(&b, "companhia", ext.CompanionType)
	writeProfile(&b, "clima", ext.Mood)
	writeProfile(&b, "orçamento", ext.Budget)
	b.WriteString("\n\nParceiros encontrados:\n")
	for i, it := range items {
		if i == maxCandidates {
			break
		}
		fmt.Fprintf(&b, "%d. %s | %s | %s | %s\n", i+1, it.Name, it.Category, it.Benefit, it.Address)
	}
	b.WriteString("\nPergunta: ")
	b.WriteString(ext.CorrectedText)
	if ext.CorrectedText == "" {
		b.WriteString(text)
	}
	return b.String()
}

func writeProfile(b *strings.Builder, label string, v *string) {
	if v == nil || *v == "" {
		return
	}
	fmt.Fprintf(b, " %s=%s", label, *v)
}
