// Package service — itinerary.go monta o roteiro dia a dia.
//
// Alocação gulosa, sem otimização: o item i vai pro dia i%dias e pro
// período i/dias (manhã, tarde, noite). Cabem no máximo dias*3 itens.
package service

import (
	"fmt"
	"strings"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	maindomain "github.com/boddenberg/bepit-bfa-go/internal/domain"
)

var daySlots = []domain.Slot{domain.SlotMorning, domain.SlotAfternoon, domain.SlotEvening}

// maxTips é quantas dicas locais entram no fim do roteiro.
const maxTips = 3

// BuildItinerary distribui os itens em round-robin pelos dias.
func BuildItinerary(days int, items, tips []maindomain.Item) *domain.Itinerary {
	if days < 1 {
		days = 1
	}
	it := &domain.Itinerary{Days: make([]domain.ItineraryDay, days)}
	for d := range it.Days {
		it.Days[d] = domain.ItineraryDay{Day: d + 1, Stops: []domain.ItineraryStop{}}
	}

	capacity := days * len(daySlots)
	for i, item := range items {
		if i == capacity {
			break
		}
		d, s := i%days, i/days
		it.Days[d].Stops = append(it.Days[d].Stops, domain.ItineraryStop{
			Slot:   daySlots[s],
			ItemID: item.ID,
			Name:   item.Name,
		})
	}

	for i, tip := range tips {
		if i == maxTips {
			break
		}
		text := tip.Name
		if tip.Description != "" {
			text += ": " + tip.Description
		}
		it.Tips = append(it.Tips, text)
	}
	return it
}

var slotLabels = map[domain.Slot]string{
	domain.SlotMorning:   "Manhã",
	domain.SlotAfternoon: "Tarde",
	domain.SlotEvening:   "Noite",
}

// RenderItinerary transforma o roteiro em texto.
func RenderItinerary(it *domain.Itinerary) string {
	empty := true
	for _, d := range it.Days {
		if len(d.Stops) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return "Não encontrei parceiros suficientes pra montar um roteiro na região. Quer que eu busque algo específico?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Aqui vai um roteiro de %d dia(s):\n", len(it.Days))
	for _, d := range it.Days {
		fmt.Fprintf(&b, "\nDia %d\n", d.Day)
		for _, s := range d.Stops {
			fmt.Fprintf(&b, "- %s: %s\n", slotLabels[s.Slot], s.Name)
		}
	}
	if len(it.Tips) > 0 {
		b.WriteString("\nDicas locais:\n")
		for _, t := range it.Tips {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
