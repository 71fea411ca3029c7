// Package service — machine.go é a tabela de transições do turno.
//
// Estado inicial vem do que está salvo (ver domain.StateOf):
//
//	idle               sem foco e sem candidatos
//	awaiting_selection candidatos listados, nenhum escolhido
//	focused            um item em foco
//
// Cada linha diz de quais estados ela parte, que intenções aceita e se
// precisa de candidatos salvos. A primeira linha que casa ganha; se o
// ramo não resolver (ex: seleção sem match), o próximo da lista é tentado.
package service

import (
	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
)

// transition é uma linha da tabela.
type transition struct {
	Branch          domain.Branch
	From            []domain.State // vazio = qualquer estado
	Accepts         func(domain.Intent) bool
	NeedsCandidates bool
}

var transitions = []transition{
	{
		Branch:  domain.BranchDirectAnswer,
		From:    []domain.State{domain.StateFocused},
		Accepts: domain.Intent.IsDetail,
	},
	{
		Branch:          domain.BranchSelect,
		From:            []domain.State{domain.StateAwaitingSelection, domain.StateFocused},
		Accepts:         func(i domain.Intent) bool { return i == domain.IntentNenhuma },
		NeedsCandidates: true,
	},
	{
		Branch:  domain.BranchItinerary,
		Accepts: func(i domain.Intent) bool { return i == domain.IntentRoteiro },
	},
	{
		Branch:  domain.BranchSearch,
		Accepts: func(domain.Intent) bool { return true },
	},
}

// Route devolve os ramos candidatos, em ordem de prioridade. O último é
// sempre BranchSearch.
func Route(state domain.State, intent domain.Intent, hasCandidates bool) []domain.Branch {
	out := make([]domain.Branch, 0, 2)
	for _, t := range transitions {
		if !t.from(state) || !t.Accepts(intent) {
			continue
		}
		if t.NeedsCandidates && !hasCandidates {
			continue
		}
		out = append(out, t.Branch)
	}
	return out
}

func (t transition) from(s domain.State) bool {
	if len(t.From) == 0 {
		return true
	}
	for _, f := range t.From {
		if f == s {
			return true
		}
	}
	return false
}
