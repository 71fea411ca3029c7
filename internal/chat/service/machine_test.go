package service_test

import (
	"testing"

	"github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/chat/service"
)

func TestRoute(t *testing.T) {
	cases := []struct {
		name       string
		state      domain.State
		intent     domain.Intent
		candidates bool
		want       []domain.Branch
	}{
		{"focused detail", domain.StateFocused, domain.IntentHorario, true,
			[]domain.Branch{domain.BranchDirectAnswer, domain.BranchSearch}},
		{"detail without focus", domain.StateAwaitingSelection, domain.IntentPreco, true,
			[]domain.Branch{domain.BranchSearch}},
		{"selection", domain.StateAwaitingSelection, domain.IntentNenhuma, true,
			[]domain.Branch{domain.BranchSelect, domain.BranchSearch}},
		{"reselection while focused", domain.StateFocused, domain.IntentNenhuma, true,
			[]domain.Branch{domain.BranchSelect, domain.BranchSearch}},
		{"idle nenhuma", domain.StateIdle, domain.IntentNenhuma, false,
			[]domain.Branch{domain.BranchSearch}},
		{"roteiro from idle", domain.StateIdle, domain.IntentRoteiro, false,
			[]domain.Branch{domain.BranchItinerary, domain.BranchSearch}},
		{"roteiro while focused", domain.StateFocused, domain.IntentRoteiro, true,
			[]domain.Branch{domain.BranchItinerary, domain.BranchSearch}},
		{"dica while focused", domain.StateFocused, domain.IntentDica, true,
			[]domain.Branch{domain.BranchSearch}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := service.Route(c.state, c.intent, c.candidates)
			if len(got) != len(c.want) {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
			for i := range c.want {
				if got[i] != c.want[i] {
					t.Errorf("branch %d: expected %s, got %s", i, c.want[i], got[i])
				}
			}
		})
	}
}

func TestRoute_AlwaysEndsInSearch(t *testing.T) {
	states := []domain.State{domain.StateIdle, domain.StateAwaitingSelection, domain.StateFocused}
	intents := []domain.Intent{
		domain.IntentRoteiro, domain.IntentHorario, domain.IntentEndereco, domain.IntentContato,
		domain.IntentFotos, domain.IntentPreco, domain.IntentDica, domain.IntentNenhuma,
	}
	for _, s := range states {
		for _, i := range intents {
			for _, has := range []bool{true, false} {
				got := service.Route(s, i, has)
				if len(got) == 0 || got[len(got)-1] != domain.BranchSearch {
					t.Errorf("Route(%s, %s, %v) = %v", s, i, has, got)
				}
			}
		}
	}
}
