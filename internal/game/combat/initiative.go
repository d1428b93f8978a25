package combat

import (
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// rollInitiative sets p's initiative from a supplied natural roll, or rolls 1d20 with
// roller when roll is nil.
func rollInitiative(p *Participant, roll *int, roller *dice.Roller) error {
	nat := 0
	if roll != nil {
		if err := rules.ValidateD20("initiative roll", *roll); err != nil {
			return err
		}
		nat = *roll
	} else {
		nat = roller.RollD20(dice.ModeNormal).Natural
	}
	p.InitiativeRoll = nat
	p.Initiative = nat + p.InitiativeModifier
	return nil
}

// sortTurnOrder sorts participants by initiative descending, then initiative modifier
// descending, then insertion order, and assigns TurnOrder ranks 0..n-1.
func sortTurnOrder(ps []*Participant) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		if a.InitiativeModifier != b.InitiativeModifier {
			return a.InitiativeModifier > b.InitiativeModifier
		}
		return a.insertion < b.insertion
	})
	for i, p := range ps {
		p.TurnOrder = i
	}
}
