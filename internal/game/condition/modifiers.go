package condition

import (
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Effects is the merged mechanical view of every active condition on one participant.
//
// Merge policy:
//   - flags OR together;
//   - speed_set keeps the lowest value, speed_delta keeps the most negative;
//   - advantage and disadvantage on the same roll cancel (see dice.ModeFor);
//   - per-ability save effects union;
//   - custom effects collect every value under their key in application order.
type Effects struct {
	// Sources lists the names of the contributing conditions in application order.
	Sources []string

	AttackAdvantage          bool
	AttackDisadvantage       bool
	AttackedWithAdvantage    bool
	AttackedWithDisadvantage bool

	Incapacitated     bool
	CheckDisadvantage bool
	AutoCritMelee     bool
	ResistAll         bool

	// SpeedSet is nil when no condition fixes speed.
	SpeedSet   *int
	SpeedDelta int

	AutoFailSaves    map[creature.Ability]bool
	SaveDisadvantage map[creature.Ability]bool

	Custom map[string][]any
}

// AttackMode is the d20 mode the bearer's own attacks get from conditions alone.
func (e Effects) AttackMode() dice.Mode {
	return dice.ModeFor(e.AttackAdvantage, e.AttackDisadvantage)
}

// DefenseMode is the d20 mode attacks against the bearer get from conditions alone.
func (e Effects) DefenseMode() dice.Mode {
	return dice.ModeFor(e.AttackedWithAdvantage, e.AttackedWithDisadvantage)
}

// Speed applies the speed effects to base.
//
// Postcondition: 0 <= result; result <= SpeedSet when SpeedSet is non-nil.
func (e Effects) Speed(base int) int {
	s := base + e.SpeedDelta
	if e.SpeedSet != nil {
		s = min(s, *e.SpeedSet)
	}
	return max(s, 0)
}

// AutoFailsSave reports whether saves of ability a fail automatically.
func (e Effects) AutoFailsSave(a creature.Ability) bool { return e.AutoFailSaves[a] }

// HasSaveDisadvantage reports whether saves of ability a roll with disadvantage.
func (e Effects) HasSaveDisadvantage(a creature.Ability) bool { return e.SaveDisadvantage[a] }

func newEffects() Effects {
	return Effects{
		Sources:          make([]string, 0),
		AutoFailSaves:    make(map[creature.Ability]bool),
		SaveDisadvantage: make(map[creature.Ability]bool),
		Custom:           make(map[string][]any),
	}
}

func (e *Effects) add(eff Effect) {
	switch v := eff.(type) {
	case AttackAdvantage:
		e.AttackAdvantage = true
	case AttackDisadvantage:
		e.AttackDisadvantage = true
	case AttackedWithAdvantage:
		e.AttackedWithAdvantage = true
	case AttackedWithDisadvantage:
		e.AttackedWithDisadvantage = true
	case Incapacitated:
		e.Incapacitated = true
	case CheckDisadvantage:
		e.CheckDisadvantage = true
	case AutoCritMelee:
		e.AutoCritMelee = true
	case ResistAll:
		e.ResistAll = true
	case SpeedSet:
		if e.SpeedSet == nil || v.Feet < *e.SpeedSet {
			feet := v.Feet
			e.SpeedSet = &feet
		}
	case SpeedDelta:
		e.SpeedDelta = min(e.SpeedDelta, v.Feet)
	case AutoFailSave:
		for _, a := range v.Abilities {
			e.AutoFailSaves[a] = true
		}
	case SaveDisadvantage:
		for _, a := range v.Abilities {
			e.SaveDisadvantage[a] = true
		}
	case Custom:
		e.Custom[v.Key] = append(e.Custom[v.Key], v.Value)
	}
}

// Aggregate merges the effects of every active condition on participantID.
//
// Postcondition: Sources is empty and every flag is false when no condition is active.
func (t *Tracker) Aggregate(participantID string) Effects {
	out := newEffects()
	for _, a := range t.activeFor(participantID) {
		def, ok := t.library.Get(a.ConditionID)
		if !ok {
			continue
		}
		out.Sources = append(out.Sources, def.Name)
		for _, eff := range def.Effects {
			out.add(eff)
		}
	}
	return out
}

// IsIncapacitated reports whether any active condition prevents the participant from acting.
func (t *Tracker) IsIncapacitated(participantID string) bool {
	return t.Aggregate(participantID).Incapacitated
}
