// Package combat implements attack and damage resolution, the hit point and
// death-save state machine, and the encounter controller that sequences them.
package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// DefenseProfile answers damage-type questions about a target.
// creature.View satisfies it.
type DefenseProfile interface {
	IsImmune(t creature.DamageType) bool
	IsVulnerable(t creature.DamageType) bool
	IsResistant(t creature.DamageType) bool
}

// resistAll adds resistance to every damage type on top of an existing profile.
type resistAll struct{ DefenseProfile }

func (resistAll) IsResistant(creature.DamageType) bool { return true }

// WithResistAll returns p with resistance to every damage type.
func WithResistAll(p DefenseProfile) DefenseProfile { return resistAll{p} }

// DamageInput is raw damage before target defenses. Roll.Dice holds the dice-derived
// portion and Roll.Modifier the flat bonus.
type DamageInput struct {
	Roll     dice.RollResult
	Type     creature.DamageType
	Critical bool
}

// FlatDamage builds a DamageInput with no dice, as used for direct damage application.
func FlatDamage(amount int, t creature.DamageType) DamageInput {
	return DamageInput{Roll: dice.RollResult{Expression: "flat", Modifier: amount}, Type: t}
}

// DamageResult is the outcome of CalculateDamage. The Effective flags report which
// modifier actually changed the number.
type DamageResult struct {
	Type       creature.DamageType
	Critical   bool
	DiceTotal  int
	Bonus      int
	Base       int
	Final      int
	Expression string

	EffectiveImmunity      bool
	EffectiveVulnerability bool
	EffectiveResistance    bool
}

// CalculateDamage applies the critical rule and then target defenses.
//
// A critical doubles only the dice total. Immunity yields 0 and stops; otherwise
// vulnerability doubles and then resistance halves, rounding down.
//
// Precondition: every die in in.Roll.Dice is >= 0.
// Postcondition: 0 <= Final; Final == 0 whenever EffectiveImmunity is true.
func CalculateDamage(in DamageInput, p DefenseProfile) (DamageResult, error) {
	for _, d := range in.Roll.Dice {
		if d < 0 {
			return DamageResult{}, rules.Errorf(rules.ErrValidation, "damage die must not be negative, got %d", d)
		}
	}
	diceTotal := in.Roll.DiceTotal()
	if in.Critical {
		diceTotal *= 2
	}
	res := DamageResult{
		Type:       in.Type,
		Critical:   in.Critical,
		DiceTotal:  diceTotal,
		Bonus:      in.Roll.Modifier,
		Base:       max(diceTotal+in.Roll.Modifier, 0),
		Expression: in.Roll.Expression,
	}
	res.Final = res.Base

	if p == nil {
		return res, nil
	}
	if p.IsImmune(in.Type) {
		res.EffectiveImmunity = true
		res.Final = 0
		return res, nil
	}
	if p.IsVulnerable(in.Type) {
		res.EffectiveVulnerability = true
		res.Final *= 2
	}
	if p.IsResistant(in.Type) {
		res.EffectiveResistance = true
		res.Final /= 2
	}
	return res, nil
}
