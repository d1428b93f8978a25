package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// AttackInput is one attack roll against one target. AttackRoll is the natural d20
// already chosen by the caller under any advantage or disadvantage.
type AttackInput struct {
	AttackRoll    int
	AttackBonus   int
	TargetAC      int
	Advantage     bool
	Disadvantage  bool
	ForceCritical bool
	Damage        DamageInput
}

// AttackResult is the outcome of ResolveAttack. Damage is nil on a miss.
type AttackResult struct {
	Mode          dice.Mode
	Natural       int
	Total         int
	TargetAC      int
	Hit           bool
	Critical      bool
	NaturalOne    bool
	NaturalTwenty bool
	Damage        *DamageResult
}

// ResolveAttack decides hit or miss and computes damage on a hit.
//
// A natural 1 always misses and a natural 20 always hits as a critical; otherwise the
// attack hits iff AttackRoll+AttackBonus >= TargetAC. Advantage and disadvantage only
// set Mode; the roll is never re-made here.
//
// Precondition: 1 <= in.AttackRoll <= 20.
// Postcondition: Damage != nil iff Hit.
func ResolveAttack(in AttackInput, target DefenseProfile) (AttackResult, error) {
	if err := rules.ValidateD20("attack roll", in.AttackRoll); err != nil {
		return AttackResult{}, err
	}
	res := AttackResult{
		Mode:          dice.ModeFor(in.Advantage, in.Disadvantage),
		Natural:       in.AttackRoll,
		Total:         in.AttackRoll + in.AttackBonus,
		TargetAC:      in.TargetAC,
		NaturalOne:    in.AttackRoll == 1,
		NaturalTwenty: in.AttackRoll == 20,
	}
	switch {
	case res.NaturalOne:
		res.Hit = false
	case res.NaturalTwenty:
		res.Hit = true
	default:
		res.Hit = res.Total >= in.TargetAC
	}
	if !res.Hit {
		return res, nil
	}

	res.Critical = res.NaturalTwenty || in.ForceCritical
	dmgIn := in.Damage
	dmgIn.Critical = res.Critical
	dmg, err := CalculateDamage(dmgIn, target)
	if err != nil {
		return AttackResult{}, err
	}
	res.Damage = &dmg
	return res, nil
}
