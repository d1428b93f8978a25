package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

func roll(expr string, mod int, ds ...int) dice.RollResult {
	return dice.RollResult{Expression: expr, Dice: ds, Modifier: mod}
}

func TestCalculateDamage_CriticalDoublesDiceOnly(t *testing.T) {
	in := combat.DamageInput{Roll: roll("1d8+3", 3, 6), Type: creature.Slashing}
	normal, err := combat.CalculateDamage(in, nil)
	require.NoError(t, err)
	assert.Equal(t, 9, normal.Final)

	in.Critical = true
	crit, err := combat.CalculateDamage(in, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, crit.DiceTotal)
	assert.Equal(t, 3, crit.Bonus)
	assert.Equal(t, 15, crit.Final)
	assert.NotEqual(t, 2*normal.Final, crit.Final)
}

func TestCalculateDamage_ResistanceHalvesFire(t *testing.T) {
	target := creature.MustView(creature.Sheet{AC: 12, MaxHP: 30, Resistances: []string{"fire"}})
	res, err := combat.CalculateDamage(combat.FlatDamage(20, creature.Fire), target)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Final)
	assert.True(t, res.EffectiveResistance)
	assert.False(t, res.EffectiveVulnerability)
	assert.False(t, res.EffectiveImmunity)

	odd, err := combat.CalculateDamage(combat.FlatDamage(7, creature.Fire), target)
	require.NoError(t, err)
	assert.Equal(t, 3, odd.Final)
}

func TestCalculateDamage_VulnerableAndResistant(t *testing.T) {
	target := creature.MustView(creature.Sheet{AC: 12, MaxHP: 30,
		Resistances: []string{"cold"}, Vulnerabilities: []string{"cold"}})
	res, err := combat.CalculateDamage(combat.FlatDamage(7, creature.Cold), target)
	require.NoError(t, err)
	// (7*2)/2
	assert.Equal(t, 7, res.Final)
	assert.True(t, res.EffectiveVulnerability)
	assert.True(t, res.EffectiveResistance)
}

func TestCalculateDamage_UnmatchedTypeUnchanged(t *testing.T) {
	target := creature.MustView(creature.Sheet{AC: 12, MaxHP: 30, Resistances: []string{"fire"}})
	res, err := combat.CalculateDamage(combat.FlatDamage(11, creature.Piercing), target)
	require.NoError(t, err)
	assert.Equal(t, 11, res.Final)
	assert.False(t, res.EffectiveResistance)
}

func TestCalculateDamage_NegativeBonusFloorsAtZero(t *testing.T) {
	res, err := combat.CalculateDamage(combat.DamageInput{Roll: roll("1d4-3", -3, 1), Type: creature.Bludgeoning}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Final)
}

func TestCalculateDamage_NegativeDieIsValidationError(t *testing.T) {
	_, err := combat.CalculateDamage(combat.DamageInput{Roll: roll("1d6", 0, -2), Type: creature.Fire}, nil)
	assert.ErrorIs(t, err, rules.ErrValidation)
}

func TestWithResistAll(t *testing.T) {
	target := combat.WithResistAll(creature.MustView(creature.Sheet{AC: 10, MaxHP: 10}))
	res, err := combat.CalculateDamage(combat.FlatDamage(9, creature.Psychic), target)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Final)
}

func TestCalculateDamage_Property_ImmunityAlwaysZero(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sheet := creature.Sheet{AC: 10, MaxHP: 10, Immunities: []string{"poison"}}
		if rapid.Bool().Draw(rt, "resistant") {
			sheet.Resistances = []string{"poison"}
		}
		if rapid.Bool().Draw(rt, "vulnerable") {
			sheet.Vulnerabilities = []string{"poison"}
		}
		ds := rapid.SliceOfN(rapid.IntRange(1, 12), 0, 6).Draw(rt, "dice")
		in := combat.DamageInput{
			Roll:     roll("x", rapid.IntRange(0, 10).Draw(rt, "bonus"), ds...),
			Type:     creature.Poison,
			Critical: rapid.Bool().Draw(rt, "crit"),
		}
		res, err := combat.CalculateDamage(in, creature.MustView(sheet))
		require.NoError(rt, err)
		assert.Equal(rt, 0, res.Final)
		assert.True(rt, res.EffectiveImmunity)
		assert.False(rt, res.EffectiveResistance)
		assert.False(rt, res.EffectiveVulnerability)
	})
}

func TestCalculateDamage_Property_CritNeverDoublesBonus(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ds := rapid.SliceOfN(rapid.IntRange(1, 12), 1, 6).Draw(rt, "dice")
		bonus := rapid.IntRange(1, 10).Draw(rt, "bonus")
		in := combat.DamageInput{Roll: roll("x", bonus, ds...), Type: creature.Slashing}
		normal, err := combat.CalculateDamage(in, nil)
		require.NoError(rt, err)
		in.Critical = true
		crit, err := combat.CalculateDamage(in, nil)
		require.NoError(rt, err)
		assert.Equal(rt, 2*normal.Final-bonus, crit.Final)
		assert.NotEqual(rt, 2*normal.Final, crit.Final)
	})
}
