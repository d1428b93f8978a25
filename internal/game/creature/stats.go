// Package creature provides the read-only combat statistics snapshot that the
// resolution engine reads from the external character and NPC data source.
package creature

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// DamageType identifies a damage category for resistance/vulnerability/immunity.
type DamageType string

const (
	Acid        DamageType = "acid"
	Bludgeoning DamageType = "bludgeoning"
	Cold        DamageType = "cold"
	Fire        DamageType = "fire"
	Force       DamageType = "force"
	Lightning   DamageType = "lightning"
	Necrotic    DamageType = "necrotic"
	Piercing    DamageType = "piercing"
	Poison      DamageType = "poison"
	Psychic     DamageType = "psychic"
	Radiant     DamageType = "radiant"
	Slashing    DamageType = "slashing"
	Thunder     DamageType = "thunder"
)

var damageTypes = map[DamageType]bool{
	Acid:        true,
	Bludgeoning: true,
	Cold:        true,
	Fire:        true,
	Force:       true,
	Lightning:   true,
	Necrotic:    true,
	Piercing:    true,
	Poison:      true,
	Psychic:     true,
	Radiant:     true,
	Slashing:    true,
	Thunder:     true,
}

// ParseDamageType normalises s and checks it against the known damage types.
func ParseDamageType(s string) (DamageType, error) {
	t := DamageType(strings.ToLower(strings.TrimSpace(s)))
	if !damageTypes[t] {
		return "", rules.Errorf(rules.ErrValidation, "unknown damage type %q", s)
	}
	return t, nil
}

// Ability is one of the six ability scores.
type Ability string

const (
	Strength     Ability = "str"
	Dexterity    Ability = "dex"
	Constitution Ability = "con"
	Intelligence Ability = "int"
	Wisdom       Ability = "wis"
	Charisma     Ability = "cha"
)

var abilityNames = map[string]Ability{
	"str":          Strength,
	"strength":     Strength,
	"dex":          Dexterity,
	"dexterity":    Dexterity,
	"con":          Constitution,
	"constitution": Constitution,
	"int":          Intelligence,
	"intelligence": Intelligence,
	"wis":          Wisdom,
	"wisdom":       Wisdom,
	"cha":          Charisma,
	"charisma":     Charisma,
}

// ParseAbility accepts the short ("dex") or long ("dexterity") form, case-insensitively.
func ParseAbility(s string) (Ability, error) {
	if a, ok := abilityNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return a, nil
	}
	return "", rules.Errorf(rules.ErrValidation, "unknown ability %q", s)
}

// AbilityScores holds the six raw scores.
type AbilityScores struct {
	Strength     int `yaml:"str"`
	Dexterity    int `yaml:"dex"`
	Constitution int `yaml:"con"`
	Intelligence int `yaml:"int"`
	Wisdom       int `yaml:"wis"`
	Charisma     int `yaml:"cha"`
}

// Sheet is the raw stat block as delivered by the character/NPC data source.
type Sheet struct {
	AC                  int           `yaml:"ac"`
	MaxHP               int           `yaml:"max_hp"`
	Speed               int           `yaml:"speed"`
	Abilities           AbilityScores `yaml:"abilities"`
	Resistances         []string      `yaml:"resistances"`
	Vulnerabilities     []string      `yaml:"vulnerabilities"`
	Immunities          []string      `yaml:"immunities"`
	ConditionImmunities []string      `yaml:"condition_immunities"`
}

// View is an immutable snapshot of a combatant's static combat attributes.
// The zero value is a creature with no defenses and 0 max HP; build one with NewView.
type View struct {
	ac                  int
	maxHP               int
	speed               int
	abilities           AbilityScores
	resistances         map[DamageType]bool
	vulnerabilities     map[DamageType]bool
	immunities          map[DamageType]bool
	conditionImmunities map[string]bool
}

// NewView validates s and copies it into a View.
//
// Precondition: s.MaxHP >= 1; s.AC >= 0; s.Speed >= 0; all damage types known.
// Postcondition: Returns a View sharing no memory with s, or an error wrapping rules.ErrValidation.
func NewView(s Sheet) (View, error) {
	if s.MaxHP < 1 {
		return View{}, rules.Errorf(rules.ErrValidation, "max_hp must be >= 1, got %d", s.MaxHP)
	}
	if s.AC < 0 {
		return View{}, rules.Errorf(rules.ErrValidation, "ac must not be negative, got %d", s.AC)
	}
	if s.Speed < 0 {
		return View{}, rules.Errorf(rules.ErrValidation, "speed must not be negative, got %d", s.Speed)
	}
	v := View{
		ac:                  s.AC,
		maxHP:               s.MaxHP,
		speed:               s.Speed,
		abilities:           s.Abilities,
		conditionImmunities: make(map[string]bool, len(s.ConditionImmunities)),
	}
	var err error
	if v.resistances, err = damageSet("resistances", s.Resistances); err != nil {
		return View{}, err
	}
	if v.vulnerabilities, err = damageSet("vulnerabilities", s.Vulnerabilities); err != nil {
		return View{}, err
	}
	if v.immunities, err = damageSet("immunities", s.Immunities); err != nil {
		return View{}, err
	}
	for _, c := range s.ConditionImmunities {
		v.conditionImmunities[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return v, nil
}

// MustView is NewView that panics on error; intended for fixtures.
func MustView(s Sheet) View {
	v, err := NewView(s)
	if err != nil {
		panic("creature: MustView: " + err.Error())
	}
	return v
}

func damageSet(field string, in []string) (map[DamageType]bool, error) {
	out := make(map[DamageType]bool, len(in))
	for _, s := range in {
		t, err := ParseDamageType(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		out[t] = true
	}
	return out, nil
}

// AC returns armor class.
func (v View) AC() int { return v.ac }

// MaxHP returns the hit point maximum.
func (v View) MaxHP() int { return v.maxHP }

// Speed returns base walking speed in feet.
func (v View) Speed() int { return v.speed }

// Abilities returns a copy of the ability scores.
func (v View) Abilities() AbilityScores { return v.abilities }

// Modifier returns the ability modifier for a.
func (v View) Modifier(a Ability) int {
	switch a {
	case Strength:
		return rules.AbilityMod(v.abilities.Strength)
	case Dexterity:
		return rules.AbilityMod(v.abilities.Dexterity)
	case Constitution:
		return rules.AbilityMod(v.abilities.Constitution)
	case Intelligence:
		return rules.AbilityMod(v.abilities.Intelligence)
	case Wisdom:
		return rules.AbilityMod(v.abilities.Wisdom)
	case Charisma:
		return rules.AbilityMod(v.abilities.Charisma)
	default:
		return 0
	}
}

// IsResistant reports resistance to t.
func (v View) IsResistant(t DamageType) bool { return v.resistances[t] }

// IsVulnerable reports vulnerability to t.
func (v View) IsVulnerable(t DamageType) bool { return v.vulnerabilities[t] }

// IsImmune reports immunity to t.
func (v View) IsImmune(t DamageType) bool { return v.immunities[t] }

// IsImmuneToCondition reports immunity to the condition with the given ID (case-insensitive).
func (v View) IsImmuneToCondition(id string) bool {
	return v.conditionImmunities[strings.ToLower(id)]
}
