package condition

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/creature"
)

// EffectKind names a mechanical effect. Known kinds have a dedicated Effect type;
// anything else decodes to Custom.
type EffectKind string

const (
	KindAttackAdvantage          EffectKind = "attack_advantage"
	KindAttackDisadvantage       EffectKind = "attack_disadvantage"
	KindAttackedWithAdvantage    EffectKind = "attacked_with_advantage"
	KindAttackedWithDisadvantage EffectKind = "attacked_with_disadvantage"
	KindSpeedSet                 EffectKind = "speed_set"
	KindSpeedDelta               EffectKind = "speed_delta"
	KindAutoFailSave             EffectKind = "auto_fail_save"
	KindSaveDisadvantage         EffectKind = "save_disadvantage"
	KindCheckDisadvantage        EffectKind = "check_disadvantage"
	KindIncapacitated            EffectKind = "incapacitated"
	KindAutoCritMelee            EffectKind = "auto_crit_melee"
	KindResistAll                EffectKind = "resist_all"
)

// Effect is one typed mechanical effect of a condition. The set of implementations
// is closed to this package; unrecognised library keys become Custom.
type Effect interface {
	Kind() EffectKind
	effect()
}

// AttackAdvantage grants advantage on the bearer's own attack rolls.
type AttackAdvantage struct{}

// AttackDisadvantage imposes disadvantage on the bearer's own attack rolls.
type AttackDisadvantage struct{}

// AttackedWithAdvantage grants advantage to attack rolls made against the bearer.
type AttackedWithAdvantage struct{}

// AttackedWithDisadvantage imposes disadvantage on attack rolls made against the bearer.
type AttackedWithDisadvantage struct{}

// SpeedSet fixes the bearer's speed at Feet (0 for grappled, restrained, ...).
type SpeedSet struct{ Feet int }

// SpeedDelta adjusts the bearer's speed by Feet (negative slows).
type SpeedDelta struct{ Feet int }

// AutoFailSave makes the bearer fail saving throws of the listed abilities.
type AutoFailSave struct{ Abilities []creature.Ability }

// SaveDisadvantage imposes disadvantage on saving throws of the listed abilities.
type SaveDisadvantage struct{ Abilities []creature.Ability }

// CheckDisadvantage imposes disadvantage on ability checks.
type CheckDisadvantage struct{}

// Incapacitated prevents actions and reactions.
type Incapacitated struct{}

// AutoCritMelee turns any melee hit against the bearer into a critical hit.
type AutoCritMelee struct{}

// ResistAll grants resistance to every damage type.
type ResistAll struct{}

// Custom carries an effect key this engine does not interpret. Value is the
// decoded YAML value (scalar, list or map), or nil.
type Custom struct {
	Key   string
	Value any
}

func (AttackAdvantage) Kind() EffectKind          { return KindAttackAdvantage }
func (AttackDisadvantage) Kind() EffectKind       { return KindAttackDisadvantage }
func (AttackedWithAdvantage) Kind() EffectKind    { return KindAttackedWithAdvantage }
func (AttackedWithDisadvantage) Kind() EffectKind { return KindAttackedWithDisadvantage }
func (SpeedSet) Kind() EffectKind                 { return KindSpeedSet }
func (SpeedDelta) Kind() EffectKind               { return KindSpeedDelta }
func (AutoFailSave) Kind() EffectKind             { return KindAutoFailSave }
func (SaveDisadvantage) Kind() EffectKind         { return KindSaveDisadvantage }
func (CheckDisadvantage) Kind() EffectKind        { return KindCheckDisadvantage }
func (Incapacitated) Kind() EffectKind            { return KindIncapacitated }
func (AutoCritMelee) Kind() EffectKind            { return KindAutoCritMelee }
func (ResistAll) Kind() EffectKind                { return KindResistAll }
func (c Custom) Kind() EffectKind                 { return EffectKind(c.Key) }

func (AttackAdvantage) effect()          {}
func (AttackDisadvantage) effect()       {}
func (AttackedWithAdvantage) effect()    {}
func (AttackedWithDisadvantage) effect() {}
func (SpeedSet) effect()                 {}
func (SpeedDelta) effect()               {}
func (AutoFailSave) effect()             {}
func (SaveDisadvantage) effect()         {}
func (CheckDisadvantage) effect()        {}
func (Incapacitated) effect()            {}
func (AutoCritMelee) effect()            {}
func (ResistAll) effect()                {}
func (Custom) effect()                   {}

// effectSpec is the on-disk shape of one effect entry.
type effectSpec struct {
	Kind      string    `yaml:"kind"`
	Value     yaml.Node `yaml:"value"`
	Abilities []string  `yaml:"abilities"`
}

// decode converts the on-disk entry into its typed Effect.
func (s effectSpec) decode() (Effect, error) {
	switch EffectKind(s.Kind) {
	case "":
		return nil, fmt.Errorf("effect kind must not be empty")
	case KindAttackAdvantage:
		return AttackAdvantage{}, nil
	case KindAttackDisadvantage:
		return AttackDisadvantage{}, nil
	case KindAttackedWithAdvantage:
		return AttackedWithAdvantage{}, nil
	case KindAttackedWithDisadvantage:
		return AttackedWithDisadvantage{}, nil
	case KindCheckDisadvantage:
		return CheckDisadvantage{}, nil
	case KindIncapacitated:
		return Incapacitated{}, nil
	case KindAutoCritMelee:
		return AutoCritMelee{}, nil
	case KindResistAll:
		return ResistAll{}, nil
	case KindSpeedSet:
		feet, err := s.intValue()
		if err != nil {
			return nil, err
		}
		if feet < 0 {
			return nil, fmt.Errorf("%s value must not be negative, got %d", s.Kind, feet)
		}
		return SpeedSet{Feet: feet}, nil
	case KindSpeedDelta:
		feet, err := s.intValue()
		if err != nil {
			return nil, err
		}
		return SpeedDelta{Feet: feet}, nil
	case KindAutoFailSave:
		abs, err := s.abilities()
		if err != nil {
			return nil, err
		}
		return AutoFailSave{Abilities: abs}, nil
	case KindSaveDisadvantage:
		abs, err := s.abilities()
		if err != nil {
			return nil, err
		}
		return SaveDisadvantage{Abilities: abs}, nil
	default:
		var v any
		if !s.Value.IsZero() {
			if err := s.Value.Decode(&v); err != nil {
				return nil, fmt.Errorf("decoding value of custom effect %q: %w", s.Kind, err)
			}
		}
		return Custom{Key: s.Kind, Value: v}, nil
	}
}

func (s effectSpec) intValue() (int, error) {
	if s.Value.IsZero() {
		return 0, fmt.Errorf("%s requires an integer value", s.Kind)
	}
	var n int
	if err := s.Value.Decode(&n); err != nil {
		return 0, fmt.Errorf("%s value: %w", s.Kind, err)
	}
	return n, nil
}

func (s effectSpec) abilities() ([]creature.Ability, error) {
	if len(s.Abilities) == 0 {
		return nil, fmt.Errorf("%s requires at least one ability", s.Kind)
	}
	out := make([]creature.Ability, 0, len(s.Abilities))
	for _, raw := range s.Abilities {
		a, err := creature.ParseAbility(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Kind, err)
		}
		out = append(out, a)
	}
	return out, nil
}
