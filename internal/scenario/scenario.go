// Package scenario loads scripted encounters from YAML and plays them against the
// combat engine.
package scenario

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Step actions.
const (
	ActionAttack          = "attack"
	ActionDamage          = "damage"
	ActionHeal            = "heal"
	ActionTempHP          = "temp_hp"
	ActionCondition       = "condition"
	ActionSave            = "save"
	ActionRemoveCondition = "remove_condition"
	ActionDeathSave       = "death_save"
	ActionStabilize       = "stabilize"
	ActionAdvance         = "advance"
	ActionReorder         = "reorder"
	ActionJoin            = "join"
	ActionRemove          = "remove"
	ActionPause           = "pause"
	ActionResume          = "resume"
	ActionEnd             = "end"
)

var knownActions = map[string]bool{
	ActionAttack:          true,
	ActionDamage:          true,
	ActionHeal:            true,
	ActionTempHP:          true,
	ActionCondition:       true,
	ActionSave:            true,
	ActionRemoveCondition: true,
	ActionDeathSave:       true,
	ActionStabilize:       true,
	ActionAdvance:         true,
	ActionReorder:         true,
	ActionJoin:            true,
	ActionRemove:          true,
	ActionPause:           true,
	ActionResume:          true,
	ActionEnd:             true,
}

// Scenario is a scripted encounter.
type Scenario struct {
	Name    string `yaml:"name"`
	Session string `yaml:"session"`
	// Participants are seated when the encounter starts.
	Participants []Participant `yaml:"participants"`
	// Reserves join mid-encounter through a join step.
	Reserves []Participant `yaml:"reserves"`
	Steps    []Step        `yaml:"steps"`
}

// Participant is an inline combatant with its stat sheet.
type Participant struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
	// Stats is the combat stat block.
	Stats              creature.Sheet `yaml:"stats"`
	InitiativeModifier int            `yaml:"initiative_modifier"`
	// Initiative is the natural d20; omitted rolls one.
	Initiative *int `yaml:"initiative"`
	// HP starts the participant below max HP.
	HP        *int           `yaml:"hp"`
	Resources map[string]int `yaml:"resources"`
}

// DurationSpec is the YAML form of a condition duration.
type DurationSpec struct {
	Type  string `yaml:"type"`
	Value int    `yaml:"value"`
}

// SaveSpec is the YAML form of a condition's ending save.
type SaveSpec struct {
	DC      int    `yaml:"dc"`
	Ability string `yaml:"ability"`
}

// ResourceSpec names a resource an attack consumes.
type ResourceSpec struct {
	Name   string `yaml:"name"`
	Amount int    `yaml:"amount"`
}

// Step is one scripted action. Which fields apply depends on Action.
type Step struct {
	Action string `yaml:"action"`
	// Actor is the attacker, or the participant rolling a death save.
	Actor  string `yaml:"actor"`
	Target string `yaml:"target"`

	// Roll is the natural d20 for attacks, saves and death saves; omitted rolls one.
	Roll         *int   `yaml:"roll"`
	Bonus        int    `yaml:"bonus"`
	Advantage    bool   `yaml:"advantage"`
	Disadvantage bool   `yaml:"disadvantage"`
	Melee        bool   `yaml:"melee"`
	Critical     bool   `yaml:"critical"`
	Weapon       string `yaml:"weapon"`
	// Proficient adds the roller's proficiency bonus to an attack or save.
	Proficient bool `yaml:"proficient"`
	// Damage is a dice expression rolled on an attack hit.
	Damage   string        `yaml:"damage"`
	Resource *ResourceSpec `yaml:"resource"`

	Amount int    `yaml:"amount"`
	Type   string `yaml:"type"`
	Source string `yaml:"source"`

	Condition string        `yaml:"condition"`
	Duration  *DurationSpec `yaml:"duration"`
	Save      *SaveSpec     `yaml:"save"`
	Ability   string        `yaml:"ability"`
	Force     bool          `yaml:"force"`

	Initiative int    `yaml:"initiative"`
	Reason     string `yaml:"reason"`

	// ExpectError names the error class the step must fail with, e.g.
	// "invalid_state_transition". The run continues past an expected failure.
	ExpectError string `yaml:"expect_error"`
}

// Load decodes a scenario, rejecting unknown fields, and validates it.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile reads and decodes the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %q: %w", path, err)
	}
	sc, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", path, err)
	}
	return sc, nil
}

// Validate checks the structure of the scenario. Rules violations inside steps are
// left to the engine.
//
// Postcondition: Returns nil or an error wrapping rules.ErrValidation.
func (sc *Scenario) Validate() error {
	if len(sc.Participants) == 0 {
		return rules.Errorf(rules.ErrValidation, "scenario %q has no participants", sc.Name)
	}
	seen := make(map[string]bool)
	for _, group := range [][]Participant{sc.Participants, sc.Reserves} {
		for _, p := range group {
			if p.ID == "" {
				return rules.Errorf(rules.ErrValidation, "participant %q has no id", p.Name)
			}
			if seen[p.ID] {
				return rules.Errorf(rules.ErrValidation, "duplicate participant id %q", p.ID)
			}
			if p.Level != 0 && (p.Level < rules.MinLevel || p.Level > rules.MaxLevel) {
				return rules.Errorf(rules.ErrValidation, "participant %q: level must be in %d..%d, got %d", p.ID, rules.MinLevel, rules.MaxLevel, p.Level)
			}
			seen[p.ID] = true
		}
	}
	for i, st := range sc.Steps {
		if !knownActions[st.Action] {
			return rules.Errorf(rules.ErrValidation, "step %d: unknown action %q", i+1, st.Action)
		}
		if st.ExpectError != "" {
			if _, ok := errorClasses[st.ExpectError]; !ok {
				return rules.Errorf(rules.ErrValidation, "step %d: unknown expect_error %q", i+1, st.ExpectError)
			}
		}
	}
	return nil
}

// proficiency returns the proficiency bonus of a participant or reserve.
func (sc *Scenario) proficiency(id string) (int, error) {
	for _, group := range [][]Participant{sc.Participants, sc.Reserves} {
		for _, p := range group {
			if p.ID != id {
				continue
			}
			if p.Level == 0 {
				return 0, rules.Errorf(rules.ErrValidation, "participant %q is proficient but has no level", id)
			}
			return rules.ProficiencyBonus(p.Level), nil
		}
	}
	return 0, rules.Errorf(rules.ErrParticipantNotFound, "participant %q", id)
}

func (sc *Scenario) reserve(id string) (Participant, bool) {
	for _, p := range sc.Reserves {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}
