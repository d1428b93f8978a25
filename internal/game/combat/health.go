package combat

import (
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// HealthState is the consciousness state of a participant.
type HealthState int

const (
	// Healthy: current HP above 0.
	Healthy HealthState = iota
	// Dying: at 0 HP, rolling death saves.
	Dying
	// Stabilized: at 0 HP after three successes; unconscious but not rolling.
	Stabilized
	// Dead is terminal.
	Dead
)

// String returns the lower-case state name.
func (s HealthState) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dying:
		return "dying"
	case Stabilized:
		return "stabilized"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// HealthStatus is a copy of a participant's hit point state.
type HealthStatus struct {
	State              HealthState
	CurrentHP          int
	TempHP             int
	MaxHP              int
	IsConscious        bool
	DeathSaveSuccesses int
	DeathSaveFailures  int
}

// DamageOutcome is the result of applying final damage to a Health.
type DamageOutcome struct {
	Damage           DamageResult
	AbsorbedByTempHP int
	HPBefore         int
	HPAfter          int
	TempHPAfter      int
	StateBefore      HealthState
	StateAfter       HealthState
	// DroppedToZero is set when this damage took current HP from above 0 to 0.
	DroppedToZero bool
	// MassiveDamage is set whenever the instant-death threshold is met, even when
	// the massive damage rule is disabled.
	MassiveDamage          bool
	DeathSaveFailuresAdded int
	Died                   bool
}

// HealingResult is the result of ApplyHealing.
type HealingResult struct {
	Amount   int
	Healed   int
	Overheal int
	HPBefore int
	HPAfter  int
	Revived  bool
	State    HealthState
}

// DeathSaveResult is the result of RollDeathSave.
type DeathSaveResult struct {
	Roll       int
	Success    bool
	Natural20  bool
	Natural1   bool
	Successes  int
	Failures   int
	State      HealthState
	Revived    bool
	Stabilized bool
	Died       bool
}

// Health tracks current and temporary hit points and the death-save sub-state.
// It is not safe for concurrent use; the encounter serialises access.
//
// Invariant: 0 <= current <= maxHP; tempHP >= 0; current == 0 iff state != Healthy.
type Health struct {
	maxHP     int
	current   int
	tempHP    int
	successes int
	failures  int
	state     HealthState
	// massiveDamageKills enables the instant-death rule.
	massiveDamageKills bool
}

// NewHealth creates a Health at full hit points.
//
// Precondition: maxHP >= 1.
func NewHealth(maxHP int, massiveDamageKills bool) *Health {
	return &Health{maxHP: maxHP, current: maxHP, massiveDamageKills: massiveDamageKills}
}

// Status returns a copy of the current state.
func (h *Health) Status() HealthStatus {
	return HealthStatus{
		State:              h.state,
		CurrentHP:          h.current,
		TempHP:             h.tempHP,
		MaxHP:              h.maxHP,
		IsConscious:        h.state == Healthy,
		DeathSaveSuccesses: h.successes,
		DeathSaveFailures:  h.failures,
	}
}

// State returns the current HealthState.
func (h *Health) State() HealthState { return h.state }

func (h *Health) requireAlive(op string) error {
	if h.state == Dead {
		return rules.Errorf(rules.ErrInvalidStateTransition, "%s: participant is dead", op)
	}
	return nil
}

// TakeDamage runs CalculateDamage against p and applies the result.
func (h *Health) TakeDamage(in DamageInput, p DefenseProfile) (DamageOutcome, error) {
	if err := h.requireAlive("damage"); err != nil {
		return DamageOutcome{}, err
	}
	res, err := CalculateDamage(in, p)
	if err != nil {
		return DamageOutcome{}, err
	}
	return h.ApplyDamage(res)
}

// ApplyDamage applies an already-calculated DamageResult.
//
// Temporary HP absorbs first and current HP floors at 0. Crossing to 0 resets the
// death-save counters and enters Dying. Damage taken while at 0 HP adds one death-save
// failure, two on a critical; a Stabilized participant first returns to Dying.
//
// Postcondition: On error nothing changes. Returns an error wrapping
// rules.ErrInvalidStateTransition when Dead, rules.ErrValidation when res.Final < 0.
func (h *Health) ApplyDamage(res DamageResult) (DamageOutcome, error) {
	if err := h.requireAlive("damage"); err != nil {
		return DamageOutcome{}, err
	}
	if err := rules.ValidateNonNegative("damage", res.Final); err != nil {
		return DamageOutcome{}, err
	}

	out := DamageOutcome{Damage: res, HPBefore: h.current, StateBefore: h.state}
	remaining := res.Final
	absorbed := min(h.tempHP, remaining)
	h.tempHP -= absorbed
	remaining -= absorbed
	out.AbsorbedByTempHP = absorbed

	out.MassiveDamage = rules.IsMassiveDamage(remaining, h.current, h.maxHP)

	switch {
	case remaining == 0:
	case h.current > 0:
		h.current = max(h.current-remaining, 0)
		if h.current == 0 {
			out.DroppedToZero = true
			h.successes, h.failures = 0, 0
			h.state = Dying
		}
	default:
		if h.state == Stabilized {
			h.successes, h.failures = 0, 0
			h.state = Dying
		}
		added := 1
		if res.Critical {
			added = 2
		}
		h.failures = min(h.failures+added, rules.DeathSaveLimit)
		out.DeathSaveFailuresAdded = added
		if h.failures >= rules.DeathSaveLimit {
			h.state = Dead
		}
	}
	if out.MassiveDamage && h.massiveDamageKills {
		h.state = Dead
	}

	out.HPAfter = h.current
	out.TempHPAfter = h.tempHP
	out.StateAfter = h.state
	out.Died = h.state == Dead
	return out, nil
}

// ApplyHealing adds amount to current HP, clipped at max HP. Healing from 0 HP is a
// revival: counters clear and the participant is conscious again.
//
// Postcondition: Returns an error wrapping rules.ErrInvalidStateTransition when Dead.
func (h *Health) ApplyHealing(amount int) (HealingResult, error) {
	if err := h.requireAlive("healing"); err != nil {
		return HealingResult{}, err
	}
	if err := rules.ValidateNonNegative("healing", amount); err != nil {
		return HealingResult{}, err
	}
	res := HealingResult{Amount: amount, HPBefore: h.current}
	res.Healed = min(amount, h.maxHP-h.current)
	res.Overheal = amount - res.Healed
	h.current += res.Healed
	if res.HPBefore == 0 && h.current > 0 {
		h.revive()
		res.Revived = true
	}
	res.HPAfter = h.current
	res.State = h.state
	return res, nil
}

// RollDeathSave records a death saving throw.
//
// A natural 20 revives at 1 HP. A natural 1 counts as two failures. Otherwise 10 or
// more succeeds. Three successes stabilize; three failures kill.
//
// Precondition: 1 <= roll <= 20.
// Postcondition: Returns an error wrapping rules.ErrInvalidStateTransition unless Dying.
func (h *Health) RollDeathSave(roll int) (DeathSaveResult, error) {
	if err := rules.ValidateD20("death save", roll); err != nil {
		return DeathSaveResult{}, err
	}
	if h.state != Dying {
		return DeathSaveResult{}, rules.Errorf(rules.ErrInvalidStateTransition, "death save requires dying, participant is %s", h.state)
	}
	res := DeathSaveResult{Roll: roll, Natural20: roll == 20, Natural1: roll == 1}
	switch {
	case res.Natural20:
		res.Success = true
		h.current = 1
		h.revive()
		res.Revived = true
	case res.Natural1:
		h.failures = min(h.failures+2, rules.DeathSaveLimit)
	case roll >= rules.DeathSaveThreshold:
		res.Success = true
		h.successes++
	default:
		h.failures++
	}
	if h.state == Dying {
		switch {
		case h.failures >= rules.DeathSaveLimit:
			h.state = Dead
			res.Died = true
		case h.successes >= rules.DeathSaveLimit:
			h.state = Stabilized
			res.Stabilized = true
		}
	}
	res.Successes = h.successes
	res.Failures = h.failures
	res.State = h.state
	return res, nil
}

// GrantTempHP sets temporary HP to the larger of the current and granted values.
// Temporary HP never stacks.
func (h *Health) GrantTempHP(amount int) (int, error) {
	if err := h.requireAlive("temporary hp"); err != nil {
		return 0, err
	}
	if err := rules.ValidateNonNegative("temporary hp", amount); err != nil {
		return 0, err
	}
	h.tempHP = max(h.tempHP, amount)
	return h.tempHP, nil
}

// Stabilize moves a Dying participant to Stabilized without rolling.
//
// Postcondition: Returns an error wrapping rules.ErrInvalidStateTransition unless Dying.
func (h *Health) Stabilize() error {
	if h.state != Dying {
		return rules.Errorf(rules.ErrInvalidStateTransition, "stabilize requires dying, participant is %s", h.state)
	}
	h.state = Stabilized
	return nil
}

func (h *Health) revive() {
	h.successes, h.failures = 0, 0
	h.state = Healthy
}
