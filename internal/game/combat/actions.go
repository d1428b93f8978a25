package combat

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// AttackRequest is one attack from one participant against another.
type AttackRequest struct {
	AttackerID string
	TargetID   string
	// AttackRoll is the natural d20 already chosen under any advantage.
	AttackRoll    int
	AttackBonus   int
	Advantage     bool
	Disadvantage  bool
	ForceCritical bool
	// Melee makes the attack eligible for automatic critical hits.
	Melee bool
	// Damage holds the rolled damage dice and flat bonus.
	Damage     dice.RollResult
	DamageType creature.DamageType
	Weapon     string
	// Resource is spent before the attack resolves; nil costs nothing.
	Resource *ResourceCost
}

// AttackOutcome is the outcome of Encounter.ResolveAttack. Damage is nil on a miss.
type AttackOutcome struct {
	Attack AttackResult
	Damage *DamageOutcome
	Target HealthStatus
}

// DamageRequest applies damage outside an attack.
type DamageRequest struct {
	TargetID string
	Amount   int
	Type     creature.DamageType
	// Critical counts as a critical hit for death-save failures at 0 HP.
	Critical bool
	Source   string
}

// ConditionRequest applies a condition to a participant at the current round.
type ConditionRequest struct {
	TargetID  string
	Condition string
	Duration  condition.Duration
	Save      *condition.Save
	Source    string
	Force     bool
}

// ResolveAttack resolves an attack and applies any damage to the target.
//
// The d20 mode combines the request flags with the attacker's own attack effects and
// the target's "attacked with" effects. A melee hit against a target with AutoCritMelee
// is critical. All validation and the resource check precede any mutation.
func (e *Encounter) ResolveAttack(req AttackRequest) (AttackOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("attack"); err != nil {
		return AttackOutcome{}, err
	}
	attacker, err := e.activeParticipant(req.AttackerID)
	if err != nil {
		return AttackOutcome{}, err
	}
	target, err := e.activeParticipant(req.TargetID)
	if err != nil {
		return AttackOutcome{}, err
	}
	attackerFx := e.tracker.Aggregate(attacker.ID)
	if attackerFx.Incapacitated {
		return AttackOutcome{}, rules.Errorf(rules.ErrInvalidStateTransition, "attack: %s is incapacitated", attacker.Name)
	}
	if err := rules.ValidateD20("attack roll", req.AttackRoll); err != nil {
		return AttackOutcome{}, err
	}
	damageType := req.DamageType
	if damageType != "" || req.Damage.Expression != "" {
		damageType, err = creature.ParseDamageType(string(req.DamageType))
		if err != nil {
			return AttackOutcome{}, err
		}
	}
	targetFx := e.tracker.Aggregate(target.ID)
	profile := e.profile(target, targetFx)

	in := AttackInput{
		AttackRoll:    req.AttackRoll,
		AttackBonus:   req.AttackBonus,
		TargetAC:      target.Stats.AC(),
		Advantage:     req.Advantage || attackerFx.AttackAdvantage || targetFx.AttackedWithAdvantage,
		Disadvantage:  req.Disadvantage || attackerFx.AttackDisadvantage || targetFx.AttackedWithDisadvantage,
		ForceCritical: req.ForceCritical || (req.Melee && targetFx.AutoCritMelee),
		Damage:        DamageInput{Roll: req.Damage, Type: damageType},
	}
	res, err := ResolveAttack(in, profile)
	if err != nil {
		return AttackOutcome{}, err
	}

	if req.Resource != nil {
		ok, err := e.opts.Resources.Spend(attacker.ID, *req.Resource)
		if err != nil {
			return AttackOutcome{}, fmt.Errorf("checking resource %q: %w", req.Resource.Name, err)
		}
		if !ok {
			return AttackOutcome{}, rules.Errorf(rules.ErrResourceUnavailable, "%s cannot spend %d %s", attacker.Name, req.Resource.Amount, req.Resource.Name)
		}
	}

	out := AttackOutcome{Attack: res}
	e.emit(EventAttackResolved, attacker.ID, map[string]any{
		"target_id": target.ID,
		"weapon":    req.Weapon,
		"natural":   res.Natural,
		"total":     res.Total,
		"target_ac": res.TargetAC,
		"mode":      res.Mode.String(),
		"hit":       res.Hit,
		"critical":  res.Critical,
	})
	if res.Hit {
		dmg, err := e.health[target.ID].ApplyDamage(*res.Damage)
		if err != nil {
			return AttackOutcome{}, err
		}
		source := req.Weapon
		if source == "" {
			source = attacker.Name
		}
		e.afterDamage(target, dmg, source)
		out.Damage = &dmg
	}
	out.Target = e.health[target.ID].Status()
	e.logger.Debug("attack resolved",
		zap.String("attacker_id", attacker.ID),
		zap.String("participant_id", target.ID),
		zap.Int("round", e.round),
		zap.Bool("hit", res.Hit),
		zap.Bool("critical", res.Critical),
	)
	return out, nil
}

// ApplyDamage applies flat damage of a type through the target's defenses.
func (e *Encounter) ApplyDamage(req DamageRequest) (DamageOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("damage"); err != nil {
		return DamageOutcome{}, err
	}
	if err := rules.ValidateNonNegative("damage", req.Amount); err != nil {
		return DamageOutcome{}, err
	}
	damageType, err := creature.ParseDamageType(string(req.Type))
	if err != nil {
		return DamageOutcome{}, err
	}
	target, err := e.activeParticipant(req.TargetID)
	if err != nil {
		return DamageOutcome{}, err
	}
	in := FlatDamage(req.Amount, damageType)
	in.Critical = req.Critical
	out, err := e.health[target.ID].TakeDamage(in, e.profile(target, e.tracker.Aggregate(target.ID)))
	if err != nil {
		return DamageOutcome{}, err
	}
	e.afterDamage(target, out, req.Source)
	return out, nil
}

// ApplyHealing heals a participant. Healing at 0 HP revives and ends the
// unconsciousness caused by dropping to 0.
func (e *Encounter) ApplyHealing(targetID string, amount int, source string) (HealingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("healing"); err != nil {
		return HealingResult{}, err
	}
	target, err := e.participant(targetID)
	if err != nil {
		return HealingResult{}, err
	}
	h := e.health[target.ID]
	if h.State() != Dead && !target.IsActive {
		return HealingResult{}, rules.Errorf(rules.ErrInvalidStateTransition, "healing: participant %s is inactive (%s)", target.Name, target.InactiveReason)
	}
	res, err := h.ApplyHealing(amount)
	if err != nil {
		return HealingResult{}, err
	}
	e.emit(EventHealingApplied, target.ID, map[string]any{
		"amount":   res.Amount,
		"healed":   res.Healed,
		"overheal": res.Overheal,
		"hp":       res.HPAfter,
		"source":   source,
	})
	if res.Revived {
		e.revived(target)
	}
	return res, nil
}

// GrantTempHP gives a participant temporary hit points; the larger value is kept.
func (e *Encounter) GrantTempHP(targetID string, amount int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("temporary hp"); err != nil {
		return 0, err
	}
	target, err := e.activeParticipant(targetID)
	if err != nil {
		return 0, err
	}
	temp, err := e.health[target.ID].GrantTempHP(amount)
	if err != nil {
		return 0, err
	}
	e.emit(EventTempHPGranted, target.ID, map[string]any{"granted": amount, "temp_hp": temp})
	return temp, nil
}

// RollDeathSave records a death saving throw for a dying participant.
func (e *Encounter) RollDeathSave(participantID string, roll int) (DeathSaveResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("death save"); err != nil {
		return DeathSaveResult{}, err
	}
	p, err := e.activeParticipant(participantID)
	if err != nil {
		return DeathSaveResult{}, err
	}
	res, err := e.health[p.ID].RollDeathSave(roll)
	if err != nil {
		return DeathSaveResult{}, err
	}
	e.emit(EventDeathSave, p.ID, map[string]any{
		"roll":      roll,
		"success":   res.Success,
		"successes": res.Successes,
		"failures":  res.Failures,
		"state":     res.State.String(),
	})
	switch {
	case res.Revived:
		e.revived(p)
	case res.Stabilized:
		e.emit(EventParticipantStable, p.ID, nil)
	case res.Died:
		e.died(p)
	}
	return res, nil
}

// Stabilize stabilizes a dying participant without a roll.
func (e *Encounter) Stabilize(participantID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("stabilize"); err != nil {
		return err
	}
	p, err := e.activeParticipant(participantID)
	if err != nil {
		return err
	}
	if err := e.health[p.ID].Stabilize(); err != nil {
		return err
	}
	e.emit(EventParticipantStable, p.ID, nil)
	return nil
}

// ApplyCondition applies a condition at the current round. Conflicts are returned in
// the result, not as an error.
func (e *Encounter) ApplyCondition(req ConditionRequest) (condition.ApplyResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("apply condition"); err != nil {
		return condition.ApplyResult{}, err
	}
	target, err := e.activeParticipant(req.TargetID)
	if err != nil {
		return condition.ApplyResult{}, err
	}
	res, err := e.tracker.Apply(condition.ApplyRequest{
		ParticipantID: target.ID,
		Condition:     req.Condition,
		Duration:      req.Duration,
		Save:          req.Save,
		Source:        req.Source,
		Round:         e.round,
		Immunities:    target.Stats,
		Force:         req.Force,
	})
	if err != nil {
		return condition.ApplyResult{}, err
	}
	if len(res.Conflicts) > 0 {
		kinds := make([]string, len(res.Conflicts))
		for i, c := range res.Conflicts {
			kinds[i] = string(c.Kind)
		}
		e.emit(EventConditionConflict, target.ID, map[string]any{
			"condition": req.Condition, "conflicts": kinds, "forced": res.Applied != nil,
		})
	}
	if res.Applied != nil {
		e.emitApplied(*res.Applied)
	}
	return res, nil
}

// AttemptSave resolves a saving throw against an applied condition. saveTotal is the
// full saving throw result. A save the bearer automatically fails is a failure
// whatever the total.
func (e *Encounter) AttemptSave(appliedID string, saveTotal int) (condition.SaveResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("attempt save"); err != nil {
		return condition.SaveResult{}, err
	}

	var res condition.SaveResult
	a, ok := e.tracker.Get(appliedID)
	if ok && a.Active && a.Save != nil && e.tracker.Aggregate(a.ParticipantID).AutoFailsSave(a.Save.Ability) {
		res = condition.SaveResult{
			Applied: a,
			Roll:    saveTotal,
			Message: fmt.Sprintf("%s saves automatically fail; %s persists", a.Save.Ability, a.Name),
		}
	} else {
		var err error
		res, err = e.tracker.AttemptSave(appliedID, saveTotal, e.round)
		if err != nil {
			return condition.SaveResult{}, err
		}
	}
	e.emit(EventSaveAttempted, res.Applied.ParticipantID, map[string]any{
		"applied_id": res.Applied.ID,
		"condition":  res.Applied.ConditionID,
		"roll":       saveTotal,
		"success":    res.Success,
	})
	if res.ConditionRemoved {
		e.emitRemoved(res.Applied)
	}
	return res, nil
}

// RemoveCondition ends an applied condition for a reason outside duration and saves.
func (e *Encounter) RemoveCondition(appliedID string) (condition.Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("remove condition"); err != nil {
		return condition.Applied{}, err
	}
	a, err := e.tracker.Remove(appliedID, e.round)
	if err != nil {
		return condition.Applied{}, err
	}
	e.emitRemoved(a)
	return a, nil
}

func (e *Encounter) profile(p *Participant, fx condition.Effects) DefenseProfile {
	if fx.ResistAll {
		return WithResistAll(p.Stats)
	}
	return p.Stats
}

// afterDamage records a damage application and its consequences.
func (e *Encounter) afterDamage(p *Participant, out DamageOutcome, source string) {
	e.damageLog = append(e.damageLog, DamageLogEntry{
		ID:            uuid.NewString(),
		EncounterID:   e.id,
		Seq:           int64(len(e.damageLog) + 1),
		ParticipantID: p.ID,
		Amount:        out.Damage.Final,
		RawAmount:     out.Damage.Base,
		Type:          out.Damage.Type,
		Critical:      out.Damage.Critical,
		Source:        source,
		Round:         e.round,
		At:            e.opts.Now(),
	})
	e.emit(EventDamageApplied, p.ID, map[string]any{
		"amount":                    out.Damage.Final,
		"raw":                       out.Damage.Base,
		"type":                      string(out.Damage.Type),
		"critical":                  out.Damage.Critical,
		"temp_absorbed":             out.AbsorbedByTempHP,
		"hp":                        out.HPAfter,
		"massive":                   out.MassiveDamage,
		"death_save_failures_added": out.DeathSaveFailuresAdded,
		"source":                    source,
	})
	if out.DroppedToZero {
		e.emit(EventParticipantDown, p.ID, map[string]any{"massive": out.MassiveDamage})
	}
	if out.Died {
		e.died(p)
		return
	}
	if out.StateAfter != Healthy {
		e.knockOut(p)
	}
}

// knockOut applies the unconscious condition caused by 0 HP.
func (e *Encounter) knockOut(p *Participant) {
	if e.tracker.Has(p.ID, "unconscious") {
		return
	}
	if _, ok := e.tracker.Library().Get("unconscious"); !ok {
		return
	}
	res, err := e.tracker.Apply(condition.ApplyRequest{
		ParticipantID: p.ID,
		Condition:     "unconscious",
		Duration:      condition.Duration{Type: condition.DurationPermanent},
		Source:        hpSource,
		Round:         max(e.round, 1),
		Force:         true,
	})
	if err != nil || res.Applied == nil {
		e.logger.Warn("applying unconscious", zap.String("participant_id", p.ID), zap.Error(err))
		return
	}
	e.emitApplied(*res.Applied)
}

// revived ends the unconsciousness caused by 0 HP.
func (e *Encounter) revived(p *Participant) {
	e.emit(EventParticipantRevived, p.ID, map[string]any{"hp": e.health[p.ID].Status().CurrentHP})
	for _, a := range e.tracker.Active(p.ID) {
		if a.ConditionID != "unconscious" || a.Source != hpSource {
			continue
		}
		if removed, err := e.tracker.Remove(a.ID, e.round); err == nil {
			e.emitRemoved(removed)
		}
	}
}

func (e *Encounter) died(p *Participant) {
	p.IsActive = false
	p.InactiveReason = "dead"
	e.emit(EventParticipantDied, p.ID, nil)
	e.logger.Info("participant died", zap.String("participant_id", p.ID), zap.Int("round", e.round))
}

func (e *Encounter) emitApplied(a condition.Applied) {
	payload := map[string]any{
		"applied_id":     a.ID,
		"condition":      a.ConditionID,
		"source":         a.Source,
		"duration":       string(a.Duration.Type),
		"duration_value": a.Duration.Value,
	}
	if a.ExpiresAtRound != nil {
		payload["expires_at_round"] = *a.ExpiresAtRound
	}
	if a.Save != nil {
		payload["save_dc"] = a.Save.DC
		payload["save_ability"] = string(a.Save.Ability)
	}
	e.emit(EventConditionApplied, a.ParticipantID, payload)
}

func (e *Encounter) emitRemoved(a condition.Applied) {
	e.emit(EventConditionRemoved, a.ParticipantID, map[string]any{
		"applied_id": a.ID, "condition": a.ConditionID, "reason": string(a.EndReason),
	})
}
