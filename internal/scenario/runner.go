package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/eventlog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

var errorClasses = map[string]error{
	"invalid_encounter_state":  rules.ErrInvalidEncounterState,
	"invalid_state_transition": rules.ErrInvalidStateTransition,
	"participant_not_found":    rules.ErrParticipantNotFound,
	"no_active_participants":   rules.ErrNoActiveParticipants,
	"validation":               rules.ErrValidation,
	"resource_unavailable":     rules.ErrResourceUnavailable,
	"unknown_condition":        condition.ErrUnknownCondition,
	"applied_not_found":        condition.ErrAppliedNotFound,
}

// StepOutcome describes what one step did.
type StepOutcome struct {
	Index   int
	Action  string
	Summary string
	// Err is the expected error the step failed with, if any.
	Err error
}

// Report is the result of a full run.
type Report struct {
	EncounterID string
	Steps       []StepOutcome
	Final       combat.EncounterState
	Events      int
	Damage      int
}

// Runner plays scenarios. Each run gets its own Engine so resource pools
// never leak between scenarios.
type Runner struct {
	library   *condition.Library
	roller    *dice.Roller
	publisher *eventlog.Publisher
	logger    *zap.Logger
	opts      combat.Options
}

// NewRunner creates a Runner. opts.Resources is replaced per run.
//
// Precondition: every argument must be non-nil.
func NewRunner(lib *condition.Library, roller *dice.Roller, publisher *eventlog.Publisher, logger *zap.Logger, opts combat.Options) *Runner {
	return &Runner{library: lib, roller: roller, publisher: publisher, logger: logger, opts: opts}
}

// Run starts the scenario's encounter, executes every step in order and publishes
// the encounter's output after each one. An unexpected step error, or an expected
// error that does not occur, stops the run.
//
// Postcondition: On success, every step has a StepOutcome and all output was published.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (Report, error) {
	if err := sc.Validate(); err != nil {
		return Report{}, err
	}
	pool := NewResourcePool()
	for _, group := range [][]Participant{sc.Participants, sc.Reserves} {
		for _, p := range group {
			for name, n := range p.Resources {
				pool.Set(p.ID, name, n)
			}
		}
	}
	opts := r.opts
	opts.Resources = pool
	engine := combat.NewEngine(r.library, r.roller, r.logger, opts)

	specs := make([]combat.ParticipantSpec, 0, len(sc.Participants))
	for _, p := range sc.Participants {
		spec, err := p.spec()
		if err != nil {
			return Report{}, err
		}
		specs = append(specs, spec)
	}
	session := sc.Session
	if session == "" {
		session = sc.Name
	}
	if session == "" {
		session = "scenario"
	}
	enc, _, err := engine.StartEncounter(session, specs)
	if err != nil {
		return Report{}, fmt.Errorf("starting scenario %q: %w", sc.Name, err)
	}
	report := Report{EncounterID: enc.ID()}
	if err := r.flush(ctx, enc, &report); err != nil {
		return report, err
	}

	x := &executor{enc: enc, roller: r.roller, scenario: sc}
	for i, st := range sc.Steps {
		summary, stepErr := x.run(st)
		outcome := StepOutcome{Index: i + 1, Action: st.Action, Summary: summary}
		if st.ExpectError != "" {
			want := errorClasses[st.ExpectError]
			if !errors.Is(stepErr, want) {
				return report, fmt.Errorf("step %d (%s): expected %s error, got %v", i+1, st.Action, st.ExpectError, stepErr)
			}
			outcome.Err = stepErr
			outcome.Summary = fmt.Sprintf("failed as expected: %v", stepErr)
		} else if stepErr != nil {
			return report, fmt.Errorf("step %d (%s): %w", i+1, st.Action, stepErr)
		}
		report.Steps = append(report.Steps, outcome)
		r.logger.Debug("scenario step",
			zap.String("encounter_id", enc.ID()),
			zap.Int("step", i+1),
			zap.String("action", st.Action),
			zap.String("summary", outcome.Summary),
		)
		if err := r.flush(ctx, enc, &report); err != nil {
			return report, err
		}
	}
	report.Final = enc.Snapshot()
	r.logger.Info("scenario complete",
		zap.String("scenario", sc.Name),
		zap.String("encounter_id", enc.ID()),
		zap.Int("steps", len(report.Steps)),
		zap.Int("round", report.Final.Round),
	)
	return report, nil
}

func (r *Runner) flush(ctx context.Context, enc *combat.Encounter, report *Report) error {
	res, err := r.publisher.Flush(ctx, enc)
	report.Events += res.Events
	report.Damage += res.Damage
	if err != nil {
		return fmt.Errorf("publishing encounter output: %w", err)
	}
	return nil
}

func (p Participant) spec() (combat.ParticipantSpec, error) {
	view, err := creature.NewView(p.Stats)
	if err != nil {
		return combat.ParticipantSpec{}, fmt.Errorf("participant %q: %w", p.ID, err)
	}
	name := p.Name
	if name == "" {
		name = p.ID
	}
	return combat.ParticipantSpec{
		ID:                 p.ID,
		Name:               name,
		Stats:              view,
		InitiativeModifier: p.InitiativeModifier,
		InitiativeRoll:     p.Initiative,
		CurrentHP:          p.HP,
	}, nil
}

// executor runs steps against one encounter.
type executor struct {
	enc      *combat.Encounter
	roller   *dice.Roller
	scenario *Scenario
}

func (x *executor) run(st Step) (string, error) {
	switch st.Action {
	case ActionAttack:
		return x.attack(st)
	case ActionDamage:
		dt, err := creature.ParseDamageType(st.Type)
		if err != nil {
			return "", err
		}
		out, err := x.enc.ApplyDamage(combat.DamageRequest{
			TargetID: st.Target, Amount: st.Amount, Type: dt, Critical: st.Critical, Source: st.Source,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s takes %s", st.Target, describeDamage(out)), nil
	case ActionHeal:
		res, err := x.enc.ApplyHealing(st.Target, st.Amount, st.Source)
		if err != nil {
			return "", err
		}
		s := fmt.Sprintf("%s heals %d (%d -> %d)", st.Target, res.Healed, res.HPBefore, res.HPAfter)
		if res.Revived {
			s += ", revived"
		}
		return s, nil
	case ActionTempHP:
		temp, err := x.enc.GrantTempHP(st.Target, st.Amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s has %d temporary hp", st.Target, temp), nil
	case ActionCondition:
		return x.applyCondition(st)
	case ActionSave:
		return x.save(st)
	case ActionRemoveCondition:
		id, err := x.appliedID(st.Target, st.Condition)
		if err != nil {
			return "", err
		}
		a, err := x.enc.RemoveCondition(id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is no longer %s", st.Target, a.Name), nil
	case ActionDeathSave:
		roll := x.natural(st.Roll, dice.ModeNormal)
		res, err := x.enc.RollDeathSave(st.Actor, roll)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s death save %d: %d/%d, %s", st.Actor, roll, res.Successes, res.Failures, res.State), nil
	case ActionStabilize:
		if err := x.enc.Stabilize(st.Target); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is stabilized", st.Target), nil
	case ActionAdvance:
		return x.advance()
	case ActionReorder:
		order, err := x.enc.ReorderInitiative(st.Target, st.Initiative)
		if err != nil {
			return "", err
		}
		return "turn order: " + orderString(order), nil
	case ActionJoin:
		p, ok := x.scenario.reserve(st.Target)
		if !ok {
			return "", rules.Errorf(rules.ErrParticipantNotFound, "no reserve %q", st.Target)
		}
		spec, err := p.spec()
		if err != nil {
			return "", err
		}
		joined, err := x.enc.AddParticipant(spec)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s joins with initiative %d", joined.Name, joined.Initiative), nil
	case ActionRemove:
		p, err := x.enc.RemoveParticipant(st.Target, st.Reason)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s leaves (%s)", p.Name, p.InactiveReason), nil
	case ActionPause:
		return "paused", x.enc.Pause()
	case ActionResume:
		return "resumed", x.enc.Resume()
	case ActionEnd:
		res := x.enc.End()
		return fmt.Sprintf("encounter ended in round %d", res.Round), nil
	}
	return "", rules.Errorf(rules.ErrValidation, "unknown action %q", st.Action)
}

func (x *executor) attack(st Step) (string, error) {
	if st.Damage == "" {
		return "", rules.Errorf(rules.ErrValidation, "attack needs a damage expression")
	}
	dt, err := creature.ParseDamageType(st.Type)
	if err != nil {
		return "", err
	}
	bonus, err := x.bonus(st, st.Actor)
	if err != nil {
		return "", err
	}
	dmg, err := x.roller.RollExpr(st.Damage)
	if err != nil {
		return "", err
	}
	attackerFx, err := x.enc.Effects(st.Actor)
	if err != nil {
		return "", err
	}
	targetFx, err := x.enc.Effects(st.Target)
	if err != nil {
		return "", err
	}
	mode := dice.ModeFor(
		st.Advantage || attackerFx.AttackAdvantage || targetFx.AttackedWithAdvantage,
		st.Disadvantage || attackerFx.AttackDisadvantage || targetFx.AttackedWithDisadvantage,
	)
	req := combat.AttackRequest{
		AttackerID:    st.Actor,
		TargetID:      st.Target,
		AttackRoll:    x.natural(st.Roll, mode),
		AttackBonus:   bonus,
		Advantage:     st.Advantage,
		Disadvantage:  st.Disadvantage,
		ForceCritical: st.Critical,
		Melee:         st.Melee,
		Damage:        dmg,
		DamageType:    dt,
		Weapon:        st.Weapon,
	}
	if st.Resource != nil {
		req.Resource = &combat.ResourceCost{Name: st.Resource.Name, Amount: st.Resource.Amount}
	}
	out, err := x.enc.ResolveAttack(req)
	if err != nil {
		return "", err
	}
	a := out.Attack
	s := fmt.Sprintf("%s attacks %s: %d (%s) vs AC %d, ", st.Actor, st.Target, a.Total, a.Mode, a.TargetAC)
	switch {
	case a.Critical:
		s += "critical hit, " + describeDamage(*out.Damage)
	case a.Hit:
		s += "hit, " + describeDamage(*out.Damage)
	default:
		s += "miss"
	}
	return s, nil
}

func (x *executor) applyCondition(st Step) (string, error) {
	dur := condition.Duration{Type: condition.DurationPermanent}
	if st.Duration != nil {
		dur = condition.Duration{Type: condition.DurationType(st.Duration.Type), Value: st.Duration.Value}
	}
	var save *condition.Save
	if st.Save != nil {
		ab, err := creature.ParseAbility(st.Save.Ability)
		if err != nil {
			return "", err
		}
		save = &condition.Save{DC: st.Save.DC, Ability: ab}
	}
	res, err := x.enc.ApplyCondition(combat.ConditionRequest{
		TargetID: st.Target, Condition: st.Condition, Duration: dur, Save: save, Source: st.Source, Force: st.Force,
	})
	if err != nil {
		return "", err
	}
	var conflicts []string
	for _, c := range res.Conflicts {
		conflicts = append(conflicts, c.String())
	}
	if res.Applied == nil {
		return fmt.Sprintf("%s not applied to %s: %s", st.Condition, st.Target, strings.Join(conflicts, "; ")), nil
	}
	s := fmt.Sprintf("%s is %s", st.Target, res.Applied.Name)
	if res.Applied.ExpiresAtRound != nil {
		s += fmt.Sprintf(" until round %d", *res.Applied.ExpiresAtRound)
	}
	if len(conflicts) > 0 {
		s += " (forced: " + strings.Join(conflicts, "; ") + ")"
	}
	return s, nil
}

func (x *executor) save(st Step) (string, error) {
	id, err := x.appliedID(st.Target, st.Condition)
	if err != nil {
		return "", err
	}
	state, err := x.enc.Participant(st.Target)
	if err != nil {
		return "", err
	}
	fx, err := x.enc.Effects(st.Target)
	if err != nil {
		return "", err
	}
	var ability creature.Ability
	for _, a := range state.Conditions {
		if a.ID == id && a.Save != nil {
			ability = a.Save.Ability
		}
	}
	mode := dice.ModeNormal
	if ability != "" && fx.HasSaveDisadvantage(ability) {
		mode = dice.ModeDisadvantage
	}
	bonus, err := x.bonus(st, st.Target)
	if err != nil {
		return "", err
	}
	total := x.natural(st.Roll, mode) + bonus
	if ability != "" {
		total += state.Stats.Modifier(ability)
	}
	res, err := x.enc.AttemptSave(id, total)
	if err != nil {
		return "", err
	}
	if res.Success {
		return fmt.Sprintf("%s saves against %s with %d", st.Target, res.Applied.Name, total), nil
	}
	return fmt.Sprintf("%s fails the save against %s with %d", st.Target, res.Applied.Name, total), nil
}

func (x *executor) advance() (string, error) {
	res, err := x.enc.AdvanceTurn()
	if err != nil {
		return "", err
	}
	s := fmt.Sprintf("round %d, %s's turn", res.Round, res.Current.Name)
	for _, a := range res.Expired {
		s += fmt.Sprintf("; %s on %s expired", a.Name, a.ParticipantID)
	}
	for _, p := range res.SavePrompts {
		s += fmt.Sprintf("; %s may save (DC %d %s) against %s", p.ParticipantID, p.DC, p.Ability, p.Name)
	}
	return s, nil
}

// bonus is the step's flat bonus plus the roller's proficiency bonus when proficient.
func (x *executor) bonus(st Step, roller string) (int, error) {
	if !st.Proficient {
		return st.Bonus, nil
	}
	pb, err := x.scenario.proficiency(roller)
	if err != nil {
		return 0, err
	}
	return st.Bonus + pb, nil
}

// appliedID finds the active applied condition of that name on the participant.
func (x *executor) appliedID(participantID, name string) (string, error) {
	state, err := x.enc.Participant(participantID)
	if err != nil {
		return "", err
	}
	for _, a := range state.Conditions {
		if strings.EqualFold(a.ConditionID, name) || strings.EqualFold(a.Name, name) {
			return a.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s has no active %q", condition.ErrAppliedNotFound, participantID, name)
}

func (x *executor) natural(roll *int, mode dice.Mode) int {
	if roll != nil {
		return *roll
	}
	return x.roller.RollD20(mode).Natural
}

func describeDamage(out combat.DamageOutcome) string {
	s := fmt.Sprintf("%d %s damage, hp %d", out.Damage.Final, out.Damage.Type, out.HPAfter)
	if out.AbsorbedByTempHP > 0 {
		s += fmt.Sprintf(" (%d absorbed)", out.AbsorbedByTempHP)
	}
	if out.MassiveDamage {
		s += ", massive damage"
	}
	switch {
	case out.Died:
		s += ", dead"
	case out.DroppedToZero:
		s += ", down"
	}
	return s
}

func orderString(ps []combat.Participant) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = fmt.Sprintf("%s(%d)", p.Name, p.Initiative)
	}
	return strings.Join(names, ", ")
}
