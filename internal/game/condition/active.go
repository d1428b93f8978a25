package condition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// ErrAppliedNotFound is returned when an applied-condition ID is unknown.
var ErrAppliedNotFound = errors.New("applied condition not found")

// DurationType selects how an applied condition ends.
type DurationType string

const (
	DurationRounds    DurationType = "rounds"
	DurationMinutes   DurationType = "minutes"
	DurationHours     DurationType = "hours"
	DurationUntilSave DurationType = "until_save"
	DurationPermanent DurationType = "permanent"
)

// Duration is a duration type and, for timed types, its length.
type Duration struct {
	Type  DurationType
	Value int
}

// Rounds converts a timed duration to rounds.
//
// Postcondition: Returns (rounds, true) for rounds/minutes/hours; (0, false) otherwise.
func (d Duration) Rounds() (int, bool) {
	switch d.Type {
	case DurationRounds:
		return d.Value, true
	case DurationMinutes:
		return d.Value * rules.RoundsPerMinute, true
	case DurationHours:
		return d.Value * rules.RoundsPerHour, true
	default:
		return 0, false
	}
}

func (d Duration) validate() error {
	switch d.Type {
	case DurationRounds, DurationMinutes, DurationHours:
		if d.Value < 1 {
			return rules.Errorf(rules.ErrValidation, "%s duration must be >= 1, got %d", d.Type, d.Value)
		}
	case DurationUntilSave, DurationPermanent:
	default:
		return rules.Errorf(rules.ErrValidation, "unknown duration type %q", d.Type)
	}
	return nil
}

// Save is the saving throw that can end an applied condition.
type Save struct {
	DC      int
	Ability creature.Ability
}

// EndReason records why an applied condition stopped being active.
type EndReason string

const (
	EndExpired EndReason = "expired"
	EndSaved   EndReason = "saved"
	EndRemoved EndReason = "removed"
)

// Applied is one application of a condition to a participant. Applied records are
// deactivated rather than deleted so the history remains auditable.
type Applied struct {
	ID             string
	ParticipantID  string
	ConditionID    string
	Name           string
	Duration       Duration
	Save           *Save
	Source         string
	AppliedAtRound int
	// ExpiresAtRound is nil for until_save and permanent durations.
	ExpiresAtRound *int
	Active         bool
	EndedAtRound   int
	EndReason      EndReason
}

func (a *Applied) clone() Applied {
	out := *a
	if a.Save != nil {
		s := *a.Save
		out.Save = &s
	}
	if a.ExpiresAtRound != nil {
		r := *a.ExpiresAtRound
		out.ExpiresAtRound = &r
	}
	return out
}

func (a *Applied) end(round int, reason EndReason) {
	a.Active = false
	a.EndedAtRound = round
	a.EndReason = reason
}

// ImmunityView reports condition immunities; creature.View satisfies it.
type ImmunityView interface {
	IsImmuneToCondition(id string) bool
}

// ApplyRequest describes a condition application.
type ApplyRequest struct {
	ParticipantID string
	Condition     string
	Duration      Duration
	Save          *Save
	Source        string
	Round         int
	// Immunities may be nil when the target has none.
	Immunities ImmunityView
	// Force applies despite duplicate/supersede/incompatible conflicts. Immunity
	// cannot be forced.
	Force bool
}

// ApplyResult is the outcome of Apply. Exactly one of Applied and Conflicts is
// meaningful unless the application was forced through conflicts, in which case
// both are set.
type ApplyResult struct {
	Applied   *Applied
	Conflicts []Conflict
}

// SavePrompt asks the caller for a saving throw against an applied condition.
type SavePrompt struct {
	AppliedID     string
	ParticipantID string
	ConditionID   string
	Name          string
	DC            int
	Ability       creature.Ability
}

// RoundReport is the outcome of AdvanceRound.
type RoundReport struct {
	Round       int
	Expired     []Applied
	SavePrompts []SavePrompt
}

// SaveResult is the outcome of AttemptSave.
type SaveResult struct {
	Applied          Applied
	Roll             int
	Success          bool
	ConditionRemoved bool
	Message          string
}

// Tracker owns every applied condition of one encounter.
// It is not safe for concurrent use; the caller must serialise access.
type Tracker struct {
	library *Library
	order   []*Applied
	byID    map[string]*Applied
	newID   func() string
}

// NewTracker creates an empty Tracker resolving names against lib.
//
// Precondition: lib must be non-nil.
func NewTracker(lib *Library) *Tracker {
	return &Tracker{
		library: lib,
		byID:    make(map[string]*Applied),
		newID:   func() string { return uuid.NewString() },
	}
}

// Library returns the condition library this tracker resolves against.
func (t *Tracker) Library() *Library { return t.library }

// Apply validates req, checks it against the participant's active conditions and,
// when there is no conflict (or Force is set), records a new active application.
// No state changes when an error or unforced conflict is returned.
//
// Precondition: req.Round >= 1.
// Postcondition: On success without conflicts, result.Applied.Active is true and
// ExpiresAtRound == AppliedAtRound + rounds for timed durations.
func (t *Tracker) Apply(req ApplyRequest) (ApplyResult, error) {
	def, ok := t.library.Get(req.Condition)
	if !ok {
		return ApplyResult{}, fmt.Errorf("%w: %q", ErrUnknownCondition, req.Condition)
	}
	if req.ParticipantID == "" {
		return ApplyResult{}, rules.Errorf(rules.ErrValidation, "participant id must not be empty")
	}
	if req.Round < 1 {
		return ApplyResult{}, rules.Errorf(rules.ErrValidation, "round must be >= 1, got %d", req.Round)
	}
	if err := req.Duration.validate(); err != nil {
		return ApplyResult{}, err
	}
	if req.Save != nil {
		if req.Save.DC < 1 {
			return ApplyResult{}, rules.Errorf(rules.ErrValidation, "save DC must be >= 1, got %d", req.Save.DC)
		}
		if req.Save.Ability == "" {
			return ApplyResult{}, rules.Errorf(rules.ErrValidation, "save ability must not be empty")
		}
	}
	if req.Duration.Type == DurationUntilSave && req.Save == nil {
		return ApplyResult{}, rules.Errorf(rules.ErrValidation, "until_save duration requires a save")
	}

	if req.Immunities != nil && req.Immunities.IsImmuneToCondition(def.ID) {
		return ApplyResult{Conflicts: []Conflict{{
			Kind:      ConflictImmune,
			Condition: def.ID,
			Detail:    fmt.Sprintf("participant is immune to %s", def.Name),
		}}}, nil
	}

	conflicts := t.conflicts(req.ParticipantID, def)
	if len(conflicts) > 0 && !req.Force {
		return ApplyResult{Conflicts: conflicts}, nil
	}

	a := &Applied{
		ID:             t.newID(),
		ParticipantID:  req.ParticipantID,
		ConditionID:    def.ID,
		Name:           def.Name,
		Duration:       req.Duration,
		Source:         req.Source,
		AppliedAtRound: req.Round,
		Active:         true,
	}
	if req.Save != nil {
		s := *req.Save
		a.Save = &s
	}
	if rounds, timed := req.Duration.Rounds(); timed {
		exp := req.Round + rounds
		a.ExpiresAtRound = &exp
	}
	t.order = append(t.order, a)
	t.byID[a.ID] = a

	out := a.clone()
	return ApplyResult{Applied: &out, Conflicts: conflicts}, nil
}

// AdvanceRound deactivates every active condition whose ExpiresAtRound <= round
// and returns a save prompt for every remaining active condition that carries a save.
// Rolls are never made here.
func (t *Tracker) AdvanceRound(round int) RoundReport {
	rep := RoundReport{Round: round}
	for _, a := range t.order {
		if !a.Active {
			continue
		}
		if a.ExpiresAtRound != nil && *a.ExpiresAtRound <= round {
			a.end(round, EndExpired)
			rep.Expired = append(rep.Expired, a.clone())
			continue
		}
		if a.Save != nil {
			rep.SavePrompts = append(rep.SavePrompts, SavePrompt{
				AppliedID:     a.ID,
				ParticipantID: a.ParticipantID,
				ConditionID:   a.ConditionID,
				Name:          a.Name,
				DC:            a.Save.DC,
				Ability:       a.Save.Ability,
			})
		}
	}
	return rep
}

// AttemptSave compares roll (the full saving throw total) with the stored DC. A
// success deactivates the condition; a failure leaves it unchanged.
//
// Postcondition: Returns an error wrapping rules.ErrInvalidStateTransition when the
// condition has no save or is no longer active; ErrAppliedNotFound when unknown.
func (t *Tracker) AttemptSave(appliedID string, roll, round int) (SaveResult, error) {
	a, ok := t.byID[appliedID]
	if !ok {
		return SaveResult{}, fmt.Errorf("%w: %q", ErrAppliedNotFound, appliedID)
	}
	if !a.Active {
		return SaveResult{}, rules.Errorf(rules.ErrInvalidStateTransition, "condition %s (%s) is no longer active", a.Name, a.ID)
	}
	if a.Save == nil {
		return SaveResult{}, rules.Errorf(rules.ErrInvalidStateTransition, "condition %s (%s) has no save DC and ends only by duration", a.Name, a.ID)
	}

	res := SaveResult{Roll: roll, Success: roll >= a.Save.DC}
	if res.Success {
		a.end(round, EndSaved)
		res.ConditionRemoved = true
		res.Message = fmt.Sprintf("save %d vs DC %d succeeds; %s ends", roll, a.Save.DC, a.Name)
	} else {
		res.Message = fmt.Sprintf("save %d vs DC %d fails; %s persists", roll, a.Save.DC, a.Name)
	}
	res.Applied = a.clone()
	return res, nil
}

// Remove deactivates an applied condition for a reason outside duration or save rules.
func (t *Tracker) Remove(appliedID string, round int) (Applied, error) {
	a, ok := t.byID[appliedID]
	if !ok {
		return Applied{}, fmt.Errorf("%w: %q", ErrAppliedNotFound, appliedID)
	}
	if !a.Active {
		return Applied{}, rules.Errorf(rules.ErrInvalidStateTransition, "condition %s (%s) is no longer active", a.Name, a.ID)
	}
	a.end(round, EndRemoved)
	return a.clone(), nil
}

// RemoveCondition deactivates every active application of conditionID on participantID.
//
// Postcondition: Has(participantID, conditionID) is false.
func (t *Tracker) RemoveCondition(participantID, conditionID string, round int) []Applied {
	id := strings.ToLower(conditionID)
	var out []Applied
	for _, a := range t.order {
		if a.Active && a.ParticipantID == participantID && a.ConditionID == id {
			a.end(round, EndRemoved)
			out = append(out, a.clone())
		}
	}
	return out
}

// Get returns a copy of the applied condition with the given ID.
func (t *Tracker) Get(appliedID string) (Applied, bool) {
	a, ok := t.byID[appliedID]
	if !ok {
		return Applied{}, false
	}
	return a.clone(), true
}

// Has reports whether participantID has an active application of conditionID.
func (t *Tracker) Has(participantID, conditionID string) bool {
	id := strings.ToLower(conditionID)
	for _, a := range t.order {
		if a.Active && a.ParticipantID == participantID && a.ConditionID == id {
			return true
		}
	}
	return false
}

// Active returns copies of the participant's active conditions in application order.
func (t *Tracker) Active(participantID string) []Applied {
	return t.collect(participantID, true)
}

// History returns copies of every condition ever applied to the participant,
// active or not, in application order.
func (t *Tracker) History(participantID string) []Applied {
	return t.collect(participantID, false)
}

func (t *Tracker) collect(participantID string, activeOnly bool) []Applied {
	out := make([]Applied, 0)
	for _, a := range t.order {
		if a.ParticipantID != participantID || (activeOnly && !a.Active) {
			continue
		}
		out = append(out, a.clone())
	}
	return out
}

func (t *Tracker) activeFor(participantID string) []*Applied {
	var out []*Applied
	for _, a := range t.order {
		if a.Active && a.ParticipantID == participantID {
			out = append(out, a)
		}
	}
	return out
}
