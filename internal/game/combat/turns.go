package combat

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// StartResult is the outcome of Start.
type StartResult struct {
	Round     int
	TurnOrder []Participant
	Current   Participant
}

// TurnResult is the outcome of AdvanceTurn. Expired and SavePrompts are only set when
// NewRound is true.
type TurnResult struct {
	Previous    Participant
	Current     Participant
	NewRound    bool
	Round       int
	Expired     []condition.Applied
	SavePrompts []condition.SavePrompt
}

// Start seats the participants, rolls or accepts initiative and begins round 1.
//
// Precondition: Status() == StatusSetup; len(specs) >= 1.
// Postcondition: Status() == StatusActive; Round == 1; the turn is at rank 0.
func (e *Encounter) Start(specs []ParticipantSpec) (StartResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusSetup {
		return StartResult{}, rules.Errorf(rules.ErrInvalidEncounterState, "start: encounter %s is already %s", e.id, e.status)
	}
	if len(specs) == 0 {
		return StartResult{}, rules.Errorf(rules.ErrNoActiveParticipants, "start: encounter %s has no participants", e.id)
	}

	seen := make(map[string]bool, len(specs))
	ps := make([]*Participant, 0, len(specs))
	hs := make(map[string]*Health, len(specs))
	for i, spec := range specs {
		p, h, err := e.newParticipant(spec, i)
		if err != nil {
			return StartResult{}, err
		}
		if seen[p.ID] {
			return StartResult{}, rules.Errorf(rules.ErrValidation, "duplicate participant id %q", p.ID)
		}
		seen[p.ID] = true
		ps = append(ps, p)
		hs[p.ID] = h
	}
	sortTurnOrder(ps)

	e.order = ps
	for _, p := range ps {
		e.byID[p.ID] = p
		e.health[p.ID] = hs[p.ID]
	}
	e.inserted = len(ps)
	e.status = StatusActive
	e.round = 1
	e.turnIndex = 0

	order := e.turnOrder()
	ids := make([]string, len(order))
	for i, p := range order {
		ids[i] = p.ID
	}
	e.emit(EventEncounterStarted, "", map[string]any{"session_id": e.sessionID, "turn_order": ids})
	e.logger.Info("encounter started",
		zap.String("session_id", e.sessionID),
		zap.Int("participants", len(ps)),
	)
	return StartResult{Round: e.round, TurnOrder: order, Current: *e.order[0]}, nil
}

// AddParticipant seats a participant mid-encounter. Whose turn it is does not change.
func (e *Encounter) AddParticipant(spec ParticipantSpec) (Participant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("add participant"); err != nil {
		return Participant{}, err
	}
	p, h, err := e.newParticipant(spec, e.inserted)
	if err != nil {
		return Participant{}, err
	}
	if _, exists := e.byID[p.ID]; exists {
		return Participant{}, rules.Errorf(rules.ErrValidation, "duplicate participant id %q", p.ID)
	}
	e.inserted++
	e.byID[p.ID] = p
	e.health[p.ID] = h
	e.resort(func() { e.order = append(e.order, p) })

	e.emit(EventParticipantAdded, p.ID, map[string]any{
		"name": p.Name, "initiative": p.Initiative, "turn_order": p.TurnOrder,
	})
	e.logger.Debug("participant added", zap.String("participant_id", p.ID), zap.Int("initiative", p.Initiative))
	return *p, nil
}

// RemoveParticipant marks a participant inactive, e.g. because they fled.
func (e *Encounter) RemoveParticipant(id, reason string) (Participant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("remove participant"); err != nil {
		return Participant{}, err
	}
	p, err := e.activeParticipant(id)
	if err != nil {
		return Participant{}, err
	}
	if reason == "" {
		reason = "removed"
	}
	p.IsActive = false
	p.InactiveReason = reason
	e.emit(EventParticipantRemoved, p.ID, map[string]any{"reason": reason})
	return *p, nil
}

// AdvanceTurn moves to the next active participant. Wrapping past the end of turn
// order starts a new round and advances every condition's duration.
//
// Postcondition: Returns an error wrapping rules.ErrNoActiveParticipants when nobody
// is active; otherwise Current.IsActive is true.
func (e *Encounter) AdvanceTurn() (TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("advance turn"); err != nil {
		return TurnResult{}, err
	}

	n := len(e.order)
	next, wrapped := -1, false
	for step := 1; step <= n; step++ {
		raw := e.turnIndex + step
		if e.order[raw%n].IsActive {
			next, wrapped = raw%n, raw >= n
			break
		}
	}
	if next < 0 {
		return TurnResult{}, rules.Errorf(rules.ErrNoActiveParticipants, "advance turn: encounter %s", e.id)
	}

	res := TurnResult{Previous: *e.order[e.turnIndex]}
	e.turnIndex = next
	if wrapped {
		e.round++
		res.NewRound = true
		e.emit(EventRoundStarted, "", nil)
		rep := e.tracker.AdvanceRound(e.round)
		res.Expired = rep.Expired
		res.SavePrompts = rep.SavePrompts
		for _, a := range rep.Expired {
			e.emit(EventConditionExpired, a.ParticipantID, map[string]any{
				"applied_id": a.ID, "condition": a.ConditionID,
			})
		}
		for _, sp := range rep.SavePrompts {
			e.emit(EventSavePrompted, sp.ParticipantID, map[string]any{
				"applied_id": sp.AppliedID,
				"condition":  sp.ConditionID,
				"dc":         sp.DC,
				"ability":    string(sp.Ability),
			})
		}
	}
	res.Round = e.round
	res.Current = *e.order[e.turnIndex]
	e.emit(EventTurnAdvanced, res.Current.ID, map[string]any{
		"previous": res.Previous.ID, "new_round": res.NewRound,
	})
	e.logger.Debug("turn advanced",
		zap.String("participant_id", res.Current.ID),
		zap.Int("round", e.round),
		zap.Bool("new_round", res.NewRound),
	)
	return res, nil
}

// ReorderInitiative sets a participant's initiative total and re-sorts turn order
// without advancing the round or changing whose turn it is.
func (e *Encounter) ReorderInitiative(id string, initiative int) ([]Participant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("reorder initiative"); err != nil {
		return nil, err
	}
	p, err := e.participant(id)
	if err != nil {
		return nil, err
	}
	old := p.Initiative
	e.resort(func() { p.Initiative = initiative })
	e.emit(EventInitiativeChanged, p.ID, map[string]any{
		"from": old, "to": initiative, "turn_order": p.TurnOrder,
	})
	return e.turnOrder(), nil
}

// TurnOrder returns copies of the participants in turn order.
func (e *Encounter) TurnOrder() []Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turnOrder()
}

// Current returns the participant whose turn it is.
func (e *Encounter) Current() (Participant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.order) == 0 {
		return Participant{}, rules.Errorf(rules.ErrInvalidEncounterState, "encounter %s has not started", e.id)
	}
	return *e.order[e.turnIndex], nil
}

func (e *Encounter) turnOrder() []Participant {
	out := make([]Participant, len(e.order))
	for i, p := range e.order {
		out[i] = *p
	}
	return out
}

// resort applies mutate, re-sorts turn order and keeps the turn on the same participant.
func (e *Encounter) resort(mutate func()) {
	var current *Participant
	if len(e.order) > 0 {
		current = e.order[e.turnIndex]
	}
	mutate()
	sortTurnOrder(e.order)
	if current != nil {
		e.turnIndex = current.TurnOrder
	}
}

func (e *Encounter) newParticipant(spec ParticipantSpec, insertion int) (*Participant, *Health, error) {
	if spec.Name == "" {
		return nil, nil, rules.Errorf(rules.ErrValidation, "participant name must not be empty")
	}
	maxHP := spec.Stats.MaxHP()
	if maxHP < 1 {
		return nil, nil, rules.Errorf(rules.ErrValidation, "participant %s: max hp must be >= 1, got %d", spec.Name, maxHP)
	}
	h := NewHealth(maxHP, e.opts.MassiveDamage)
	if spec.CurrentHP != nil {
		if *spec.CurrentHP < 1 || *spec.CurrentHP > maxHP {
			return nil, nil, rules.Errorf(rules.ErrValidation, "participant %s: current hp must be in 1..%d, got %d", spec.Name, maxHP, *spec.CurrentHP)
		}
		h.current = *spec.CurrentHP
	}
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}
	p := &Participant{
		ID:                 id,
		Name:               spec.Name,
		RecordID:           spec.RecordID,
		InitiativeModifier: spec.InitiativeModifier,
		IsActive:           true,
		Stats:              spec.Stats,
		insertion:          insertion,
	}
	if err := rollInitiative(p, spec.InitiativeRoll, e.roller); err != nil {
		return nil, nil, err
	}
	return p, h, nil
}
