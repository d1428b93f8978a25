package combat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Status is the lifecycle state of an Encounter.
type Status string

const (
	StatusSetup     Status = "setup"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// hpSource marks conditions the encounter applies because HP reached 0.
const hpSource = "hp"

// Options tunes rules behaviour of an Encounter.
type Options struct {
	// MassiveDamage enables instant death when massive damage is taken.
	MassiveDamage bool
	// Resources approves resource costs on attacks. Nil approves everything.
	Resources ResourceChecker
	// Now stamps events. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the standard rules: massive damage kills.
func DefaultOptions() Options {
	return Options{MassiveDamage: true}
}

// ParticipantSpec describes a participant joining an encounter.
type ParticipantSpec struct {
	// ID is generated when empty.
	ID   string
	Name string
	// RecordID optionally links the participant to a character or NPC record.
	RecordID           string
	Stats              creature.View
	InitiativeModifier int
	// InitiativeRoll is the natural d20; nil rolls one.
	InitiativeRoll *int
	// CurrentHP starts the participant below max HP; nil means full.
	CurrentHP *int
}

// Participant is one combatant in turn order. Participants are never deleted; removal
// and death only clear IsActive.
type Participant struct {
	ID                 string
	Name               string
	RecordID           string
	InitiativeRoll     int
	InitiativeModifier int
	Initiative         int
	TurnOrder          int
	IsActive           bool
	InactiveReason     string
	Stats              creature.View

	insertion int
}

// ParticipantState is a participant together with its health and conditions.
type ParticipantState struct {
	Participant
	Health     HealthStatus
	Conditions []condition.Applied
	Speed      int
}

// EncounterState is a deep copy of an encounter for presentation and persistence.
type EncounterState struct {
	ID                   string
	SessionID            string
	Status               Status
	Round                int
	TurnIndex            int
	CurrentParticipantID string
	Participants         []ParticipantState
}

// Encounter is the authoritative state of one combat and its only mutation entry point.
// All methods are safe for concurrent use; each takes the encounter lock, so at most
// one mutation is in progress at a time.
type Encounter struct {
	mu        sync.Mutex
	id        string
	sessionID string
	status    Status
	round     int
	turnIndex int

	order  []*Participant
	byID   map[string]*Participant
	health map[string]*Health

	tracker   *condition.Tracker
	roller    *dice.Roller
	opts      Options
	logger    *zap.Logger
	events    []Event
	damageLog []DamageLogEntry
	inserted  int
}

// NewEncounter creates an Encounter in setup status.
//
// Precondition: lib, roller and logger must be non-nil.
// Postcondition: Status() == StatusSetup; a uuid is generated when id is empty.
func NewEncounter(id, sessionID string, lib *condition.Library, roller *dice.Roller, logger *zap.Logger, opts Options) *Encounter {
	if id == "" {
		id = uuid.NewString()
	}
	if opts.Resources == nil {
		opts.Resources = AllowAllResources
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Encounter{
		id:        id,
		sessionID: sessionID,
		status:    StatusSetup,
		byID:      make(map[string]*Participant),
		health:    make(map[string]*Health),
		tracker:   condition.NewTracker(lib),
		roller:    roller,
		opts:      opts,
		logger:    logger.With(zap.String("encounter_id", id)),
	}
}

// ID returns the encounter ID.
func (e *Encounter) ID() string { return e.id }

// SessionID returns the owning session.
func (e *Encounter) SessionID() string { return e.sessionID }

// Status returns the lifecycle status.
func (e *Encounter) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Round returns the current round, 0 before Start.
func (e *Encounter) Round() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.round
}

// EndResult is the outcome of End.
type EndResult struct {
	AlreadyCompleted bool
	Round            int
}

// End completes the encounter. A second call is a no-op that reports AlreadyCompleted.
//
// Postcondition: Status() == StatusCompleted; every later mutation fails.
func (e *Encounter) End() EndResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusCompleted {
		return EndResult{AlreadyCompleted: true, Round: e.round}
	}
	e.status = StatusCompleted
	e.emit(EventEncounterCompleted, "", map[string]any{"rounds": e.round})
	e.logger.Info("encounter completed", zap.Int("round", e.round))
	return EndResult{Round: e.round}
}

// Pause suspends an active encounter. Paused encounters reject combat mutations.
func (e *Encounter) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireActive("pause"); err != nil {
		return err
	}
	e.status = StatusPaused
	e.emit(EventEncounterPaused, "", nil)
	return nil
}

// Resume reactivates a paused encounter.
func (e *Encounter) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusPaused {
		return rules.Errorf(rules.ErrInvalidEncounterState, "resume: encounter %s is %s", e.id, e.status)
	}
	e.status = StatusActive
	e.emit(EventEncounterResumed, "", nil)
	return nil
}

// Snapshot returns a deep copy of the encounter state.
func (e *Encounter) Snapshot() EncounterState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := EncounterState{
		ID:           e.id,
		SessionID:    e.sessionID,
		Status:       e.status,
		Round:        e.round,
		TurnIndex:    e.turnIndex,
		Participants: make([]ParticipantState, 0, len(e.order)),
	}
	if len(e.order) > 0 {
		st.CurrentParticipantID = e.order[e.turnIndex].ID
	}
	for _, p := range e.order {
		st.Participants = append(st.Participants, e.stateOf(p))
	}
	return st
}

// Participant returns the state of one participant.
func (e *Encounter) Participant(id string) (ParticipantState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.participant(id)
	if err != nil {
		return ParticipantState{}, err
	}
	return e.stateOf(p), nil
}

// Effects returns the aggregated condition effects on a participant.
func (e *Encounter) Effects(participantID string) (condition.Effects, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.participant(participantID); err != nil {
		return condition.Effects{}, err
	}
	return e.tracker.Aggregate(participantID), nil
}

// ConditionHistory returns every condition ever applied to a participant.
func (e *Encounter) ConditionHistory(participantID string) ([]condition.Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.participant(participantID); err != nil {
		return nil, err
	}
	return e.tracker.History(participantID), nil
}

// Events returns a copy of every event emitted so far.
func (e *Encounter) Events() []Event {
	return e.EventsSince(0)
}

// EventsSince returns a copy of the events with Seq > seq.
func (e *Encounter) EventsSince(seq int64) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq < 0 {
		seq = 0
	}
	if seq >= int64(len(e.events)) {
		return []Event{}
	}
	out := make([]Event, len(e.events)-int(seq))
	copy(out, e.events[seq:])
	return out
}

// DamageLog returns a copy of the damage log.
func (e *Encounter) DamageLog() []DamageLogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]DamageLogEntry, len(e.damageLog))
	copy(out, e.damageLog)
	return out
}

func (e *Encounter) stateOf(p *Participant) ParticipantState {
	return ParticipantState{
		Participant: *p,
		Health:      e.health[p.ID].Status(),
		Conditions:  e.tracker.Active(p.ID),
		Speed:       e.tracker.Aggregate(p.ID).Speed(p.Stats.Speed()),
	}
}

func (e *Encounter) requireActive(op string) error {
	if e.status != StatusActive {
		return rules.Errorf(rules.ErrInvalidEncounterState, "%s: encounter %s is %s", op, e.id, e.status)
	}
	return nil
}

func (e *Encounter) participant(id string) (*Participant, error) {
	p, ok := e.byID[id]
	if !ok {
		return nil, rules.Errorf(rules.ErrParticipantNotFound, "%q in encounter %s", id, e.id)
	}
	return p, nil
}

func (e *Encounter) activeParticipant(id string) (*Participant, error) {
	p, err := e.participant(id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, rules.Errorf(rules.ErrInvalidStateTransition, "participant %s is inactive (%s)", p.Name, p.InactiveReason)
	}
	return p, nil
}

func (e *Encounter) emit(kind EventKind, participantID string, payload map[string]any) {
	e.events = append(e.events, Event{
		ID:            uuid.NewString(),
		EncounterID:   e.id,
		Seq:           int64(len(e.events)) + 1,
		Kind:          kind,
		Round:         e.round,
		ParticipantID: participantID,
		At:            e.opts.Now(),
		Payload:       payload,
	})
}
