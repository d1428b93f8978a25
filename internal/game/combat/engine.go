package combat

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Engine manages every encounter of a hosting process, keyed by encounter ID.
// A session has at most one encounter that is not completed.
// All methods are safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	encounters map[string]*Encounter
	bySession  map[string]string

	library *condition.Library
	roller  *dice.Roller
	logger  *zap.Logger
	opts    Options
}

// NewEngine creates an empty Engine.
//
// Precondition: lib, roller and logger must be non-nil.
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(lib *condition.Library, roller *dice.Roller, logger *zap.Logger, opts Options) *Engine {
	return &Engine{
		encounters: make(map[string]*Encounter),
		bySession:  make(map[string]string),
		library:    lib,
		roller:     roller,
		logger:     logger,
		opts:       opts,
	}
}

// Library returns the condition library shared by every encounter.
func (e *Engine) Library() *condition.Library { return e.library }

// NewEncounter registers a new encounter in setup status for sessionID.
//
// Precondition: sessionID must be non-empty.
// Postcondition: Returns an error wrapping rules.ErrInvalidEncounterState when the
// session already has an encounter that is not completed.
func (e *Engine) NewEncounter(sessionID string) (*Encounter, error) {
	if sessionID == "" {
		return nil, rules.Errorf(rules.ErrValidation, "session id must not be empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if id, ok := e.bySession[sessionID]; ok {
		if enc := e.encounters[id]; enc != nil && enc.Status() != StatusCompleted {
			return nil, rules.Errorf(rules.ErrInvalidEncounterState, "session %q already has encounter %s", sessionID, id)
		}
	}
	enc := NewEncounter("", sessionID, e.library, e.roller, e.logger, e.opts)
	e.encounters[enc.ID()] = enc
	e.bySession[sessionID] = enc.ID()
	return enc, nil
}

// StartEncounter creates and starts an encounter for sessionID in one step.
func (e *Engine) StartEncounter(sessionID string, participants []ParticipantSpec) (*Encounter, StartResult, error) {
	enc, err := e.NewEncounter(sessionID)
	if err != nil {
		return nil, StartResult{}, err
	}
	res, err := enc.Start(participants)
	if err != nil {
		e.Archive(enc.ID())
		return nil, StartResult{}, fmt.Errorf("starting encounter: %w", err)
	}
	return enc, res, nil
}

// Get returns the encounter with the given ID.
//
// Postcondition: Returns (encounter, true) if found, or (nil, false) otherwise.
func (e *Engine) Get(id string) (*Encounter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	enc, ok := e.encounters[id]
	return enc, ok
}

// ForSession returns the latest encounter registered for sessionID.
func (e *Engine) ForSession(sessionID string) (*Encounter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	id, ok := e.bySession[sessionID]
	if !ok {
		return nil, false
	}
	enc, ok := e.encounters[id]
	return enc, ok
}

// List returns every registered encounter sorted by ID.
func (e *Engine) List() []*Encounter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Encounter, 0, len(e.encounters))
	for _, enc := range e.encounters {
		out = append(out, enc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Archive ends the encounter if needed and drops it from the registry.
func (e *Engine) Archive(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	enc, ok := e.encounters[id]
	if !ok {
		return
	}
	enc.End()
	delete(e.encounters, id)
	if e.bySession[enc.SessionID()] == id {
		delete(e.bySession, enc.SessionID())
	}
}
