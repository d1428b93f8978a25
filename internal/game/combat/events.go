package combat

import (
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/creature"
)

// EventKind names an encounter event.
type EventKind string

const (
	EventEncounterStarted   EventKind = "encounter_started"
	EventEncounterPaused    EventKind = "encounter_paused"
	EventEncounterResumed   EventKind = "encounter_resumed"
	EventEncounterCompleted EventKind = "encounter_completed"
	EventParticipantAdded   EventKind = "participant_added"
	EventParticipantRemoved EventKind = "participant_removed"
	EventInitiativeChanged  EventKind = "initiative_changed"
	EventTurnAdvanced       EventKind = "turn_advanced"
	EventRoundStarted       EventKind = "round_started"
	EventAttackResolved     EventKind = "attack_resolved"
	EventDamageApplied      EventKind = "damage_applied"
	EventHealingApplied     EventKind = "healing_applied"
	EventTempHPGranted      EventKind = "temp_hp_granted"
	EventParticipantDown    EventKind = "participant_down"
	EventParticipantRevived EventKind = "participant_revived"
	EventParticipantStable  EventKind = "participant_stabilized"
	EventParticipantDied    EventKind = "participant_died"
	EventDeathSave          EventKind = "death_save"
	EventConditionApplied   EventKind = "condition_applied"
	EventConditionConflict  EventKind = "condition_conflict"
	EventConditionExpired   EventKind = "condition_expired"
	EventConditionRemoved   EventKind = "condition_removed"
	EventSavePrompted       EventKind = "save_prompted"
	EventSaveAttempted      EventKind = "save_attempted"
)

// Event is one append-only record of an encounter mutation. Payload values are
// JSON-encodable.
//
// Invariant: Seq is 1 for the first event of an encounter and increases by 1.
type Event struct {
	ID            string         `json:"id"`
	EncounterID   string         `json:"encounter_id"`
	Seq           int64          `json:"seq"`
	Kind          EventKind      `json:"kind"`
	Round         int            `json:"round"`
	ParticipantID string         `json:"participant_id,omitempty"`
	At            time.Time      `json:"at"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// DamageLogEntry is the immutable record of one damage application.
//
// Invariant: Seq is 1 for the first entry of an encounter and increases by 1.
type DamageLogEntry struct {
	ID            string              `json:"id"`
	EncounterID   string              `json:"encounter_id"`
	Seq           int64               `json:"seq"`
	ParticipantID string              `json:"participant_id"`
	Amount        int                 `json:"amount"`
	RawAmount     int                 `json:"raw_amount"`
	Type          creature.DamageType `json:"type"`
	Critical      bool                `json:"critical"`
	Source        string              `json:"source,omitempty"`
	Round         int                 `json:"round"`
	At            time.Time           `json:"at"`
}
