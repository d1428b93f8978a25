package condition

import (
	"fmt"
	"slices"
)

// ConflictKind classifies why an application was not made.
type ConflictKind string

const (
	// ConflictDuplicate: the condition is already active on the participant.
	ConflictDuplicate ConflictKind = "duplicate"
	// ConflictSuperseded: an active condition already includes this one.
	ConflictSuperseded ConflictKind = "superseded"
	// ConflictSupersedes: the new condition includes an active one.
	ConflictSupersedes ConflictKind = "supersedes"
	// ConflictIncompatible: the two conditions cannot be active together.
	ConflictIncompatible ConflictKind = "incompatible"
	// ConflictImmune: the participant is immune to the condition.
	ConflictImmune ConflictKind = "immune"
)

// Conflict is one reason an application needs a caller decision.
type Conflict struct {
	Kind      ConflictKind
	Condition string
	// Existing is the ID of the active applied condition involved, if any.
	Existing string
	Detail   string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s", c.Kind, c.Detail)
}

// conflicts compares def with every active condition on participantID.
func (t *Tracker) conflicts(participantID string, def *Definition) []Conflict {
	var out []Conflict
	for _, a := range t.activeFor(participantID) {
		existing, ok := t.library.Get(a.ConditionID)
		if !ok {
			continue
		}
		switch {
		case existing.ID == def.ID:
			out = append(out, Conflict{
				Kind:      ConflictDuplicate,
				Condition: def.ID,
				Existing:  a.ID,
				Detail:    fmt.Sprintf("%s is already active", def.Name),
			})
		case slices.Contains(existing.Supersedes, def.ID):
			out = append(out, Conflict{
				Kind:      ConflictSuperseded,
				Condition: def.ID,
				Existing:  a.ID,
				Detail:    fmt.Sprintf("active %s already includes %s", existing.Name, def.Name),
			})
		case slices.Contains(def.Supersedes, existing.ID):
			out = append(out, Conflict{
				Kind:      ConflictSupersedes,
				Condition: def.ID,
				Existing:  a.ID,
				Detail:    fmt.Sprintf("%s includes active %s", def.Name, existing.Name),
			})
		case slices.Contains(def.IncompatibleWith, existing.ID) || slices.Contains(existing.IncompatibleWith, def.ID):
			out = append(out, Conflict{
				Kind:      ConflictIncompatible,
				Condition: def.ID,
				Existing:  a.ID,
				Detail:    fmt.Sprintf("%s cannot be active with %s", def.Name, existing.Name),
			})
		}
	}
	return out
}
