package eventlog

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Source is the read side of an encounter. *combat.Encounter satisfies it.
type Source interface {
	ID() string
	EventsSince(seq int64) []combat.Event
	DamageLog() []combat.DamageLogEntry
}

type cursor struct {
	seq    int64
	damage int
}

// Publisher forwards new events and damage entries from encounters to a Sink. It
// remembers, per encounter, what the sink has accepted, so a failed flush is retried
// in full by the next call.
// All methods are safe for concurrent use.
type Publisher struct {
	mu      sync.Mutex
	sink    Sink
	logger  *zap.Logger
	cursors map[string]cursor
}

// NewPublisher creates a Publisher writing to sink.
//
// Precondition: sink and logger must be non-nil.
func NewPublisher(sink Sink, logger *zap.Logger) *Publisher {
	return &Publisher{sink: sink, logger: logger, cursors: make(map[string]cursor)}
}

// FlushResult counts what a Flush delivered.
type FlushResult struct {
	Events int
	Damage int
}

// Flush delivers everything src produced since the last successful flush. Reads from
// src take the encounter lock briefly; sink writes happen outside it.
//
// Postcondition: On error the cursor of the failed stream is unchanged.
func (p *Publisher) Flush(ctx context.Context, src Source) (FlushResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := src.ID()
	cur := p.cursors[id]
	var res FlushResult

	events := src.EventsSince(cur.seq)
	if len(events) > 0 {
		if err := p.sink.AppendEvents(ctx, events); err != nil {
			return res, fmt.Errorf("flushing events of encounter %s: %w", id, err)
		}
		cur.seq = events[len(events)-1].Seq
		res.Events = len(events)
		p.cursors[id] = cur
	}

	log := src.DamageLog()
	if len(log) > cur.damage {
		fresh := log[cur.damage:]
		if err := p.sink.AppendDamage(ctx, fresh); err != nil {
			return res, fmt.Errorf("flushing damage log of encounter %s: %w", id, err)
		}
		cur.damage = len(log)
		res.Damage = len(fresh)
		p.cursors[id] = cur
	}

	if res.Events > 0 || res.Damage > 0 {
		p.logger.Debug("flushed encounter output",
			zap.String("encounter_id", id),
			zap.Int("events", res.Events),
			zap.Int("damage", res.Damage),
		)
	}
	return res, nil
}

// Forget drops the cursor of an archived encounter.
func (p *Publisher) Forget(encounterID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cursors, encounterID)
}
