// Package eventlog moves encounter events and damage records out of an encounter
// into durable sinks.
package eventlog

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

//go:generate mockgen -destination=mocks/mock_sink.go -package=eventlogmocks github.com/cory-johannsen/skirmish/internal/eventlog Sink

// Sink durably records encounter output. Implementations must be safe for
// concurrent use and must treat each call as all-or-nothing.
type Sink interface {
	AppendEvents(ctx context.Context, events []combat.Event) error
	AppendDamage(ctx context.Context, entries []combat.DamageLogEntry) error
}

// LogSink writes every record to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
//
// Precondition: logger must be non-nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// AppendEvents logs each event at info level.
func (s *LogSink) AppendEvents(_ context.Context, events []combat.Event) error {
	for _, ev := range events {
		s.logger.Info("combat event",
			zap.String("encounter_id", ev.EncounterID),
			zap.Int64("seq", ev.Seq),
			zap.String("kind", string(ev.Kind)),
			zap.Int("round", ev.Round),
			zap.String("participant_id", ev.ParticipantID),
			zap.Any("payload", ev.Payload),
		)
	}
	return nil
}

// AppendDamage logs each damage entry at info level.
func (s *LogSink) AppendDamage(_ context.Context, entries []combat.DamageLogEntry) error {
	for _, d := range entries {
		s.logger.Info("damage",
			zap.String("encounter_id", d.EncounterID),
			zap.Int64("seq", d.Seq),
			zap.String("participant_id", d.ParticipantID),
			zap.Int("amount", d.Amount),
			zap.String("type", string(d.Type)),
			zap.Bool("critical", d.Critical),
			zap.String("source", d.Source),
			zap.Int("round", d.Round),
		)
	}
	return nil
}

// Fanout writes to every sink in order and joins their errors.
type Fanout []Sink

// AppendEvents calls AppendEvents on every sink.
func (f Fanout) AppendEvents(ctx context.Context, events []combat.Event) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.AppendEvents(ctx, events))
	}
	return errors.Join(errs...)
}

// AppendDamage calls AppendDamage on every sink.
func (f Fanout) AppendDamage(ctx context.Context, entries []combat.DamageLogEntry) error {
	var errs []error
	for _, s := range f {
		errs = append(errs, s.AppendDamage(ctx, entries))
	}
	return errors.Join(errs...)
}
