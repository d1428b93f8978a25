package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/creature"
)

// EventRepository stores encounter events and damage records. Appends are
// idempotent on (encounter_id, seq), so a retried flush never duplicates rows.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates an EventRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// AppendEvents inserts events in a single transaction.
//
// Postcondition: Either every event is stored or none is.
func (r *EventRepository) AppendEvents(ctx context.Context, events []combat.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		payload := ev.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		batch.Queue(
			`INSERT INTO combat_events (encounter_id, seq, id, kind, round, participant_id, occurred_at, payload)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (encounter_id, seq) DO NOTHING`,
			ev.EncounterID, ev.Seq, ev.ID, string(ev.Kind), ev.Round, ev.ParticipantID, ev.At, payload,
		)
	}
	if err := r.sendInTx(ctx, batch); err != nil {
		return fmt.Errorf("inserting events: %w", err)
	}
	return nil
}

// AppendDamage inserts damage entries in a single transaction.
//
// Postcondition: Either every entry is stored or none is.
func (r *EventRepository) AppendDamage(ctx context.Context, entries []combat.DamageLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range entries {
		batch.Queue(
			`INSERT INTO damage_log (id, encounter_id, seq, participant_id, amount, raw_amount, damage_type, critical, source, round, occurred_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT DO NOTHING`,
			d.ID, d.EncounterID, d.Seq, d.ParticipantID, d.Amount, d.RawAmount, string(d.Type), d.Critical, d.Source, d.Round, d.At,
		)
	}
	if err := r.sendInTx(ctx, batch); err != nil {
		return fmt.Errorf("inserting damage log: %w", err)
	}
	return nil
}

func (r *EventRepository) sendInTx(ctx context.Context, batch *pgx.Batch) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListEvents returns the stored events of an encounter with seq > afterSeq, in seq order.
func (r *EventRepository) ListEvents(ctx context.Context, encounterID string, afterSeq int64) ([]combat.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT encounter_id, seq, id, kind, round, participant_id, occurred_at, payload
		 FROM combat_events
		 WHERE encounter_id = $1 AND seq > $2
		 ORDER BY seq`,
		encounterID, afterSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var out []combat.Event
	for rows.Next() {
		var (
			ev   combat.Event
			kind string
		)
		if err := rows.Scan(&ev.EncounterID, &ev.Seq, &ev.ID, &kind, &ev.Round, &ev.ParticipantID, &ev.At, &ev.Payload); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Kind = combat.EventKind(kind)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return out, nil
}

// ListDamage returns the stored damage log of an encounter in seq order.
func (r *EventRepository) ListDamage(ctx context.Context, encounterID string) ([]combat.DamageLogEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, encounter_id, seq, participant_id, amount, raw_amount, damage_type, critical, source, round, occurred_at
		 FROM damage_log
		 WHERE encounter_id = $1
		 ORDER BY seq`,
		encounterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying damage log: %w", err)
	}
	defer rows.Close()

	var out []combat.DamageLogEntry
	for rows.Next() {
		var (
			d  combat.DamageLogEntry
			dt string
		)
		if err := rows.Scan(&d.ID, &d.EncounterID, &d.Seq, &d.ParticipantID, &d.Amount, &d.RawAmount, &dt, &d.Critical, &d.Source, &d.Round, &d.At); err != nil {
			return nil, fmt.Errorf("scanning damage entry: %w", err)
		}
		d.Type = creature.DamageType(dt)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating damage log: %w", err)
	}
	return out, nil
}

// LastSeq returns the highest stored event sequence of an encounter, or 0.
func (r *EventRepository) LastSeq(ctx context.Context, encounterID string) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM combat_events WHERE encounter_id = $1`,
		encounterID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("querying last seq: %w", err)
	}
	return seq, nil
}
