package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// DefaultKeyPrefix prefixes every key when StreamConfig.KeyPrefix is empty.
const DefaultKeyPrefix = "encounter:"

const (
	eventsSuffix = ":events"
	damageSuffix = ":damage"
)

// StreamConfig configures an EventStream.
type StreamConfig struct {
	Client    Client
	KeyPrefix string
	// TTL, when positive, is refreshed on every append.
	TTL time.Duration
}

// Validate reports a missing client.
func (cfg *StreamConfig) Validate() error {
	if cfg == nil {
		return rules.Errorf(rules.ErrValidation, "stream config cannot be nil")
	}
	if cfg.Client == nil {
		return rules.Errorf(rules.ErrValidation, "redis client cannot be nil")
	}
	if cfg.TTL < 0 {
		return rules.Errorf(rules.ErrValidation, "ttl must be >= 0, got %s", cfg.TTL)
	}
	return nil
}

// EventStream appends encounter output to per-encounter Redis lists as JSON.
// Because event sequence numbers are dense and start at 1, list index seq-1 holds
// event seq.
type EventStream struct {
	client Client
	prefix string
	ttl    time.Duration
}

// NewEventStream creates an EventStream.
func NewEventStream(cfg *StreamConfig) (*EventStream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &EventStream{client: cfg.Client, prefix: prefix, ttl: cfg.TTL}, nil
}

// EventsKey returns the list key holding an encounter's events.
func (s *EventStream) EventsKey(encounterID string) string {
	return s.prefix + encounterID + eventsSuffix
}

// DamageKey returns the list key holding an encounter's damage log.
func (s *EventStream) DamageKey(encounterID string) string {
	return s.prefix + encounterID + damageSuffix
}

// AppendEvents pushes events onto their encounters' lists in one transaction.
func (s *EventStream) AppendEvents(ctx context.Context, events []combat.Event) error {
	if len(events) == 0 {
		return nil
	}
	grouped := make(map[string][]any)
	var order []string
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshaling event %d: %w", ev.Seq, err)
		}
		key := s.EventsKey(ev.EncounterID)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], data)
	}
	return s.push(ctx, order, grouped)
}

// AppendDamage pushes damage entries onto their encounters' lists in one transaction.
func (s *EventStream) AppendDamage(ctx context.Context, entries []combat.DamageLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	grouped := make(map[string][]any)
	var order []string
	for _, d := range entries {
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshaling damage entry %s: %w", d.ID, err)
		}
		key := s.DamageKey(d.EncounterID)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], data)
	}
	return s.push(ctx, order, grouped)
}

func (s *EventStream) push(ctx context.Context, order []string, grouped map[string][]any) error {
	pipe := s.client.TxPipeline()
	for _, key := range order {
		pipe.RPush(ctx, key, grouped[key]...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending to redis: %w", err)
	}
	return nil
}

// EventsSince returns the stored events of an encounter with Seq > seq.
func (s *EventStream) EventsSince(ctx context.Context, encounterID string, seq int64) ([]combat.Event, error) {
	if seq < 0 {
		seq = 0
	}
	raw, err := s.client.LRange(ctx, s.EventsKey(encounterID), seq, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading events of encounter %s: %w", encounterID, err)
	}
	out := make([]combat.Event, 0, len(raw))
	for _, r := range raw {
		var ev combat.Event
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			return nil, fmt.Errorf("decoding event of encounter %s: %w", encounterID, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// DamageLog returns the stored damage log of an encounter.
func (s *EventStream) DamageLog(ctx context.Context, encounterID string) ([]combat.DamageLogEntry, error) {
	raw, err := s.client.LRange(ctx, s.DamageKey(encounterID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading damage log of encounter %s: %w", encounterID, err)
	}
	out := make([]combat.DamageLogEntry, 0, len(raw))
	for _, r := range raw {
		var d combat.DamageLogEntry
		if err := json.Unmarshal([]byte(r), &d); err != nil {
			return nil, fmt.Errorf("decoding damage entry of encounter %s: %w", encounterID, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Len returns the number of stored events of an encounter.
func (s *EventStream) Len(ctx context.Context, encounterID string) (int64, error) {
	n, err := s.client.LLen(ctx, s.EventsKey(encounterID)).Result()
	if err != nil {
		return 0, fmt.Errorf("counting events of encounter %s: %w", encounterID, err)
	}
	return n, nil
}
