package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
	redisstore "github.com/cory-johannsen/skirmish/internal/storage/redis"
)

type EventStreamSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    redisstore.Client
	stream    *redisstore.EventStream
	ctx       context.Context
}

func (s *EventStreamSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.miniRedis = mr
	s.client = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	stream, err := redisstore.NewEventStream(&redisstore.StreamConfig{Client: s.client, TTL: time.Hour})
	s.Require().NoError(err)
	s.stream = stream
	s.ctx = context.Background()
}

func (s *EventStreamSuite) TearDownTest() {
	_ = s.client.Close()
	s.miniRedis.Close()
}

func events(encounterID string, from, to int64) []combat.Event {
	var out []combat.Event
	for seq := from; seq <= to; seq++ {
		out = append(out, combat.Event{
			ID:          encounterID + "-" + string(rune('0'+seq)),
			EncounterID: encounterID,
			Seq:         seq,
			Kind:        combat.EventTurnAdvanced,
			Round:       1,
		})
	}
	return out
}

func (s *EventStreamSuite) TestAppendAndReadBack() {
	s.Require().NoError(s.stream.AppendEvents(s.ctx, events("e1", 1, 3)))
	s.Require().NoError(s.stream.AppendEvents(s.ctx, events("e1", 4, 5)))

	s.True(s.miniRedis.Exists(s.stream.EventsKey("e1")))
	n, err := s.stream.Len(s.ctx, "e1")
	s.Require().NoError(err)
	s.EqualValues(5, n)

	got, err := s.stream.EventsSince(s.ctx, "e1", 3)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.EqualValues(4, got[0].Seq)
	s.EqualValues(5, got[1].Seq)
	s.Equal(combat.EventTurnAdvanced, got[0].Kind)

	all, err := s.stream.EventsSince(s.ctx, "e1", -1)
	s.Require().NoError(err)
	s.Len(all, 5)
}

func (s *EventStreamSuite) TestEncountersAreSeparated() {
	mixed := append(events("e1", 1, 2), events("e2", 1, 1)...)
	s.Require().NoError(s.stream.AppendEvents(s.ctx, mixed))

	e1, err := s.stream.EventsSince(s.ctx, "e1", 0)
	s.Require().NoError(err)
	s.Len(e1, 2)
	e2, err := s.stream.EventsSince(s.ctx, "e2", 0)
	s.Require().NoError(err)
	s.Len(e2, 1)
	s.Equal("e2", e2[0].EncounterID)
}

func (s *EventStreamSuite) TestTTLApplied() {
	s.Require().NoError(s.stream.AppendEvents(s.ctx, events("e1", 1, 1)))
	s.Equal(time.Hour, s.miniRedis.TTL(s.stream.EventsKey("e1")))
	s.miniRedis.FastForward(2 * time.Hour)
	s.False(s.miniRedis.Exists(s.stream.EventsKey("e1")))
}

func (s *EventStreamSuite) TestKeyPrefix() {
	stream, err := redisstore.NewEventStream(&redisstore.StreamConfig{Client: s.client, KeyPrefix: "skirmish:"})
	s.Require().NoError(err)
	s.Equal("skirmish:e1:events", stream.EventsKey("e1"))
	s.Equal("skirmish:e1:damage", stream.DamageKey("e1"))
	s.Equal("encounter:e1:events", s.stream.EventsKey("e1"))
}

func (s *EventStreamSuite) TestDamageLog() {
	entries := []combat.DamageLogEntry{
		{ID: "d1", EncounterID: "e1", Seq: 1, ParticipantID: "a", Amount: 5, RawAmount: 10, Type: creature.Fire, Round: 2},
		{ID: "d2", EncounterID: "e1", Seq: 2, ParticipantID: "b", Amount: 3, RawAmount: 3, Type: creature.Cold, Critical: true, Round: 2},
	}
	s.Require().NoError(s.stream.AppendDamage(s.ctx, entries))
	got, err := s.stream.DamageLog(s.ctx, "e1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("d1", got[0].ID)
	s.EqualValues(2, got[1].Seq)
	s.Equal(creature.Fire, got[0].Type)
	s.True(got[1].Critical)
}

func (s *EventStreamSuite) TestEmptyAppendIsNoop() {
	s.NoError(s.stream.AppendEvents(s.ctx, nil))
	s.NoError(s.stream.AppendDamage(s.ctx, nil))
	s.Empty(s.miniRedis.Keys())
}

func (s *EventStreamSuite) TestRedisDown() {
	s.miniRedis.Close()
	s.Error(s.stream.AppendEvents(s.ctx, events("e1", 1, 1)))
	_, err := s.stream.EventsSince(s.ctx, "e1", 0)
	s.Error(err)
}

func (s *EventStreamSuite) TestConfigValidation() {
	_, err := redisstore.NewEventStream(nil)
	s.ErrorIs(err, rules.ErrValidation)
	_, err = redisstore.NewEventStream(&redisstore.StreamConfig{})
	s.ErrorIs(err, rules.ErrValidation)
	_, err = redisstore.NewEventStream(&redisstore.StreamConfig{Client: s.client, TTL: -time.Second})
	s.ErrorIs(err, rules.ErrValidation)
}

func (s *EventStreamSuite) TestNewClient() {
	c, err := redisstore.NewClient(s.ctx, redisstore.ClientOptions{Addr: s.miniRedis.Addr()})
	s.Require().NoError(err)
	s.NoError(c.Close())

	_, err = redisstore.NewClient(s.ctx, redisstore.ClientOptions{})
	s.Error(err)
}

func TestEventStreamSuite(t *testing.T) {
	suite.Run(t, new(EventStreamSuite))
}
