package eventlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/skirmish/internal/eventlog"
	eventlogmocks "github.com/cory-johannsen/skirmish/internal/eventlog/mocks"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

func intp(n int) *int { return &n }

func startedEncounter(t *testing.T) *combat.Encounter {
	t.Helper()
	lib, err := condition.DefaultLibrary()
	require.NoError(t, err)
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	opts := combat.DefaultOptions()
	opts.Now = func() time.Time { return at }
	enc := combat.NewEncounter("enc-1", "session-1", lib, dice.NewLoggedRoller(dice.NewSeededSource(1), zap.NewNop()), zap.NewNop(), opts)
	stats := creature.MustView(creature.Sheet{AC: 12, MaxHP: 10, Speed: 30})
	_, err = enc.Start([]combat.ParticipantSpec{
		{ID: "a", Name: "Ash", InitiativeRoll: intp(15), Stats: stats},
		{ID: "b", Name: "Birch", InitiativeRoll: intp(5), Stats: stats},
	})
	require.NoError(t, err)
	return enc
}

func TestPublisher_FlushDeliversOnlyNewOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := eventlogmocks.NewMockSink(ctrl)
	enc := startedEncounter(t)
	pub := eventlog.NewPublisher(sink, zap.NewNop())
	ctx := context.Background()

	initial := enc.Events()
	sink.EXPECT().AppendEvents(ctx, initial).Return(nil)
	res, err := pub.Flush(ctx, enc)
	require.NoError(t, err)
	assert.Equal(t, len(initial), res.Events)
	assert.Zero(t, res.Damage)

	// Nothing new, no sink calls.
	res, err = pub.Flush(ctx, enc)
	require.NoError(t, err)
	assert.Zero(t, res.Events)

	_, err = enc.ApplyDamage(combat.DamageRequest{TargetID: "b", Amount: 4, Type: creature.Fire, Source: "torch"})
	require.NoError(t, err)
	sink.EXPECT().AppendEvents(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, evs []combat.Event) error {
		require.NotEmpty(t, evs)
		assert.Equal(t, initial[len(initial)-1].Seq+1, evs[0].Seq)
		assert.Equal(t, combat.EventDamageApplied, evs[0].Kind)
		return nil
	})
	sink.EXPECT().AppendDamage(ctx, gomock.Len(1)).Return(nil)
	res, err = pub.Flush(ctx, enc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Damage)
}

func TestPublisher_FailedFlushIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := eventlogmocks.NewMockSink(ctrl)
	enc := startedEncounter(t)
	pub := eventlog.NewPublisher(sink, zap.NewNop())
	ctx := context.Background()

	boom := errors.New("connection reset")
	gomock.InOrder(
		sink.EXPECT().AppendEvents(ctx, enc.Events()).Return(boom),
		sink.EXPECT().AppendEvents(ctx, enc.Events()).Return(nil),
	)
	_, err := pub.Flush(ctx, enc)
	assert.ErrorIs(t, err, boom)
	_, err = pub.Flush(ctx, enc)
	assert.NoError(t, err)
}

func TestPublisher_Forget(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := eventlogmocks.NewMockSink(ctrl)
	enc := startedEncounter(t)
	pub := eventlog.NewPublisher(sink, zap.NewNop())
	ctx := context.Background()

	sink.EXPECT().AppendEvents(ctx, enc.Events()).Return(nil).Times(2)
	_, err := pub.Flush(ctx, enc)
	require.NoError(t, err)
	pub.Forget(enc.ID())
	_, err = pub.Flush(ctx, enc)
	require.NoError(t, err)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := eventlog.NewLogSink(zap.New(core))
	enc := startedEncounter(t)
	_, err := enc.ApplyDamage(combat.DamageRequest{TargetID: "a", Amount: 3, Type: creature.Cold})
	require.NoError(t, err)

	require.NoError(t, sink.AppendEvents(context.Background(), enc.Events()))
	require.NoError(t, sink.AppendDamage(context.Background(), enc.DamageLog()))
	assert.Equal(t, len(enc.Events()), logs.FilterMessage("combat event").Len())
	dmg := logs.FilterMessage("damage").All()
	require.Len(t, dmg, 1)
	assert.Equal(t, "cold", dmg[0].ContextMap()["type"])
}

func TestFanout_JoinsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := eventlogmocks.NewMockSink(ctrl)
	second := eventlogmocks.NewMockSink(ctrl)
	boom := errors.New("down")
	first.EXPECT().AppendDamage(gomock.Any(), gomock.Any()).Return(boom)
	second.EXPECT().AppendDamage(gomock.Any(), gomock.Any()).Return(nil)

	err := eventlog.Fanout{first, second}.AppendDamage(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}
