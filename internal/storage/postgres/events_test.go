package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	"github.com/cory-johannsen/skirmish/internal/testutil"
)

func setupEventRepo(t *testing.T) (*postgres.EventRepository, *testutil.PostgresContainer) {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewEventRepository(pc.RawPool), pc
}

var at = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func makeEvents(encounterID string, from, to int64) []combat.Event {
	var out []combat.Event
	for seq := from; seq <= to; seq++ {
		out = append(out, combat.Event{
			ID:          fmt.Sprintf("%s-ev-%d", encounterID, seq),
			EncounterID: encounterID,
			Seq:         seq,
			Kind:        combat.EventTurnAdvanced,
			Round:       1,
			At:          at,
			Payload:     map[string]any{"current": "a"},
		})
	}
	return out
}

func TestEventRepository_AppendAndList(t *testing.T) {
	repo, _ := setupEventRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.AppendEvents(ctx, makeEvents("enc-1", 1, 4)))
	require.NoError(t, repo.AppendEvents(ctx, makeEvents("enc-2", 1, 1)))

	got, err := repo.ListEvents(ctx, "enc-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.EqualValues(t, 3, got[0].Seq)
	assert.Equal(t, combat.EventTurnAdvanced, got[0].Kind)
	assert.Equal(t, "a", got[0].Payload["current"])
	assert.True(t, at.Equal(got[0].At))

	last, err := repo.LastSeq(ctx, "enc-1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, last)
	last, err = repo.LastSeq(ctx, "unknown")
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestEventRepository_RetriedAppendIsIdempotent(t *testing.T) {
	repo, _ := setupEventRepo(t)
	ctx := context.Background()

	evs := makeEvents("enc-1", 1, 3)
	require.NoError(t, repo.AppendEvents(ctx, evs))
	require.NoError(t, repo.AppendEvents(ctx, evs))
	got, err := repo.ListEvents(ctx, "enc-1", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestEventRepository_Damage(t *testing.T) {
	repo, _ := setupEventRepo(t)
	ctx := context.Background()

	entries := []combat.DamageLogEntry{
		{ID: "d1", EncounterID: "enc-1", Seq: 1, ParticipantID: "a", Amount: 10, RawAmount: 20, Type: creature.Fire, Round: 1, At: at, Source: "fire bolt"},
		{ID: "d2", EncounterID: "enc-1", Seq: 2, ParticipantID: "b", Amount: 7, RawAmount: 7, Type: creature.Slashing, Critical: true, Round: 2, At: at.Add(time.Second)},
	}
	require.NoError(t, repo.AppendDamage(ctx, entries))
	require.NoError(t, repo.AppendDamage(ctx, entries[:1]))

	got, err := repo.ListDamage(ctx, "enc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].ID)
	assert.EqualValues(t, 1, got[0].Seq)
	assert.Equal(t, creature.Fire, got[0].Type)
	assert.Equal(t, 20, got[0].RawAmount)
	assert.Equal(t, "fire bolt", got[0].Source)
	assert.True(t, got[1].Critical)
}

func TestEventRepository_DamageOrderedBySeq(t *testing.T) {
	repo, _ := setupEventRepo(t)
	ctx := context.Background()

	// Same timestamp; IDs sort opposite to append order.
	entries := []combat.DamageLogEntry{
		{ID: "zz", EncounterID: "enc-2", Seq: 1, ParticipantID: "a", Amount: 1, RawAmount: 1, Type: creature.Fire, Round: 1, At: at},
		{ID: "mm", EncounterID: "enc-2", Seq: 2, ParticipantID: "a", Amount: 2, RawAmount: 2, Type: creature.Fire, Round: 1, At: at},
		{ID: "aa", EncounterID: "enc-2", Seq: 3, ParticipantID: "a", Amount: 3, RawAmount: 3, Type: creature.Fire, Round: 1, At: at},
	}
	require.NoError(t, repo.AppendDamage(ctx, []combat.DamageLogEntry{entries[2], entries[0], entries[1]}))

	got, err := repo.ListDamage(ctx, "enc-2")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, d := range got {
		assert.EqualValues(t, i+1, d.Seq)
		assert.Equal(t, entries[i].ID, d.ID)
	}
}

func TestEventRepository_EmptyAppend(t *testing.T) {
	repo, _ := setupEventRepo(t)
	assert.NoError(t, repo.AppendEvents(context.Background(), nil))
	assert.NoError(t, repo.AppendDamage(context.Background(), nil))
}

func TestPool_Health(t *testing.T) {
	_, pc := setupEventRepo(t)
	assert.NoError(t, pc.Pool.Health(context.Background(), 5*time.Second))
}

func TestMigrate_DownThenUp(t *testing.T) {
	_, pc := setupEventRepo(t)
	res, err := postgres.Migrate(pc.DSN(), "up", 0)
	require.NoError(t, err)
	assert.True(t, res.NoChange)
	assert.EqualValues(t, 1, res.Version)

	_, err = postgres.Migrate(pc.DSN(), "down", 1)
	require.NoError(t, err)
	_, err = postgres.Migrate(pc.DSN(), "sideways", 0)
	assert.Error(t, err)
	res, err = postgres.Migrate(pc.DSN(), "up", 0)
	require.NoError(t, err)
	assert.False(t, res.NoChange)
}
