package combat_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

func newEngine(t *testing.T) *combat.Engine {
	t.Helper()
	roller := dice.NewLoggedRoller(dice.NewSeededSource(3), zap.NewNop())
	return combat.NewEngine(library(t), roller, zap.NewNop(), combat.DefaultOptions())
}

func TestEngine_OneOpenEncounterPerSession(t *testing.T) {
	eng := newEngine(t)
	enc, res, err := eng.StartEncounter("s1", []combat.ParticipantSpec{fighter("a", 12, 0), fighter("b", 8, 0)})
	require.NoError(t, err)
	assert.Equal(t, "a", res.Current.ID)

	_, err = eng.NewEncounter("s1")
	assert.ErrorIs(t, err, rules.ErrInvalidEncounterState)

	got, ok := eng.Get(enc.ID())
	require.True(t, ok)
	assert.Same(t, enc, got)
	got, ok = eng.ForSession("s1")
	require.True(t, ok)
	assert.Same(t, enc, got)

	enc.End()
	next, err := eng.NewEncounter("s1")
	require.NoError(t, err)
	assert.NotEqual(t, enc.ID(), next.ID())
	assert.Len(t, eng.List(), 2)
}

func TestEngine_StartFailureArchives(t *testing.T) {
	eng := newEngine(t)
	_, _, err := eng.StartEncounter("s1", nil)
	assert.ErrorIs(t, err, rules.ErrNoActiveParticipants)
	assert.Empty(t, eng.List())
	_, err = eng.NewEncounter("s1")
	assert.NoError(t, err)
}

func TestEngine_Archive(t *testing.T) {
	eng := newEngine(t)
	enc, _, err := eng.StartEncounter("s1", []combat.ParticipantSpec{fighter("a", 12, 0)})
	require.NoError(t, err)
	eng.Archive(enc.ID())
	assert.Equal(t, combat.StatusCompleted, enc.Status())
	_, ok := eng.Get(enc.ID())
	assert.False(t, ok)
	_, ok = eng.ForSession("s1")
	assert.False(t, ok)
	eng.Archive("unknown")

	_, err = eng.NewEncounter("")
	assert.ErrorIs(t, err, rules.ErrValidation)
}

func TestEngine_ConcurrentSessions(t *testing.T) {
	eng := newEngine(t)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := string(rune('A' + i))
			enc, _, err := eng.StartEncounter(session, []combat.ParticipantSpec{fighter("a", 10, 0), fighter("b", 5, 0)})
			if !assert.NoError(t, err) {
				return
			}
			_, err = enc.AdvanceTurn()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, eng.List(), 20)
}
