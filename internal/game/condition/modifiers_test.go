package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/creature"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

func TestAggregate_Empty(t *testing.T) {
	tr := newTracker(t)
	e := tr.Aggregate("p1")
	assert.Empty(t, e.Sources)
	assert.False(t, e.Incapacitated)
	assert.Nil(t, e.SpeedSet)
	assert.Equal(t, 30, e.Speed(30))
	assert.Equal(t, dice.ModeNormal, e.AttackMode())
	assert.Equal(t, dice.ModeNormal, e.DefenseMode())
}

func TestAggregate_SpeedMostRestrictiveWins(t *testing.T) {
	lib := condition.NewLibrary()
	require.NoError(t, lib.Register(&condition.Definition{ID: "slowed", Name: "Slowed",
		Effects: []condition.Effect{condition.SpeedDelta{Feet: -10}}}))
	require.NoError(t, lib.Register(&condition.Definition{ID: "chilled", Name: "Chilled",
		Effects: []condition.Effect{condition.SpeedDelta{Feet: -5}, condition.SpeedSet{Feet: 20}}}))
	tr := condition.NewTracker(lib)
	apply(t, tr, condition.ApplyRequest{ParticipantID: "p1", Condition: "slowed", Duration: rounds(3), Round: 1})
	apply(t, tr, condition.ApplyRequest{ParticipantID: "p1", Condition: "chilled", Duration: rounds(3), Round: 1})

	e := tr.Aggregate("p1")
	assert.Equal(t, -10, e.SpeedDelta)
	require.NotNil(t, e.SpeedSet)
	assert.Equal(t, 20, *e.SpeedSet)
	assert.Equal(t, 20, e.Speed(30))
	assert.Equal(t, 15, e.Speed(25))
	assert.Equal(t, 0, e.Speed(5))
	assert.Equal(t, []string{"Slowed", "Chilled"}, e.Sources)

	// grappled sets speed to 0, which beats 20.
	lib2, err := condition.DefaultLibrary()
	require.NoError(t, err)
	g, _ := lib2.Get("grappled")
	require.NoError(t, lib.Register(g))
	apply(t, tr, condition.ApplyRequest{ParticipantID: "p1", Condition: "grappled", Duration: rounds(3), Round: 1})
	assert.Equal(t, 0, tr.Aggregate("p1").Speed(30))
}

func TestAggregate_AdvantageCancels(t *testing.T) {
	tr := newTracker(t)
	// blinded: own attacks at disadvantage, attacked with advantage.
	apply(t, tr, condition.ApplyRequest{ParticipantID: "p1", Condition: "blinded", Duration: rounds(3), Round: 1})
	e := tr.Aggregate("p1")
	assert.Equal(t, dice.ModeDisadvantage, e.AttackMode())
	assert.Equal(t, dice.ModeAdvantage, e.DefenseMode())

	// invisible: own attacks at advantage, attacked with disadvantage. Both directions cancel.
	apply(t, tr, condition.ApplyRequest{ParticipantID: "p1", Condition: "invisible", Duration: rounds(3), Round: 1})
	e = tr.Aggregate("p1")
	assert.Equal(t, dice.ModeNormal, e.AttackMode())
	assert.Equal(t, dice.ModeNormal, e.DefenseMode())
}

func TestAggregate_FlagsAndSaves(t *testing.T) {
	tr := newTracker(t)
	apply(t, tr, condition.ApplyRequest{ParticipantID: "p1", Condition: "paralyzed", Duration: rounds(3), Round: 1})
	apply(t, tr, condition.ApplyRequest{ParticipantID: "p1", Condition: "exhaustion", Duration: rounds(3), Round: 1})

	e := tr.Aggregate("p1")
	assert.True(t, e.Incapacitated)
	assert.True(t, e.AutoCritMelee)
	assert.True(t, e.CheckDisadvantage)
	assert.False(t, e.ResistAll)
	assert.True(t, e.AutoFailsSave(creature.Strength))
	assert.True(t, e.AutoFailsSave(creature.Dexterity))
	assert.False(t, e.AutoFailsSave(creature.Wisdom))
	assert.Equal(t, []any{1}, e.Custom["exhaustion_level"])
	assert.True(t, tr.IsIncapacitated("p1"))
	assert.False(t, tr.IsIncapacitated("p2"))
}

func TestAggregate_ExcludesInactive(t *testing.T) {
	tr := newTracker(t)
	a := apply(t, tr, condition.ApplyRequest{ParticipantID: "p1", Condition: "petrified", Duration: rounds(1), Round: 1})
	assert.True(t, tr.Aggregate("p1").ResistAll)
	_, err := tr.Remove(a.ID, 1)
	require.NoError(t, err)
	assert.False(t, tr.Aggregate("p1").ResistAll)
	assert.Empty(t, tr.Aggregate("p1").Sources)
}
