package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// seqSrc returns vals[i] (0-based Intn results) in order, cycling.
type seqSrc struct {
	vals []int
	i    int
}

func (s *seqSrc) Intn(_ int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3}
	assert.Equal(t, 9, r.DiceTotal())
	assert.Equal(t, 12, r.Total())
	assert.Equal(t, "2d6+3 → [4 5] +3 = 12", r.String())
}

func TestRollResult_String_PanicsOnEmptyExpression(t *testing.T) {
	r := dice.RollResult{Dice: []int{4}}
	assert.Panics(t, func() { _ = r.String() })
}

func TestParse(t *testing.T) {
	tests := []struct {
		in    string
		terms []dice.Term
		mod   int
	}{
		{"d20", []dice.Term{{Count: 1, Sides: 20}}, 0},
		{"2d6+3", []dice.Term{{Count: 2, Sides: 6}}, 3},
		{"4d8-2", []dice.Term{{Count: 4, Sides: 8}}, -2},
		{"4d6kh3", []dice.Term{{Count: 4, Sides: 6, KeepHighest: 3}}, 0},
		{"1d8 + 1d6 + 3", []dice.Term{{Count: 1, Sides: 8}, {Count: 1, Sides: 6}}, 3},
		{"5", nil, 5},
		{"2D6+1-1", []dice.Term{{Count: 2, Sides: 6}}, 0},
	}
	for _, tc := range tests {
		e, err := dice.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.terms, e.Terms, tc.in)
		assert.Equal(t, tc.mod, e.Modifier, tc.in)
		assert.Equal(t, tc.in, e.Raw)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{
		"", "xd6", "2d", "2d1", "0d6", "4d6kh4", "1d6-1d4", "2d6+", "abc",
		"9223372036854775807d6", "1001d6", "1d1001", "600d6+600d6",
	} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "expected error for %q", in)
	}
}

func TestParse_Limits(t *testing.T) {
	e, err := dice.Parse("1000d1000")
	require.NoError(t, err)
	assert.Equal(t, dice.MaxDice, e.DiceCount())

	_, err = dice.RollExpr("9223372036854775807d6", dice.NewSeededSource(1))
	assert.Error(t, err)

	_, err = dice.Roll(dice.Expression{Raw: "x", Terms: []dice.Term{{Count: dice.MaxDice + 1, Sides: 6}}}, dice.NewSeededSource(1))
	assert.Error(t, err)
}

func TestRoll_KeepHighest(t *testing.T) {
	// Intn returns 0-based values: dice become 2, 6, 1, 4.
	src := &seqSrc{vals: []int{1, 5, 0, 3}}
	r, err := dice.RollExpr("4d6kh3", src)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 4, 2}, r.Dice)
	assert.Equal(t, 12, r.Total())
}

func TestRoll_Property_TotalWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		sides := rapid.SampledFrom([]int{4, 6, 8, 10, 12, 20}).Draw(rt, "sides")
		mod := rapid.IntRange(-5, 10).Draw(rt, "mod")
		expr := dice.Expression{Raw: "x", Terms: []dice.Term{{Count: count, Sides: sides}}, Modifier: mod}
		r, err := dice.Roll(expr, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")))
		require.NoError(rt, err)
		assert.Len(rt, r.Dice, count)
		assert.GreaterOrEqual(rt, r.Total(), count+mod)
		assert.LessOrEqual(rt, r.Total(), count*sides+mod)
	})
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, dice.ModeNormal, dice.ModeFor(false, false))
	assert.Equal(t, dice.ModeAdvantage, dice.ModeFor(true, false))
	assert.Equal(t, dice.ModeDisadvantage, dice.ModeFor(false, true))
	assert.Equal(t, dice.ModeNormal, dice.ModeFor(true, true))
}

func TestRollD20(t *testing.T) {
	adv := dice.RollD20(&seqSrc{vals: []int{4, 16}}, dice.ModeAdvantage)
	assert.Equal(t, []int{5, 17}, adv.Rolls)
	assert.Equal(t, 17, adv.Natural)

	dis := dice.RollD20(&seqSrc{vals: []int{4, 16}}, dice.ModeDisadvantage)
	assert.Equal(t, 5, dis.Natural)

	normal := dice.RollD20(&seqSrc{vals: []int{9}}, dice.ModeNormal)
	assert.Equal(t, []int{10}, normal.Rolls)
}

func TestSeededSource_Deterministic(t *testing.T) {
	a, b := dice.NewSeededSource(42), dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(20), b.Intn(20))
	}
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
	assert.Panics(t, func() { src.Intn(0) })
}

func TestRoller_LogsRolls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := dice.NewLoggedRoller(&seqSrc{vals: []int{2}}, zap.New(core))
	res, err := r.RollExpr("1d6+2")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total())
	r.RollD20(dice.ModeAdvantage)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "dice roll", entries[0].Message)
	assert.Equal(t, int64(5), entries[0].ContextMap()["total"])
	assert.Equal(t, "d20 roll", entries[1].Message)
}
