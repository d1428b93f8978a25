package dice

import (
	"fmt"
	"sort"
)

// Roll evaluates expr using src.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == expr.DiceCount();
// result.Total() == sum(result.Dice) + expr.Modifier.
func Roll(expr Expression, src Source) (RollResult, error) {
	total := 0
	for _, t := range expr.Terms {
		if t.Count < 1 || t.Sides < 2 || t.Sides > MaxSides || t.KeepHighest < 0 || t.KeepHighest > t.Count {
			return RollResult{}, fmt.Errorf("dice: invalid term %dd%d in %q", t.Count, t.Sides, expr.Raw)
		}
		total += t.Count
		if total > MaxDice {
			return RollResult{}, fmt.Errorf("dice: more than %d dice in %q", MaxDice, expr.Raw)
		}
	}
	kept := make([]int, 0, expr.DiceCount())
	for _, t := range expr.Terms {
		rolled := make([]int, t.Count)
		for i := range rolled {
			rolled[i] = src.Intn(t.Sides) + 1
		}
		if t.KeepHighest > 0 {
			sort.Sort(sort.Reverse(sort.IntSlice(rolled)))
			rolled = rolled[:t.KeepHighest]
		}
		kept = append(kept, rolled...)
	}
	return RollResult{
		Expression: expr.Raw,
		Dice:       kept,
		Modifier:   expr.Modifier,
	}, nil
}

// RollExpr parses expr and rolls it using src in a single call.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}
