// Package dice provides randomness sources, dice expressions and roll-result
// types for the combat engine. The engine itself never rolls: callers use this
// package to produce the natural rolls they pass in.
package dice

import "fmt"

// RollResult holds the full audit trail for one evaluated expression.
//
// Postcondition: Total() == DiceTotal() + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Dice       []int  // kept die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// DiceTotal returns the sum of the kept dice, excluding the modifier.
func (r RollResult) DiceTotal() int {
	total := 0
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	return r.DiceTotal() + r.Modifier
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
