package dice

// Mode is the advantage state of a d20 roll.
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdvantage
	ModeDisadvantage
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case ModeAdvantage:
		return "advantage"
	case ModeDisadvantage:
		return "disadvantage"
	default:
		return "normal"
	}
}

// ModeFor resolves advantage and disadvantage flags. Having both cancels to normal,
// no matter how many sources granted each.
func ModeFor(advantage, disadvantage bool) Mode {
	switch {
	case advantage && disadvantage:
		return ModeNormal
	case advantage:
		return ModeAdvantage
	case disadvantage:
		return ModeDisadvantage
	default:
		return ModeNormal
	}
}

// D20Roll records a d20 roll made under a Mode.
type D20Roll struct {
	Mode    Mode
	Rolls   []int // one die for normal, two otherwise
	Natural int   // the kept die
}

// RollD20 rolls one d20, or two keeping the higher/lower for advantage/disadvantage.
//
// Postcondition: 1 <= Natural <= 20; Natural is an element of Rolls.
func RollD20(src Source, mode Mode) D20Roll {
	first := src.Intn(20) + 1
	if mode == ModeNormal {
		return D20Roll{Mode: mode, Rolls: []int{first}, Natural: first}
	}
	second := src.Intn(20) + 1
	kept := max(first, second)
	if mode == ModeDisadvantage {
		kept = min(first, second)
	}
	return D20Roll{Mode: mode, Rolls: []int{first, second}, Natural: kept}
}
