package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Limits on a single expression.
const (
	MaxDice  = 1000
	MaxSides = 1000
)

// Term is one "NdS" group of an expression, optionally keeping only the highest dice.
type Term struct {
	Count       int // number of dice
	Sides       int // faces per die
	KeepHighest int // if > 0, keep only the N highest dice (e.g. 4d6kh3)
}

// Expression is a parsed dice expression: a sum of dice terms plus a flat modifier.
//
// Invariant: every Term has 1 <= Count <= MaxDice and 2 <= Sides <= MaxSides, and the
// terms hold at most MaxDice dice in total.
type Expression struct {
	Raw      string
	Terms    []Term
	Modifier int
}

// DiceCount returns the number of dice kept across all terms.
func (e Expression) DiceCount() int {
	n := 0
	for _, t := range e.Terms {
		if t.KeepHighest > 0 {
			n += t.KeepHighest
		} else {
			n += t.Count
		}
	}
	return n
}

// Parse parses a dice expression string.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2", "4d6kh3", "1d8+1d6+3", "5".
// Dice terms are always added; only flat terms may be negative.
//
// Precondition: expr must be non-empty.
// Postcondition: Returns an Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	out := Expression{Raw: expr}
	total := 0
	for _, tok := range splitTerms(s) {
		sign := 1
		body := tok
		switch body[0] {
		case '+':
			body = body[1:]
		case '-':
			sign = -1
			body = body[1:]
		}
		if body == "" {
			return Expression{}, fmt.Errorf("dice: dangling operator in %q", expr)
		}

		if !strings.Contains(body, "d") {
			n, err := strconv.Atoi(body)
			if err != nil {
				return Expression{}, fmt.Errorf("dice: invalid modifier %q in %q: %w", body, expr, err)
			}
			out.Modifier += sign * n
			continue
		}
		if sign < 0 {
			return Expression{}, fmt.Errorf("dice: subtracted dice term %q not supported in %q", tok, expr)
		}
		term, err := parseTerm(body)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: %w in %q", err, expr)
		}
		out.Terms = append(out.Terms, term)
		total += term.Count
		if total > MaxDice {
			return Expression{}, fmt.Errorf("dice: more than %d dice in %q", MaxDice, expr)
		}
	}
	return out, nil
}

// splitTerms breaks s at every '+' or '-' that is not the first character,
// keeping the operator on the following token.
func splitTerms(s string) []string {
	var toks []string
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i] == '+' || s[i] == '-' {
			toks = append(toks, s[start:i])
			start = i
		}
	}
	return append(toks, s[start:])
}

func parseTerm(body string) (Term, error) {
	dIdx := strings.Index(body, "d")
	count := 1
	if dIdx > 0 {
		n, err := strconv.Atoi(body[:dIdx])
		if err != nil {
			return Term{}, fmt.Errorf("invalid die count %q", body[:dIdx])
		}
		count = n
	}
	if count <= 0 {
		return Term{}, fmt.Errorf("die count must be >= 1")
	}
	if count > MaxDice {
		return Term{}, fmt.Errorf("die count %d exceeds %d", count, MaxDice)
	}

	rest := body[dIdx+1:]
	keep := 0
	if khIdx := strings.Index(rest, "kh"); khIdx >= 0 {
		kh, err := strconv.Atoi(rest[khIdx+2:])
		if err != nil {
			return Term{}, fmt.Errorf("invalid kh value %q", rest[khIdx+2:])
		}
		if kh <= 0 || kh >= count {
			return Term{}, fmt.Errorf("kh value %d must be > 0 and < count %d", kh, count)
		}
		keep = kh
		rest = rest[:khIdx]
	}

	sides, err := strconv.Atoi(rest)
	if err != nil {
		return Term{}, fmt.Errorf("invalid die sides %q", rest)
	}
	if sides < 2 {
		return Term{}, fmt.Errorf("die sides must be >= 2")
	}
	if sides > MaxSides {
		return Term{}, fmt.Errorf("die sides %d exceed %d", sides, MaxSides)
	}
	return Term{Count: count, Sides: sides, KeepHighest: keep}, nil
}

// MustParse parses expr and panics on error. Useful for package-level values.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
