package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression represents a parsed dice expression ready to be rolled.
//
// Invariant: Count >= 1 and Sides >= 2 after a successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2".
//
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", raw)
	}

	// Count before 'd'; defaults to 1 when omitted.
	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
	}
	if count < 1 {
		return Expression{}, fmt.Errorf("dice: die count must be >= 1 in %q", raw)
	}

	rest := s[dIdx+1:]
	modifier := 0
	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		modStr := rest[i:]
		rest = rest[:i]
		var err error
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	sides, err := strconv.Atoi(rest)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: die sides must be >= 2 in %q", raw)
	}

	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error. Intended for compile-time-constant
// expressions such as the unarmed player damage die.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return e
}

// Roll evaluates expr using src and returns the full audit trail.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count; each die in [1, expr.Sides].
func Roll(expr Expression, src Source) (RollResult, error) {
	if expr.Count < 1 || expr.Sides < 2 {
		return RollResult{}, fmt.Errorf("dice: invalid expression %+v", expr)
	}
	result := RollResult{
		Expression: expr.Raw,
		Modifier:   expr.Modifier,
		Dice:       make([]int, 0, expr.Count),
	}
	for i := 0; i < expr.Count; i++ {
		result.Dice = append(result.Dice, src.Intn(expr.Sides)+1)
	}
	return result, nil
}

// RollExpr parses and rolls expr in one step.
//
// Postcondition: Returns a RollResult or a parse error.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}
