// internal/card/evaluate.go
//
// Answer evaluation for a single card.
// Responsibilities:
//   - Bounce submissions with any blank field before judging correctness.
//   - Judge all fields positionally, all-or-nothing (no partial credit).
//   - Treat an empty expected-values list as "no correct answer exists".
//   - Compare at the value level: "07" and 7 are the same answer.
//
// Evaluation is pure; penalties and session mutation belong to the
// caller, which must not apply them until the verdict is known.

package card

import (
	"strconv"
	"strings"
)

// Verdict is the outcome of evaluating one submission.
// Possible values:
//   - "correct":    every field matched an expected value.
//   - "incorrect":  at least one field was wrong, or the card has no answer.
//   - "incomplete": at least one field was left blank; not judged at all.
type Verdict string

const (
	VerdictCorrect    Verdict = "correct"
	VerdictIncorrect          = "incorrect"
	VerdictIncomplete         = "incomplete"
)

// Evaluate judges entered against the card's expected values.
//
// The blank check runs first and covers missing trailing fields too:
// fewer entered values than fields is the same as leaving them blank.
// A card with no expected values is incorrect for every possible input.
func Evaluate(c *Card, entered []string) Verdict {
	fields := c.Input.Fields
	if len(entered) < fields {
		return VerdictIncomplete
	}
	for i := 0; i < fields; i++ {
		if strings.TrimSpace(entered[i]) == "" {
			return VerdictIncomplete
		}
	}

	if len(c.Expected) == 0 {
		return VerdictIncorrect
	}

	// All fields are compared before the verdict is reported; there are
	// no side effects here to short-circuit around.
	ok := true
	for i := 0; i < fields; i++ {
		if !valueEqual(entered[i], c.Expected[i]) {
			ok = false
		}
	}
	if ok {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

// valueEqual compares a typed field value to an expected number at the
// value level, so incidental formatting like leading zeros or spaces
// does not matter.
func valueEqual(entered string, expected int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(entered))
	if err != nil {
		return false
	}
	return n == expected
}
