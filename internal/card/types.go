// internal/card/types.go
//
// Core type definitions for the escape-room progression engine.
// Defines:
//   - Kind: the input-spec variant tag (numeric/image).
//   - InputSpec: the shape of one answer-entry form.
//   - Card: a single immutable puzzle definition.
//   - FinalRule: which card ends the game, and with what.

package card

import (
	"fmt"
	"regexp"
)

// Kind tags the variant of an InputSpec.
// Possible values:
//   - "numeric": fields accept a number within optional bounds.
//   - "image":   fields select one image from a named set.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindImage        = "image"
)

// InputSpec describes one answer-entry form: how many fields, and what
// each field accepts. Construct via NumericInput or ImageInput only;
// a zero-value InputSpec has no Kind and is rejected by the catalog.
type InputSpec struct {
	Kind   Kind
	Fields int // number of entry fields, >= 1

	// Numeric variant.
	Min int // minimum permitted per field
	Max int // maximum permitted per field (-1 = no limit)

	// Image variant.
	ImageSet   string // resource bucket of selectable images
	ImageCount int    // number of choices, 1-indexed
}

// NumericInput builds the numeric InputSpec variant.
// max = -1 means unbounded.
func NumericInput(fields, min, max int) InputSpec {
	return InputSpec{Kind: KindNumeric, Fields: fields, Min: min, Max: max}
}

// ImageInput builds the image-choice InputSpec variant.
func ImageInput(fields int, set string, count int) InputSpec {
	return InputSpec{Kind: KindImage, Fields: fields, ImageSet: set, ImageCount: count}
}

// Instructions renders the player-facing entry instructions for the spec.
func (s InputSpec) Instructions() string {
	switch s.Kind {
	case KindNumeric:
		out := "Enter a number"
		if s.Max > 0 {
			out += fmt.Sprintf(" between %d and %d (inclusive)", s.Min, s.Max)
		}
		if s.Fields > 1 {
			out += " in each field. No field may be left blank."
		}
		return out
	case KindImage:
		out := fmt.Sprintf("Select an image (1–%d)", s.ImageCount)
		if s.Fields > 1 {
			out += " in each field. No field may be left blank."
		}
		return out
	}
	return ""
}

// Card holds one immutable puzzle definition, keyed by the number
// printed in the corner of the physical card.
type Card struct {
	ID       int       // printed card number, positive, unique
	Input    InputSpec // shape of the answer form
	Expected []int     // correct entries per field; empty = no correct answer exists
	Success  string    // message shown on a correct submission
	Failure  string    // message shown on an incorrect submission
	Collect  []string  // card numbers / envelope codes granted on success
	Discard  []int     // cards physically removed from play on success
}

// Final reports whether this card is the one named by the final rule.
func (c *Card) Final(r FinalRule) bool { return c.ID == r.CardID }

// FinalRule names the terminal card and the item collected on its
// success path, which branches on whether the countdown already expired.
type FinalRule struct {
	CardID         int
	TimeoutCollect string // granted when the clock ran out first
	SuccessCollect string // granted on an in-time finish
}

// linkingCode matches the linking-book item codes ("LK", "LA", ...),
// which are printed on cards despite being letters.
var linkingCode = regexp.MustCompile(`^L[A-Z]$`)

// ItemLabel classifies a collect item as a physical "Card" or "Envelope".
// Numeric ids and L-prefixed linking codes are cards; single letters are
// envelopes.
func ItemLabel(item string) string {
	if item == "" {
		return "Card"
	}
	numeric := true
	for _, r := range item {
		if r < '0' || r > '9' {
			numeric = false
			break
		}
	}
	if numeric || linkingCode.MatchString(item) {
		return "Card"
	}
	return "Envelope"
}
