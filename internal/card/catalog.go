// internal/card/catalog.go
//
// The card catalog: an immutable id → Card mapping validated as it is
// built. Authoring mistakes (duplicate ids, answer arity not matching
// the input form) are construction-time errors so the process can refuse
// to start; nothing a player types can reach them.

package card

import (
	"errors"
	"fmt"
)

// Catalog authoring errors. Returned wrapped with the offending id.
var (
	ErrDuplicateCardID = errors.New("duplicate card id")
	ErrMalformedCard   = errors.New("malformed card")
)

// Catalog is a read-only set of cards once built. No card is ever added
// or removed at runtime; "discarding" a card is session bookkeeping, not
// catalog mutation.
type Catalog struct {
	cards map[int]*Card
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{cards: make(map[int]*Card)}
}

// Add validates and inserts a card.
//
// Validation rules:
//   - ID must be positive and unused.
//   - Input must be a real variant (NumericInput/ImageInput) with >= 1 field.
//   - len(Expected) must equal the field count, or be zero (a card with
//     no correct answer, a deliberate dead end).
func (c *Catalog) Add(card *Card) error {
	if card.ID <= 0 {
		return fmt.Errorf("card %d: %w: id must be positive", card.ID, ErrMalformedCard)
	}
	if card.Input.Kind != KindNumeric && card.Input.Kind != KindImage {
		return fmt.Errorf("card %d: %w: input must be numeric or image", card.ID, ErrMalformedCard)
	}
	if card.Input.Fields < 1 {
		return fmt.Errorf("card %d: %w: input needs at least one field", card.ID, ErrMalformedCard)
	}
	if n := len(card.Expected); n != 0 && n != card.Input.Fields {
		return fmt.Errorf("card %d: %w: %d expected values for %d fields",
			card.ID, ErrMalformedCard, n, card.Input.Fields)
	}
	if _, ok := c.cards[card.ID]; ok {
		return fmt.Errorf("card %d: %w", card.ID, ErrDuplicateCardID)
	}
	c.cards[card.ID] = card
	return nil
}

// Lookup returns the card for id, or false if no such card exists.
func (c *Catalog) Lookup(id int) (*Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// Len reports the number of cards in the catalog.
func (c *Catalog) Len() int { return len(c.cards) }
