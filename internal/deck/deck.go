// internal/deck/deck.go
//
// The authored card deck for the room.
//
// Responsibilities:
//   - Build the full catalog of puzzle cards (answers, success/failure
//     texts, collect/discard instructions).
//   - Declare the dependency gates between cards.
//   - Name the final card and its two ending items.
//
// The deck is a fixed, hand-authored dataset: the game-design document
// in code form. It is validated card by card at load time, so a typo in
// an answer arity or a reused id stops the server at startup instead of
// surfacing mid-game.
//
// Room layout (one section per age):
//   Tomahna      → cards 19, 21, 18, 16
//   Kadish Tolesa → cards 5, 17
//   Channelwood  → cards 31, 8
//   Riven        → cards 3, 39 (final)
// Cards 26 and 29 are physical props with no working answer.

package deck

import (
	"fmt"

	"github.com/robalobadob/escaperoom/go-server/internal/card"
)

// TimeBudgetMinutes is the starting countdown budget for a fresh session.
const TimeBudgetMinutes = 45

// Load builds and validates the authored deck.
// Returns the catalog, the dependency rules, and the final-card rule.
func Load() (*card.Catalog, card.Rules, card.FinalRule, error) {
	c := card.NewCatalog()

	var firstErr error
	add := func(cd *card.Card) {
		if firstErr == nil {
			firstErr = c.Add(cd)
		}
	}

	// --- Tomahna ---
	add(&card.Card{
		ID:       19,
		Input:    card.NumericInput(1, 1, -1),
		Expected: []int{7},
		Success:  "The drawer opens to reveal a note and another strange 3D object",
		Failure:  "The key does not seem to fit here",
		Collect:  []string{"26", "B"},
		Discard:  []int{19},
	})
	add(&card.Card{
		ID:       21,
		Input:    card.NumericInput(4, 0, 9),
		Expected: []int{0, 2, 4, 0},
		Success:  "An image appears on the control panel's screen",
		Failure:  "Nothing happens",
		Collect:  []string{"37"},
		Discard:  []int{21, 26},
	})
	add(&card.Card{
		ID:       18,
		Input:    card.NumericInput(4, 1, 12),
		Expected: []int{1, 4, 5, 11},
		Success:  "You open the case to reveal even more 3D objects",
		Failure:  "You fail to open the case",
		Collect:  []string{"C"},
		Discard:  []int{18},
	})
	add(&card.Card{
		ID:       16,
		Input:    card.NumericInput(1, 1, -1),
		Expected: []int{46},
		Success:  "You open the locked box to find a linking book",
		Failure:  "The box doesn't open",
		Collect:  []string{"LK"},
		Discard:  []int{16},
	})

	// --- Kadish Tolesa ---
	add(&card.Card{
		ID:       5,
		Input:    card.ImageInput(1, "gallery", 6),
		Expected: []int{3}, // gehn's cannen
		Success:  "You notice the image resembles Gehn's cannen",
		Failure:  "Nothing happens",
		Collect:  []string{"17", "E"},
		Discard:  []int{5},
	})
	add(&card.Card{
		ID:       17,
		Input:    card.NumericInput(1, 1, -1),
		Expected: []int{20},
		Success:  "After successfully assembling the tiles, a panel opens on the far side and you find a linking book and another 3D object",
		Failure:  "Nothing happens",
		Collect:  []string{"LC", "F"},
		Discard:  []int{17},
	})

	// --- Channelwood ---
	add(&card.Card{
		ID:       31,
		Input:    card.NumericInput(1, 1, 8),
		Expected: []int{7},
		Success:  "You open the drawer to find a familiar-looking symbol",
		Failure:  "The drawer doesn't open",
		Collect:  []string{"29"},
		Discard:  []int{31},
	})
	add(&card.Card{
		ID:       8,
		Input:    card.ImageInput(1, "imager", 6),
		Expected: []int{4}, // chasm
		Success:  "You see a message from Sirrus to Achenar. While much of it is rather cryptic, he reminds his brother where to find the linking book he hid",
		Failure:  "You see a nonsensical message from Achenar",
		Collect:  []string{"LR", "G"},
		Discard:  []int{8},
	})

	// --- Riven ---
	add(&card.Card{
		ID:       3,
		Input:    card.NumericInput(3, 1, 9),
		Expected: []int{1, 6, 4},
		Success:  "Inside the drawer you find yet another 3D animal. You also hear the control panel on the incinerator come to life.",
		Failure:  "The drawer doesn't open",
		Collect:  []string{"H"},
		Discard:  []int{3},
	})
	add(&card.Card{
		ID:       39,
		Input:    card.ImageInput(4, "animals", 20),
		Expected: []int{3, 12, 16, 20}, // bat, elephant, mole, whark
		Success:  "The incinerator door opens. Fortunately the linking book inside is unburned",
		Failure:  "The door doesn't open",
		Discard:  []int{39},
	})

	// --- Props with no working answer ---
	// These cards exist physically and accept entries, but nothing the
	// player types is correct.
	add(&card.Card{
		ID:      26,
		Input:   card.NumericInput(1, 1, -1),
		Failure: "The object doesn't respond",
	})
	add(&card.Card{
		ID:      29,
		Input:   card.NumericInput(1, 1, 8),
		Failure: "The symbol matches nothing nearby",
	})

	if firstErr != nil {
		return nil, nil, card.FinalRule{}, fmt.Errorf("deck: %w", firstErr)
	}

	rules := card.Rules{
		// The imager only powers on after the symbol drawer (31) is open.
		8: {Message: "The imager appears to be locked", Requires: []int{31}},
		// Card 3's drawer brings the incinerator panel to life.
		39: {Message: "The incinerator control panel is dark", Requires: []int{3}},
	}

	final := card.FinalRule{
		CardID:         39,
		TimeoutCollect: "LS", // the book burned; link home the long way
		SuccessCollect: "LA",
	}

	return c, rules, final, nil
}
