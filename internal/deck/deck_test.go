package deck

import (
	"testing"

	"github.com/robalobadob/escaperoom/go-server/internal/card"
)

func TestLoadValidates(t *testing.T) {
	catalog, rules, final, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if catalog.Len() == 0 {
		t.Fatal("empty catalog")
	}
	if final.CardID != 39 {
		t.Fatalf("final card = %d, want 39", final.CardID)
	}
	if _, ok := catalog.Lookup(final.CardID); !ok {
		t.Fatal("final card missing from catalog")
	}
	for id, rule := range rules {
		if _, ok := catalog.Lookup(id); !ok {
			t.Fatalf("rule for unknown card %d", id)
		}
		for _, req := range rule.Requires {
			if _, ok := catalog.Lookup(req); !ok {
				t.Fatalf("card %d requires unknown card %d", id, req)
			}
		}
	}
}

func TestDeckCard21(t *testing.T) {
	catalog, _, _, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c, ok := catalog.Lookup(21)
	if !ok {
		t.Fatal("card 21 missing")
	}
	if v := card.Evaluate(c, []string{"0", "2", "4", "1"}); v != card.VerdictIncorrect {
		t.Fatalf("near miss verdict = %s", v)
	}
	if v := card.Evaluate(c, []string{"0", "2", "4", "0"}); v != card.VerdictCorrect {
		t.Fatalf("correct entry verdict = %s", v)
	}
	if len(c.Collect) != 1 || c.Collect[0] != "37" {
		t.Fatalf("collect = %v, want [37]", c.Collect)
	}
	if len(c.Discard) != 2 || c.Discard[0] != 21 || c.Discard[1] != 26 {
		t.Fatalf("discard = %v, want [21 26]", c.Discard)
	}
}

func TestDeckImagerGate(t *testing.T) {
	_, rules, _, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ok, msg := rules.Authorize(8, map[int]bool{})
	if ok {
		t.Fatal("card 8 should be gated before 31")
	}
	if msg != "The imager appears to be locked" {
		t.Fatalf("gate message = %q", msg)
	}
}

func TestDeckDeadEndCards(t *testing.T) {
	catalog, _, _, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, id := range []int{26, 29} {
		c, ok := catalog.Lookup(id)
		if !ok {
			t.Fatalf("card %d missing", id)
		}
		if len(c.Expected) != 0 {
			t.Fatalf("card %d should have no correct answer", id)
		}
	}
}
