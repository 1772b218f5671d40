package card

import "testing"

func TestAuthorizeUnruledCard(t *testing.T) {
	r := Rules{}
	if ok, _ := r.Authorize(19, map[int]bool{}); !ok {
		t.Fatal("card without a rule should always be allowed")
	}
}

func TestAuthorizeGateHoldsUntilPrerequisitesMet(t *testing.T) {
	r := Rules{8: {Message: "The imager appears to be locked", Requires: []int{31}}}

	ok, msg := r.Authorize(8, map[int]bool{})
	if ok {
		t.Fatal("card 8 should be denied before 31 is submitted")
	}
	if msg != "The imager appears to be locked" {
		t.Fatalf("message = %q", msg)
	}

	if ok, _ = r.Authorize(8, map[int]bool{31: true}); !ok {
		t.Fatal("card 8 should be allowed once 31 is submitted")
	}
}

func TestAuthorizeRequiresEveryPrerequisite(t *testing.T) {
	r := Rules{39: {Message: "The control panel is dark", Requires: []int{3, 21}}}
	if ok, _ := r.Authorize(39, map[int]bool{3: true}); ok {
		t.Fatal("one of two prerequisites should not unlock the card")
	}
	if ok, _ := r.Authorize(39, map[int]bool{3: true, 21: true}); !ok {
		t.Fatal("all prerequisites met should unlock the card")
	}
}
