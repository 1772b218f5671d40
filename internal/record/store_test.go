package record

import (
	"context"
	"testing"
	"time"
)

func TestSubmittedRoundTrip(t *testing.T) {
	cases := [][]int{
		{},
		{3},
		{3, 5, 8},
	}
	for _, ids := range cases {
		got, err := DecodeSubmitted(EncodeSubmitted(ids))
		if err != nil {
			t.Fatalf("decode(%v): %v", ids, err)
		}
		if len(got) != len(ids) {
			t.Fatalf("round trip %v -> %v", ids, got)
		}
		for i := range ids {
			if got[i] != ids[i] {
				t.Fatalf("round trip %v -> %v", ids, got)
			}
		}
	}
}

func TestDecodeSubmittedRejectsGarbage(t *testing.T) {
	if _, err := DecodeSubmitted("3,x,8"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestRecordUsable(t *testing.T) {
	start := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	rec := Record{StartedAt: start, BudgetMinutes: 45}

	if !rec.Usable(start.Add(44 * time.Minute)) {
		t.Fatal("record inside budget should be usable")
	}
	if rec.Usable(start.Add(45 * time.Minute)) {
		t.Fatal("record at budget boundary should be stale")
	}
	// Penalties shrink the budget and therefore the resume window.
	rec.BudgetMinutes = 40
	if rec.Usable(start.Add(42 * time.Minute)) {
		t.Fatal("penalized record should expire earlier")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if _, found, err := st.Load(ctx); err != nil || found {
		t.Fatalf("fresh store: found=%v err=%v", found, err)
	}

	want := Record{
		StartedAt:     time.UnixMilli(time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC).UnixMilli()),
		BudgetMinutes: 40,
		Submitted:     []int{3, 5, 8},
	}
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := st.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if !got.StartedAt.Equal(want.StartedAt) || got.BudgetMinutes != 40 {
		t.Fatalf("got %+v", got)
	}
	if len(got.Submitted) != 3 || got.Submitted[2] != 8 {
		t.Fatalf("submitted = %v", got.Submitted)
	}

	if err := st.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found, _ := st.Load(ctx); found {
		t.Fatal("cleared store should report no record")
	}
}
