package session

import (
	"testing"
	"time"

	"github.com/robalobadob/escaperoom/go-server/internal/record"
)

var t0 = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

func TestStartCapturesOrigin(t *testing.T) {
	s := New(45)
	if s.Phase() != PhaseNotStarted {
		t.Fatalf("phase = %s", s.Phase())
	}
	s.Start(t0)
	if s.Phase() != PhaseRunning {
		t.Fatalf("phase = %s, want running", s.Phase())
	}
	if !s.StartedAt().Equal(t0) {
		t.Fatalf("startedAt = %v", s.StartedAt())
	}
	// A second start must not move the origin.
	s.Start(t0.Add(time.Minute))
	if !s.StartedAt().Equal(t0) {
		t.Fatal("restart moved the countdown origin")
	}
}

func TestRemainingCountsDown(t *testing.T) {
	s := New(45)
	s.Start(t0)
	if got := s.Remaining(t0.Add(5 * time.Minute)); got != 40*time.Minute {
		t.Fatalf("remaining = %v, want 40m", got)
	}
}

func TestExpiryLatchesTimedOut(t *testing.T) {
	s := New(45)
	s.Start(t0)
	if got := s.Remaining(t0.Add(45*time.Minute + time.Second)); got != 0 {
		t.Fatalf("remaining = %v, want 0", got)
	}
	if s.Phase() != PhaseExpired {
		t.Fatalf("phase = %s, want expired", s.Phase())
	}
	if !s.TimedOut() {
		t.Fatal("timedOut should be set")
	}
	// The flag is permanent even if the clock is queried earlier again
	// (it cannot be, but the latch must not depend on query order).
	_ = s.Remaining(t0)
	if !s.TimedOut() {
		t.Fatal("timedOut must stay set")
	}
}

func TestPenaltyShrinksRemainingImmediately(t *testing.T) {
	s := New(45)
	s.Start(t0)
	now := t0.Add(10 * time.Minute)
	before := s.Remaining(now)
	s.Penalize()
	after := s.Remaining(now)
	if before-after != time.Minute {
		t.Fatalf("penalty shifted remaining by %v, want 1m", before-after)
	}
}

func TestPenaltyCanExpireSession(t *testing.T) {
	s := New(2)
	s.Start(t0)
	s.Penalize()
	s.Penalize() // budget now 0
	if got := s.Remaining(t0.Add(time.Second)); got != 0 {
		t.Fatalf("remaining = %v, want 0", got)
	}
	if !s.TimedOut() {
		t.Fatal("non-positive budget should read as expired")
	}
}

func TestStopFromExpired(t *testing.T) {
	s := New(1)
	s.Start(t0)
	_ = s.Remaining(t0.Add(2 * time.Minute))
	if s.Phase() != PhaseExpired {
		t.Fatalf("phase = %s", s.Phase())
	}
	s.Stop()
	if s.Phase() != PhaseStopped {
		t.Fatal("expired session should still stop on final card")
	}
	if !s.TimedOut() {
		t.Fatal("stop must not clear timedOut")
	}
}

func TestRehydrateComputesIdenticalRemaining(t *testing.T) {
	s := New(45)
	s.Start(t0)
	s.MarkSubmitted(3)
	s.MarkSubmitted(5)
	s.MarkSubmitted(8)
	s.Penalize() // budget 44

	rec := s.Record()
	loaded, err := record.DecodeSubmitted(record.EncodeSubmitted(rec.Submitted))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	rec.Submitted = loaded
	s2 := Rehydrate(rec)

	now := t0.Add(20 * time.Minute)
	if s.Remaining(now) != s2.Remaining(now) {
		t.Fatalf("remaining diverged: %v vs %v", s.Remaining(now), s2.Remaining(now))
	}
	for _, id := range []int{3, 5, 8} {
		if !s2.Has(id) {
			t.Fatalf("rehydrated session missing card %d", id)
		}
	}
	if s2.BudgetMinutes() != 44 {
		t.Fatalf("budget = %d, want 44", s2.BudgetMinutes())
	}
}

func TestMarkSubmittedKeepsOrder(t *testing.T) {
	s := New(45)
	s.Start(t0)
	s.MarkSubmitted(8)
	s.MarkSubmitted(3)
	s.MarkSubmitted(8) // resubmission keeps original slot
	got := s.SubmittedOrder()
	if len(got) != 2 || got[0] != 8 || got[1] != 3 {
		t.Fatalf("order = %v", got)
	}
}

func TestCountdownLatchesAndHalts(t *testing.T) {
	s := New(1)
	s.Start(t0)

	// Fake clock already past the deadline: the first tick must expire
	// the session and the goroutine must halt on its own.
	clock := func() time.Time { return t0.Add(2 * time.Minute) }
	c := StartCountdown(s, time.Millisecond, clock, nil)

	deadline := time.After(time.Second)
	for s.Phase() != PhaseExpired {
		select {
		case <-deadline:
			t.Fatal("countdown never expired the session")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	c.Stop() // idempotent with self-halt
	if !s.TimedOut() {
		t.Fatal("timedOut should be set by the poll")
	}
}
