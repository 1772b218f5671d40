// internal/session/session.go
//
// Session state for a single play-through.
// Tracks:
//   - which cards have been submitted successfully (in order),
//   - the remaining time budget (shrunk by failed-submission penalties),
//   - when the countdown started and whether it has run out.
//
// Phase machine: not_started → running → {stopped, expired}. Expiry does
// not end the game: play continues on the expired clock and only the
// final card's ending changes, so expired may still transition to
// stopped when the final card lands.
//
// All methods take the current time explicitly; the process clock is
// injected by the caller, which keeps timer arithmetic testable.

package session

import (
	"sync"
	"time"

	"github.com/robalobadob/escaperoom/go-server/internal/record"
)

// Phase is the coarse timer state.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning          = "running"
	PhaseExpired          = "expired"
	PhaseStopped          = "stopped"
)

// State is the mutable session. Safe for concurrent reads from the
// countdown poll and the display ticker; gameplay writes arrive from a
// single request at a time.
type State struct {
	mu        sync.Mutex
	phase     Phase
	startedAt time.Time
	budget    int // minutes
	submitted map[int]bool
	order     []int // submission order, for a reproducible persisted record
	timedOut  bool
}

// New creates a fresh, not-yet-started session with the given budget.
func New(budgetMinutes int) *State {
	return &State{
		phase:     PhaseNotStarted,
		budget:    budgetMinutes,
		submitted: make(map[int]bool),
	}
}

// Rehydrate rebuilds a running session from a persisted record. The
// countdown resumes from the original start timestamp; time away from
// the room still counts against the budget.
func Rehydrate(rec record.Record) *State {
	s := &State{
		phase:     PhaseRunning,
		startedAt: rec.StartedAt,
		budget:    rec.BudgetMinutes,
		submitted: make(map[int]bool, len(rec.Submitted)),
	}
	for _, id := range rec.Submitted {
		if !s.submitted[id] {
			s.submitted[id] = true
			s.order = append(s.order, id)
		}
	}
	return s
}

// Start begins the countdown. A no-op unless the session is fresh.
func (s *State) Start(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseNotStarted {
		return
	}
	s.phase = PhaseRunning
	if s.startedAt.IsZero() {
		s.startedAt = now
	}
}

// Remaining computes the time left on the clock at now, never below
// zero. Crossing zero while running flips the session to expired and
// latches timedOut, the only place that flag is ever set.
func (s *State) Remaining(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseNotStarted {
		return time.Duration(s.budget) * time.Minute
	}
	left := time.Duration(s.budget)*time.Minute - now.Sub(s.startedAt)
	if left <= 0 {
		if s.phase == PhaseRunning {
			s.phase = PhaseExpired
			s.timedOut = true
		}
		return 0
	}
	return left
}

// Stop ends the countdown for good. Called exactly once, when the final
// card is completed; the timedOut flag keeps whatever value it had.
func (s *State) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseRunning || s.phase == PhaseExpired {
		s.phase = PhaseStopped
	}
}

// Penalize knocks one minute off the budget after a failed submission.
// The running countdown reads the same budget, so the lost minute
// shrinks remaining time immediately. No floor: the budget may go
// non-positive, which Remaining treats as already expired.
func (s *State) Penalize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget--
	return s.budget
}

// MarkSubmitted records a successfully completed card. Resubmitting an
// already-solved card keeps the original order entry.
func (s *State) MarkSubmitted(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted[id] {
		return
	}
	s.submitted[id] = true
	s.order = append(s.order, id)
}

// Has reports whether a card has been submitted successfully.
func (s *State) Has(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted[id]
}

// Submitted returns a copy of the submitted-card set.
func (s *State) Submitted() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]bool, len(s.submitted))
	for id := range s.submitted {
		out[id] = true
	}
	return out
}

// SubmittedOrder returns the submitted cards in submission order.
func (s *State) SubmittedOrder() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int{}, s.order...)
}

// Record snapshots the session as a persistable record.
func (s *State) Record() record.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return record.Record{
		StartedAt:     s.startedAt,
		BudgetMinutes: s.budget,
		Submitted:     append([]int{}, s.order...),
	}
}

// Phase returns the current timer phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// TimedOut reports whether the clock ran out before the final card.
func (s *State) TimedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timedOut
}

// BudgetMinutes returns the current (possibly penalized) budget.
func (s *State) BudgetMinutes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget
}

// StartedAt returns the countdown origin (zero before the game starts).
func (s *State) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}
