// internal/record/store.go
//
// The persisted session record and its Store interface.
// This is a lightweight persistence layer keeping a single session alive
// across process restarts and browser reloads.
//
// Wire format (shared by every backend):
//   sessionStartTimestamp → epoch millis
//   timeBudgetMinutes     → integer
//   submittedCards        → comma-joined card ids
//
// All three keys are written together, cleared together, and the absence
// of any one of them reads as "no session".

package record

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key names of the persisted record.
const (
	KeyStartedAt = "sessionStartTimestamp"
	KeyBudget    = "timeBudgetMinutes"
	KeySubmitted = "submittedCards"
)

// Record is the durable snapshot of a session.
type Record struct {
	StartedAt     time.Time // when the countdown began
	BudgetMinutes int       // current budget, penalties already applied
	Submitted     []int     // successfully completed cards, in submission order
}

// Usable reports whether the record would still show time on the clock
// at now. A record whose elapsed time meets or exceeds the budget is
// stale and should be cleared rather than resumed.
func (r Record) Usable(now time.Time) bool {
	return now.Sub(r.StartedAt) < time.Duration(r.BudgetMinutes)*time.Minute
}

// Store defines the persistence interface for the session record.
// Implementations may be backed by SQLite, Redis, or memory (tests).
type Store interface {
	// Load reads the record. found is false when any key is absent.
	Load(ctx context.Context) (rec Record, found bool, err error)

	// Save writes all three keys atomically enough for a single writer.
	Save(ctx context.Context, rec Record) error

	// Clear removes all three keys together.
	Clear(ctx context.Context) error
}

// EncodeSubmitted joins card ids for the submittedCards key.
func EncodeSubmitted(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// DecodeSubmitted parses the submittedCards key. An empty string is a
// valid record with zero submissions.
func DecodeSubmitted(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("submittedCards: bad id %q: %w", p, err)
		}
		out = append(out, id)
	}
	return out, nil
}
