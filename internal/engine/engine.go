// internal/engine/engine.go
//
// The progression controller: the single arbiter of game state.
// Responsibilities:
//   - Start, resume, and reset sessions against the persisted record.
//   - Authorize card opens through the dependency rules.
//   - Judge submissions, apply time penalties, track completed cards.
//   - Branch the final card's ending on timeout status and stop the clock.
//
// Every state-changing action persists the session record synchronously
// right after the mutation, so a crash costs at most one action of
// durability, never consistency. Persistence failures after a mutation
// are logged, not propagated: the in-memory session stays correct.

package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/escaperoom/go-server/internal/card"
	"github.com/robalobadob/escaperoom/go-server/internal/record"
	"github.com/robalobadob/escaperoom/go-server/internal/session"
)

// Player-facing, non-fatal errors.
var (
	ErrCardNotFound = errors.New("card not found")
	ErrNotStarted   = errors.New("game not started")
	ErrNoRecord     = errors.New("no resumable session")
)

// DeniedError carries a dependency rule's custom message.
type DeniedError struct {
	Message string
}

func (e *DeniedError) Error() string { return e.Message }

// countdownInterval is the display-poll period (sub-second, per the
// countdown's polling model).
const countdownInterval = 500 * time.Millisecond

// Engine owns the session and orchestrates catalog, rules, evaluator,
// timer, and record store.
type Engine struct {
	catalog *card.Catalog
	rules   card.Rules
	final   card.FinalRule
	store   record.Store
	budget  int // fresh-session budget, minutes

	now func() time.Time

	mu        sync.Mutex
	sess      *session.State
	countdown *session.Countdown
}

// New builds an engine with a fresh, not-yet-started session.
func New(catalog *card.Catalog, rules card.Rules, final card.FinalRule, store record.Store, budgetMinutes int) *Engine {
	return &Engine{
		catalog: catalog,
		rules:   rules,
		final:   final,
		store:   store,
		budget:  budgetMinutes,
		now:     time.Now,
		sess:    session.New(budgetMinutes),
	}
}

// OpenResult is what the presentation layer needs to render one card's
// answer-entry form.
type OpenResult struct {
	CardID       int
	Input        card.InputSpec
	Instructions string
}

// SubmitResult reports one submission's outcome.
type SubmitResult struct {
	Verdict  card.Verdict
	Message  string
	Collect  []string // items to retrieve, empty unless correct
	Discard  []int    // cards to remove from play, empty unless correct
	Final    bool     // true when this submission completed the final card
	TimedOut bool     // which ending the final card took
}

// Status is a snapshot for displays and the operator console.
type Status struct {
	Phase            session.Phase
	RemainingSeconds int
	TimedOut         bool
	BudgetMinutes    int
	Submitted        []int
}

// Resumable checks the persisted record at launch. A stale record (the
// clock would already read zero) is cleared on sight. Once a game is
// running there is nothing to resume into.
func (e *Engine) Resumable(ctx context.Context) (record.Record, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess.Phase() != session.PhaseNotStarted {
		return record.Record{}, false, nil
	}
	rec, found, err := e.store.Load(ctx)
	if err != nil || !found {
		return record.Record{}, false, err
	}
	if !rec.Usable(e.now()) {
		log.Info().Time("startedAt", rec.StartedAt).Msg("stale session record discarded")
		if err := e.store.Clear(ctx); err != nil {
			return record.Record{}, false, err
		}
		return record.Record{}, false, nil
	}
	return rec, true, nil
}

// Resume answers the operator's confirmation prompt. Accepting
// rehydrates the session and restarts the clock from the original start
// timestamp; declining discards the record and leaves a fresh session.
func (e *Engine) Resume(ctx context.Context, accept bool) error {
	rec, ok, err := e.Resumable(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoRecord
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !accept {
		return e.store.Clear(ctx)
	}
	e.sess = session.Rehydrate(rec)
	e.startCountdownLocked()
	log.Info().
		Time("startedAt", rec.StartedAt).
		Int("budgetMinutes", rec.BudgetMinutes).
		Ints("submitted", rec.Submitted).
		Msg("session resumed")
	return nil
}

// StartGame begins a fresh countdown. A no-op when already running.
// Any leftover record belongs to the new session after this point.
func (e *Engine) StartGame(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess.Phase() != session.PhaseNotStarted {
		return nil
	}
	e.sess.Start(e.now())
	if err := e.store.Save(ctx, e.sess.Record()); err != nil {
		return err
	}
	e.startCountdownLocked()
	log.Info().Int("budgetMinutes", e.sess.BudgetMinutes()).Msg("game started")
	return nil
}

// OpenCard authorizes card id for presentation and returns its input
// spec. Denials change no state; the gate is re-checked on every call.
func (e *Engine) OpenCard(id int) (OpenResult, error) {
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()

	if sess.Phase() == session.PhaseNotStarted {
		return OpenResult{}, ErrNotStarted
	}
	c, ok := e.catalog.Lookup(id)
	if !ok {
		return OpenResult{}, ErrCardNotFound
	}
	if allowed, msg := e.rules.Authorize(id, sess.Submitted()); !allowed {
		return OpenResult{}, &DeniedError{Message: msg}
	}
	return OpenResult{CardID: id, Input: c.Input, Instructions: c.Input.Instructions()}, nil
}

// Submit judges entered values for card id and applies the outcome.
//
//   - incomplete: reported only, no state change, no penalty.
//   - incorrect:  one minute off the budget, persisted immediately.
//   - correct:    card recorded and persisted; the final card stops the
//     clock, clears the record, and picks its ending by timeout status.
func (e *Engine) Submit(ctx context.Context, id int, values []string) (SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess.Phase() == session.PhaseNotStarted {
		return SubmitResult{}, ErrNotStarted
	}
	c, ok := e.catalog.Lookup(id)
	if !ok {
		return SubmitResult{}, ErrCardNotFound
	}

	// Latch expiry before judging, so a final card submitted after the
	// deadline takes the timeout ending even if no poll ran in between.
	e.sess.Remaining(e.now())

	verdict := card.Evaluate(c, values)
	switch verdict {
	case card.VerdictIncomplete:
		return SubmitResult{Verdict: verdict, Message: incompleteMessage(c.Input.Fields)}, nil

	case card.VerdictIncorrect:
		budget := e.sess.Penalize()
		e.persist(ctx)
		log.Info().Int("card", id).Int("budgetMinutes", budget).Msg("incorrect submission, one minute lost")
		return SubmitResult{Verdict: verdict, Message: c.Failure + ". You have lost one minute."}, nil
	}

	// Correct.
	e.sess.MarkSubmitted(id)
	e.persist(ctx)

	res := SubmitResult{Verdict: card.VerdictCorrect}
	if c.Final(e.final) {
		res.Final = true
		res.TimedOut = e.sess.TimedOut()
		item := e.final.SuccessCollect
		if res.TimedOut {
			item = e.final.TimeoutCollect
		}
		res.Collect = []string{item}
		res.Message = collectMessage(c.Success, res.Collect, nil)
		e.stopLocked(ctx)
		log.Info().Bool("timedOut", res.TimedOut).Msg("final card completed, session over")
		return res, nil
	}

	res.Collect = append([]string{}, c.Collect...)
	res.Discard = append([]int{}, c.Discard...)
	res.Message = collectMessage(c.Success, res.Collect, res.Discard)
	log.Info().Int("card", id).Msg("card completed")
	return res, nil
}

// Status snapshots the session for displays.
func (e *Engine) Status() Status {
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()

	remaining := sess.Remaining(e.now())
	return Status{
		Phase:            sess.Phase(),
		RemainingSeconds: int(remaining / time.Second),
		TimedOut:         sess.TimedOut(),
		BudgetMinutes:    sess.BudgetMinutes(),
		Submitted:        sess.SubmittedOrder(),
	}
}

// Reset abandons the current session: countdown cancelled, record
// cleared, fresh state. Operator-only.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked(ctx)
	return nil
}

// stopLocked halts the countdown, clears the record, and replaces the
// session with a fresh one. A completed session leaves no resumable
// state, win or lose.
func (e *Engine) stopLocked(ctx context.Context) {
	e.sess.Stop()
	if e.countdown != nil {
		e.countdown.Stop()
		e.countdown = nil
	}
	if err := e.store.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("clear session record")
	}
	e.sess = session.New(e.budget)
}

// startCountdownLocked launches the display poll for the current session.
func (e *Engine) startCountdownLocked() {
	if e.countdown != nil {
		e.countdown.Stop()
	}
	e.countdown = session.StartCountdown(e.sess, countdownInterval, e.now, nil)
}

// persist writes the session record, logging (not failing) on error:
// the in-memory state is already correct and the next write catches up.
func (e *Engine) persist(ctx context.Context) {
	if err := e.store.Save(ctx, e.sess.Record()); err != nil {
		log.Warn().Err(err).Msg("persist session record")
	}
}

// incompleteMessage matches the entry-validation wording of the room's
// printed instructions.
func incompleteMessage(fields int) string {
	msg := "Enter a value"
	if fields > 1 {
		msg += " in each field"
	}
	return msg + " before clicking submit"
}

// collectMessage composes the success text with the collect and discard
// instructions, labeling each item as a card or an envelope.
func collectMessage(success string, collect []string, discard []int) string {
	msg := success
	if len(collect) > 0 {
		msg += ". Collect the following items:"
		for _, item := range collect {
			msg += " " + card.ItemLabel(item) + " " + item + ","
		}
		msg = strings.TrimSuffix(msg, ",")
	}
	if len(discard) > 0 {
		msg += ". Discard the following cards:"
		for _, id := range discard {
			msg += " " + strconv.Itoa(id) + ","
		}
		msg = strings.TrimSuffix(msg, ",")
	}
	return msg
}
