package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Time allocation constants
const (
	baselineMoves  = 20  // Legal-move count that gets factor 1.0
	complexitySpan = 40  // Extra legal moves needed to double the budget
	maxBankShare   = 0.7 // Never allocate more than this share of the bank

	// NoClockBudget is returned when there is no clock to manage.
	NoClockBudget = 24 * time.Hour
)

// TimeManager splits a running time bank across moves.
type TimeManager struct {
	bank      time.Duration // Remaining clock time
	increment time.Duration // Added per move
	movesToGo int
	unlimited bool

	last time.Time
	now  func() time.Time
}

// NewTimeManager creates a time manager for a bank of remaining time.
// A zero bank means there is no clock.
func NewTimeManager(bank, increment time.Duration, movesToGo int) *TimeManager {
	return newTimeManager(bank, increment, movesToGo, time.Now)
}

func newTimeManager(bank, increment time.Duration, movesToGo int, now func() time.Time) *TimeManager {
	return &TimeManager{
		bank:      bank,
		increment: increment,
		movesToGo: movesToGo,
		unlimited: bank <= 0,
		last:      now(),
		now:       now,
	}
}

// Allocate charges the time since the previous call to the bank and returns
// the budget for the next piece of work on pos. Positions with more legal
// moves get up to twice the base share.
func (tm *TimeManager) Allocate(pos *board.Position) time.Duration {
	now := tm.now()
	tm.bank = max(0, tm.bank-now.Sub(tm.last))
	tm.last = now

	if tm.unlimited {
		return NoClockBudget
	}

	legal := len(pos.LegalMoves())
	factor := clamp(1+float64(legal-baselineMoves)/complexitySpan, 1.0, 2.0)

	base := tm.bank / time.Duration(max(1, tm.movesToGo))
	budget := time.Duration(float64(base)*factor) + tm.increment
	return min(budget, time.Duration(float64(tm.bank)*maxBankShare))
}

// Bank returns the time left on the clock.
func (tm *TimeManager) Bank() time.Duration {
	return tm.bank
}

// Unlimited reports whether the manager has no clock.
func (tm *TimeManager) Unlimited() bool {
	return tm.unlimited
}
