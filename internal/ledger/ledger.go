// Package ledger tracks which settlement obligations an operator has marked
// as paid. State is an in-memory overlay keyed by window, direction and
// participant; it is never written back to the transaction source.
package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rewired-gh/auctionledger/internal/models"
)

// Journal optionally records toggles outside the process so a new ledger can
// be seeded from them. Without one the ledger resets on restart.
type Journal interface {
	SaveFulfillment(key models.FulfillmentKey, fulfilled bool) error
	LoadFulfillments() (map[models.FulfillmentKey]bool, error)
	ClearWindow(windowID string) error
}

// Ledger holds fulfillment flags for one session. Every key starts unfulfilled.
// Toggles of different keys are independent; concurrent toggles of the same
// key are last-write-wins.
type Ledger struct {
	mu        sync.Mutex
	session   uuid.UUID
	fulfilled map[models.FulfillmentKey]bool
	journal   Journal
}

// New creates an empty, purely in-memory ledger.
func New() *Ledger {
	return &Ledger{
		session:   uuid.New(),
		fulfilled: make(map[models.FulfillmentKey]bool),
	}
}

// NewWithJournal creates a ledger seeded from and recording into j.
func NewWithJournal(j Journal) (*Ledger, error) {
	l := New()
	state, err := j.LoadFulfillments()
	if err != nil {
		return nil, fmt.Errorf("failed to load fulfillment journal: %w", err)
	}
	for k, v := range state {
		if v {
			l.fulfilled[k] = true
		}
	}
	l.journal = j
	return l, nil
}

// Session identifies this ledger instance; it changes on every restart.
func (l *Ledger) Session() string {
	return l.session.String()
}

// Toggle flips the key between unfulfilled and fulfilled and returns the new state.
func (l *Ledger) Toggle(key models.FulfillmentKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := !l.fulfilled[key]
	if l.journal != nil {
		if err := l.journal.SaveFulfillment(key, next); err != nil {
			return !next, fmt.Errorf("failed to journal toggle: %w", err)
		}
	}
	if next {
		l.fulfilled[key] = true
	} else {
		delete(l.fulfilled, key)
	}
	return next, nil
}

// IsFulfilled reports the current state of the key.
func (l *Ledger) IsFulfilled(key models.FulfillmentKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fulfilled[key]
}

// Remaining sums the amounts of entries still unfulfilled in the given window
// and direction. Keys of other windows are never consulted.
func (l *Ledger) Remaining(windowID string, dir models.Direction, entries []models.SettlementEntry) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, e := range entries {
		key := models.FulfillmentKey{WindowID: windowID, Direction: dir, ParticipantID: e.ParticipantID}
		if !l.fulfilled[key] {
			total += e.Amount
		}
	}
	return total
}

// Fulfilled lists the participant ids marked fulfilled in the window and direction.
func (l *Ledger) Fulfilled(windowID string, dir models.Direction) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := []string{}
	for k := range l.fulfilled {
		if k.WindowID == windowID && k.Direction == dir {
			ids = append(ids, k.ParticipantID)
		}
	}
	sort.Strings(ids)
	return ids
}

// ResetWindow returns every key of the window to unfulfilled.
func (l *Ledger) ResetWindow(windowID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.journal != nil {
		if err := l.journal.ClearWindow(windowID); err != nil {
			return fmt.Errorf("failed to clear journal window: %w", err)
		}
	}
	for k := range l.fulfilled {
		if k.WindowID == windowID {
			delete(l.fulfilled, k)
		}
	}
	return nil
}
