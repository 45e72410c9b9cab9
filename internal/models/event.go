// Package models defines the core domain entities: auction transactions,
// members, settlement balances, VIP standings and hour buckets.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date format used in window ids and APIs.
const DateLayout = "2006-01-02"

// ErrInvalidWindow is returned when a window's bounds are unusable.
var ErrInvalidWindow = errors.New("invalid window")

// Transaction is one winning bid from an auction event.
// A zero AuctionDate means the source row carried no usable date.
type Transaction struct {
	AuctionDate time.Time `json:"auction_date"`
	SellerID    string    `json:"seller_id"`
	ItemName    string    `json:"item_name"`
	Price       int64     `json:"price"`
	BuyerID     string    `json:"buyer_id"`
	BidTimeRaw  string    `json:"bid_time_raw,omitempty"`
}

// HasDate reports whether the transaction can take part in date-windowed aggregates.
func (t Transaction) HasDate() bool {
	return !t.AuctionDate.IsZero()
}

// Validate checks transaction field constraints.
func (t Transaction) Validate() error {
	if t.Price < 0 {
		return errors.New("price must not be negative")
	}
	if strings.TrimSpace(t.SellerID) == "" && strings.TrimSpace(t.BuyerID) == "" {
		return errors.New("transaction needs a seller or a buyer")
	}
	return nil
}

// Window selects the auction dates a settlement covers. From and To are
// inclusive calendar dates; ID identifies the window for fulfillment tracking.
type Window struct {
	ID   string    `json:"id"`
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SingleDay returns the window covering one auction date.
func SingleDay(d time.Time) Window {
	day := truncateDay(d)
	return Window{ID: day.Format(DateLayout), From: day, To: day}
}

// DateRange returns the window covering from..to inclusive.
func DateRange(from, to time.Time) (Window, error) {
	f, t := truncateDay(from), truncateDay(to)
	if f.IsZero() || t.IsZero() {
		return Window{}, fmt.Errorf("%w: both bounds are required", ErrInvalidWindow)
	}
	if t.Before(f) {
		return Window{}, fmt.Errorf("%w: %s is before %s", ErrInvalidWindow, t.Format(DateLayout), f.Format(DateLayout))
	}
	if f.Equal(t) {
		return SingleDay(f), nil
	}
	return Window{
		ID:   f.Format(DateLayout) + ".." + t.Format(DateLayout),
		From: f,
		To:   t,
	}, nil
}

// Contains reports whether date falls inside the window. Undated rows never match.
func (w Window) Contains(date time.Time) bool {
	if date.IsZero() {
		return false
	}
	d := truncateDay(date)
	return !d.Before(w.From) && !d.After(w.To)
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
