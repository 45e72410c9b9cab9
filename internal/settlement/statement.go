package settlement

import (
	"sort"
	"time"

	"github.com/rewired-gh/auctionledger/internal/models"
)

// Statement builds one participant's detail for the window. It reports false
// when the participant neither bought nor sold inside the window.
func (a *Aggregator) Statement(txs []models.Transaction, dir models.Directory, w models.Window, participantID string) (models.Statement, bool) {
	st := models.Statement{
		Window:    w,
		Sales:     []models.Transaction{},
		Purchases: []models.Transaction{},
	}
	var sellRaw, buyRaw int64
	for _, tx := range txs {
		if !w.Contains(tx.AuctionDate) {
			continue
		}
		if tx.SellerID == participantID {
			st.Sales = append(st.Sales, tx)
			sellRaw += tx.Price
		}
		if tx.BuyerID == participantID {
			st.Purchases = append(st.Purchases, tx)
			buyRaw += tx.Price
		}
	}
	if len(st.Sales) == 0 && len(st.Purchases) == 0 {
		return st, false
	}

	st.Profile, _ = dir.Lookup(participantID)
	st.Balance = a.balance(st.Profile, sellRaw, buyRaw)
	return st, true
}

// AvailableDates returns the distinct auction dates, newest first.
func AvailableDates(txs []models.Transaction) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, tx := range txs {
		if !tx.HasDate() || seen[tx.AuctionDate] {
			continue
		}
		seen[tx.AuctionDate] = true
		dates = append(dates, tx.AuctionDate)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates
}

// Participants returns the sorted ids of everyone who bought or sold in the window.
func Participants(txs []models.Transaction, w models.Window) []string {
	seen := make(map[string]bool)
	ids := []string{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, tx := range txs {
		if w.Contains(tx.AuctionDate) {
			add(tx.SellerID)
			add(tx.BuyerID)
		}
	}
	sort.Strings(ids)
	return ids
}

// WindowTransactions returns the transactions dated inside the window.
func WindowTransactions(txs []models.Transaction, w models.Window) []models.Transaction {
	out := []models.Transaction{}
	for _, tx := range txs {
		if w.Contains(tx.AuctionDate) {
			out = append(out, tx)
		}
	}
	return out
}
