package settlement

import (
	"sort"

	"github.com/rewired-gh/auctionledger/internal/models"
)

// Aggregator turns a window of transactions into per-participant settlements.
type Aggregator struct {
	Fees FeeSchedule
	// IncludeCarriedDebt adds each member's prior-period balance into NetBalance.
	IncludeCarriedDebt bool
}

// NewAggregator creates an Aggregator with the given fee schedule.
func NewAggregator(fees FeeSchedule, includeCarriedDebt bool) *Aggregator {
	return &Aggregator{Fees: fees, IncludeCarriedDebt: includeCarriedDebt}
}

type totals struct {
	sell int64
	buy  int64
}

// Aggregate settles every participant who bought or sold inside the window.
// Positive nets go to PayOut, negative nets to PayIn, zero nets to neither.
// Both lists and Balances are ordered by display name, then participant id.
func (a *Aggregator) Aggregate(txs []models.Transaction, dir models.Directory, w models.Window) models.Settlement {
	var diag models.Diagnostics
	sums := make(map[string]*totals)
	get := func(id string) *totals {
		t, ok := sums[id]
		if !ok {
			t = &totals{}
			sums[id] = t
		}
		return t
	}

	for _, tx := range txs {
		if !tx.HasDate() {
			diag.MissingDates++
			continue
		}
		if !w.Contains(tx.AuctionDate) {
			continue
		}
		// A blank side is skipped; the price still counts for the other side.
		if tx.SellerID != "" {
			get(tx.SellerID).sell += tx.Price
		}
		if tx.BuyerID != "" {
			get(tx.BuyerID).buy += tx.Price
		}
	}

	balances := make([]models.ParticipantBalance, 0, len(sums))
	for id, t := range sums {
		profile, known := dir.Lookup(id)
		if !known {
			diag.UnknownParticipants++
		}
		balances = append(balances, a.balance(profile, t.sell, t.buy))
	}
	sortBalances(balances)

	s := models.Settlement{
		Window:      w,
		Balances:    balances,
		PayIn:       []models.SettlementEntry{},
		PayOut:      []models.SettlementEntry{},
		Diagnostics: diag,
	}
	for _, b := range balances {
		switch b.Status() {
		case models.StatusOwedByShop:
			s.PayOut = append(s.PayOut, models.SettlementEntry{
				ParticipantID: b.ParticipantID,
				DisplayName:   b.DisplayName,
				Amount:        b.NetBalance,
				Direction:     models.DirectionPayout,
			})
		case models.StatusOwesShop:
			s.PayIn = append(s.PayIn, models.SettlementEntry{
				ParticipantID: b.ParticipantID,
				DisplayName:   b.DisplayName,
				Amount:        -b.NetBalance,
				Direction:     models.DirectionCollect,
			})
		}
	}
	return s
}

func (a *Aggregator) balance(profile models.MemberProfile, sellRaw, buyRaw int64) models.ParticipantBalance {
	sellFee, _ := a.Fees.ComputeFees(sellRaw, models.ExemptionStandard)
	_, buyFee := a.Fees.ComputeFees(buyRaw, profile.Exemption)

	b := models.ParticipantBalance{
		ParticipantID: profile.Nickname,
		DisplayName:   profile.DisplayName(),
		Registered:    profile.Registered,
		Exempt:        profile.IsExempt(),
		SellRaw:       sellRaw,
		SellFee:       sellFee,
		SellNet:       sellRaw - sellFee,
		BuyRaw:        buyRaw,
		BuyFee:        buyFee,
		BuyTotal:      buyRaw + buyFee,
	}
	b.NetBalance = b.SellNet - b.BuyTotal
	if a.IncludeCarriedDebt {
		b.CarriedDebt = profile.CarriedDebt
		b.NetBalance += profile.CarriedDebt
	}
	return b
}

func sortBalances(bs []models.ParticipantBalance) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].DisplayName != bs[j].DisplayName {
			return bs[i].DisplayName < bs[j].DisplayName
		}
		return bs[i].ParticipantID < bs[j].ParticipantID
	})
}

// SortByAmount returns a copy of entries ordered by amount, largest first.
// Equal amounts keep their canonical order.
func SortByAmount(entries []models.SettlementEntry) []models.SettlementEntry {
	out := make([]models.SettlementEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	return out
}
