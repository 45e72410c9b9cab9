package settlement

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rewired-gh/auctionledger/internal/models"
)

var auctionDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func tx(seller, buyer string, price int64) models.Transaction {
	return models.Transaction{AuctionDate: auctionDay, SellerID: seller, BuyerID: buyer, Price: price, ItemName: "item"}
}

func member(nick string, exempt bool) models.MemberProfile {
	m := models.MemberProfile{Nickname: nick, RealName: nick, Registered: true}
	if exempt {
		m.Exemption = models.ExemptionExempt
	}
	return m
}

func TestComputeFees(t *testing.T) {
	f := DefaultFeeSchedule()
	tests := []struct {
		amount   int64
		exempt   models.Exemption
		wantSell int64
		wantBuy  int64
	}{
		{1000000, models.ExemptionStandard, 140000, 50000},
		{1000000, models.ExemptionExempt, 140000, 0},
		{0, models.ExemptionStandard, 0, 0},
		{99, models.ExemptionStandard, 13, 4},
		{7, models.ExemptionStandard, 0, 0},
		// 0.14 has no exact float64 form; the decimal product must still floor to 1400.
		{10000, models.ExemptionStandard, 1400, 500},
		{12345679, models.ExemptionStandard, 1728395, 617283},
	}
	for _, tt := range tests {
		sell, buy := f.ComputeFees(tt.amount, tt.exempt)
		if sell != tt.wantSell || buy != tt.wantBuy {
			t.Errorf("ComputeFees(%d, %s) = (%d, %d), want (%d, %d)",
				tt.amount, tt.exempt, sell, buy, tt.wantSell, tt.wantBuy)
		}
	}
}

func TestComputeFees_Monotonic(t *testing.T) {
	f := DefaultFeeSchedule()
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		a := r.Int63n(50_000_000)
		b := a + r.Int63n(1000)
		sa, _ := f.ComputeFees(a, models.ExemptionStandard)
		sb, _ := f.ComputeFees(b, models.ExemptionStandard)
		if sa > sb {
			t.Fatalf("sell fee not monotonic: fee(%d)=%d > fee(%d)=%d", a, sa, b, sb)
		}
		if _, buy := f.ComputeFees(a, models.ExemptionExempt); buy != 0 {
			t.Fatalf("exempt buyer fee for %d = %d", a, buy)
		}
	}
}

func TestNewFeeSchedule(t *testing.T) {
	if _, err := NewFeeSchedule("0.10", "0.03"); err != nil {
		t.Errorf("valid rates rejected: %v", err)
	}
	for _, bad := range [][2]string{{"x", "0.05"}, {"0.14", "-0.1"}, {"1.5", "0.05"}} {
		if _, err := NewFeeSchedule(bad[0], bad[1]); err == nil {
			t.Errorf("expected error for rates %v", bad)
		}
	}
}

func TestAggregate_SingleSale(t *testing.T) {
	a := NewAggregator(DefaultFeeSchedule(), false)
	dir := models.Directory{"A": member("A", false), "B": member("B", false)}

	s := a.Aggregate([]models.Transaction{tx("A", "B", 1_000_000)}, dir, models.SingleDay(auctionDay))

	if len(s.PayOut) != 1 || s.PayOut[0].ParticipantID != "A" || s.PayOut[0].Amount != 860_000 {
		t.Errorf("unexpected pay_out: %+v", s.PayOut)
	}
	if len(s.PayIn) != 1 || s.PayIn[0].ParticipantID != "B" || s.PayIn[0].Amount != 1_050_000 {
		t.Errorf("unexpected pay_in: %+v", s.PayIn)
	}
	var seller, buyer models.ParticipantBalance
	for _, b := range s.Balances {
		switch b.ParticipantID {
		case "A":
			seller = b
		case "B":
			buyer = b
		}
	}
	if seller.SellFee != 140_000 || seller.SellNet != 860_000 || seller.NetBalance != 860_000 {
		t.Errorf("unexpected seller balance: %+v", seller)
	}
	if buyer.BuyFee != 50_000 || buyer.BuyTotal != 1_050_000 || buyer.NetBalance != -1_050_000 {
		t.Errorf("unexpected buyer balance: %+v", buyer)
	}
}

func TestAggregate_ExemptBuyer(t *testing.T) {
	a := NewAggregator(DefaultFeeSchedule(), false)
	dir := models.Directory{"A": member("A", false), "B": member("B", true)}

	s := a.Aggregate([]models.Transaction{tx("A", "B", 1_000_000)}, dir, models.SingleDay(auctionDay))

	if len(s.PayIn) != 1 || s.PayIn[0].Amount != 1_000_000 {
		t.Errorf("exempt buyer should owe the hammer price only: %+v", s.PayIn)
	}
}

func TestAggregate_FeesOnAggregateNotPerLine(t *testing.T) {
	a := NewAggregator(DefaultFeeSchedule(), false)
	var txs []models.Transaction
	for i := 0; i < 10; i++ {
		txs = append(txs, tx("S", "B", 99))
	}
	s := a.Aggregate(txs, models.Directory{}, models.SingleDay(auctionDay))

	for _, b := range s.Balances {
		if b.ParticipantID == "S" && b.SellFee != 138 {
			// per-line flooring would give 10 * 13 = 130
			t.Errorf("sell fee = %d, want floor(990*0.14) = 138", b.SellFee)
		}
		if b.ParticipantID == "B" && b.BuyFee != 49 {
			t.Errorf("buy fee = %d, want floor(990*0.05) = 49", b.BuyFee)
		}
	}
}

func TestAggregate_ZeroSum(t *testing.T) {
	a := NewAggregator(DefaultFeeSchedule(), false)
	r := rand.New(rand.NewSource(7))
	names := []string{"A", "B", "C", "D", "E", "F"}
	dir := models.Directory{"B": member("B", true), "D": member("D", false)}

	for round := 0; round < 50; round++ {
		var txs []models.Transaction
		for i := 0; i < 30; i++ {
			txs = append(txs, tx(names[r.Intn(len(names))], names[r.Intn(len(names))], r.Int63n(2_000_000)))
		}
		s := a.Aggregate(txs, dir, models.SingleDay(auctionDay))

		var sellNet, buyTotal int64
		for _, b := range s.Balances {
			sellNet += b.SellNet
			buyTotal += b.BuyTotal
		}
		if got, want := s.TotalPayOut()-s.TotalPayIn(), sellNet-buyTotal; got != want {
			t.Fatalf("round %d: pay_out - pay_in = %d, want %d", round, got, want)
		}
	}
}

func TestAggregate_SettledParticipantOmitted(t *testing.T) {
	a := NewAggregator(DefaultFeeSchedule(), false)
	// X sells 105 (net 91) and buys 86 + fee 4 = 90, leaving 1; a carried debt of -1 settles it.
	dir := models.Directory{"X": {Nickname: "X", RealName: "X", Registered: true, CarriedDebt: -1}}
	txs := []models.Transaction{tx("X", "Y", 105), tx("Z", "X", 86)}

	withDebt := NewAggregator(DefaultFeeSchedule(), true)
	s := withDebt.Aggregate(txs, dir, models.SingleDay(auctionDay))
	for _, e := range append(s.PayIn, s.PayOut...) {
		if e.ParticipantID == "X" {
			t.Errorf("settled participant must not appear in either list: %+v", e)
		}
	}

	s = a.Aggregate(txs, dir, models.SingleDay(auctionDay))
	found := false
	for _, e := range s.PayOut {
		if e.ParticipantID == "X" && e.Amount == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("without the debt policy X is owed 1: %+v", s.PayOut)
	}
}

func TestAggregate_WindowAndDiagnostics(t *testing.T) {
	a := NewAggregator(DefaultFeeSchedule(), false)
	other := tx("A", "B", 500)
	other.AuctionDate = auctionDay.AddDate(0, 0, 1)
	undated := tx("A", "B", 500)
	undated.AuctionDate = time.Time{}
	sellerOnly := tx("A", "", 1000)

	s := a.Aggregate([]models.Transaction{other, undated, sellerOnly}, models.Directory{}, models.SingleDay(auctionDay))

	if len(s.Balances) != 1 || s.Balances[0].SellRaw != 1000 {
		t.Errorf("unexpected balances: %+v", s.Balances)
	}
	if s.Diagnostics.MissingDates != 1 || s.Diagnostics.UnknownParticipants != 1 {
		t.Errorf("unexpected diagnostics: %+v", s.Diagnostics)
	}
	if len(s.PayIn) != 0 || s.PayIn == nil {
		t.Errorf("pay_in must be an empty list, got %#v", s.PayIn)
	}
}

func TestAggregate_CanonicalOrder(t *testing.T) {
	a := NewAggregator(DefaultFeeSchedule(), false)
	dir := models.Directory{
		"zed": {Nickname: "zed", RealName: "Alice", Registered: true},
		"amy": {Nickname: "amy", RealName: "Alice", Registered: true},
	}
	txs := []models.Transaction{tx("zed", "", 100), tx("amy", "", 100), tx("bob", "", 100)}

	s := a.Aggregate(txs, dir, models.SingleDay(auctionDay))
	var got []string
	for _, e := range s.PayOut {
		got = append(got, e.ParticipantID)
	}
	want := []string{"amy", "zed", "bob"}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSortByAmount(t *testing.T) {
	entries := []models.SettlementEntry{
		{ParticipantID: "a", Amount: 10},
		{ParticipantID: "b", Amount: 30},
		{ParticipantID: "c", Amount: 10},
	}
	sorted := SortByAmount(entries)
	if sorted[0].ParticipantID != "b" || sorted[1].ParticipantID != "a" || sorted[2].ParticipantID != "c" {
		t.Errorf("unexpected order: %+v", sorted)
	}
	if entries[0].ParticipantID != "a" {
		t.Error("input must not be reordered")
	}
}

func TestStatement(t *testing.T) {
	a := NewAggregator(DefaultFeeSchedule(), false)
	txs := []models.Transaction{tx("A", "B", 1_000_000), tx("C", "A", 200_000)}
	dir := models.Directory{"A": member("A", false)}

	st, ok := a.Statement(txs, dir, models.SingleDay(auctionDay), "A")
	if !ok {
		t.Fatal("expected a statement for A")
	}
	if len(st.Sales) != 1 || len(st.Purchases) != 1 {
		t.Errorf("unexpected lines: %+v", st)
	}
	// 860,000 - (200,000 + 10,000)
	if st.Balance.NetBalance != 650_000 {
		t.Errorf("net = %d, want 650000", st.Balance.NetBalance)
	}

	if _, ok := a.Statement(txs, dir, models.SingleDay(auctionDay), "nobody"); ok {
		t.Error("no statement expected for an absent participant")
	}
}

func TestAvailableDatesAndParticipants(t *testing.T) {
	later := tx("C", "D", 1)
	later.AuctionDate = auctionDay.AddDate(0, 0, 7)
	txs := []models.Transaction{tx("B", "A", 1), later, tx("A", "", 1)}

	dates := AvailableDates(txs)
	if len(dates) != 2 || !dates[0].Equal(later.AuctionDate) {
		t.Errorf("unexpected dates: %v", dates)
	}
	ids := Participants(txs, models.SingleDay(auctionDay))
	if len(ids) != 2 || ids[0] != "A" || ids[1] != "B" {
		t.Errorf("unexpected participants: %v", ids)
	}
}
