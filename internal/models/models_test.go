package models

import (
	"errors"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{
			name:    "valid transaction",
			tx:      Transaction{AuctionDate: day("2024-03-01"), SellerID: "A", BuyerID: "B", Price: 1000},
			wantErr: false,
		},
		{
			name:    "buyer only",
			tx:      Transaction{BuyerID: "B", Price: 1000},
			wantErr: false,
		},
		{
			name:    "negative price",
			tx:      Transaction{SellerID: "A", BuyerID: "B", Price: -1},
			wantErr: true,
		},
		{
			name:    "no participants",
			tx:      Transaction{SellerID: " ", Price: 10},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Transaction.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	w := SingleDay(day("2024-03-01"))
	if w.ID != "2024-03-01" {
		t.Errorf("single day id = %q", w.ID)
	}
	if !w.Contains(day("2024-03-01").Add(23 * time.Hour)) {
		t.Error("expected same calendar date to match")
	}
	if w.Contains(day("2024-03-02")) {
		t.Error("next day must not match")
	}
	if w.Contains(time.Time{}) {
		t.Error("undated rows must never match")
	}
}

func TestDateRange(t *testing.T) {
	w, err := DateRange(day("2024-03-01"), day("2024-03-31"))
	if err != nil {
		t.Fatalf("DateRange: %v", err)
	}
	if w.ID != "2024-03-01..2024-03-31" {
		t.Errorf("range id = %q", w.ID)
	}
	if !w.Contains(day("2024-03-15")) || !w.Contains(day("2024-03-31")) {
		t.Error("range bounds must be inclusive")
	}

	same, err := DateRange(day("2024-03-01"), day("2024-03-01"))
	if err != nil || same.ID != "2024-03-01" {
		t.Errorf("one-day range should collapse to single day, got %q, %v", same.ID, err)
	}

	if _, err := DateRange(day("2024-03-02"), day("2024-03-01")); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"collect": DirectionCollect,
		"PAY_IN":  DirectionCollect,
		"payout":  DirectionPayout,
		"pay_out": DirectionPayout,
	} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseDirection("refund"); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestFulfillmentKeyValidate(t *testing.T) {
	ok := FulfillmentKey{WindowID: "2024-03-01", Direction: DirectionPayout, ParticipantID: "A"}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	bad := ok
	bad.Direction = "sideways"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidKey) || !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidKey wrapping ErrInvalidDirection, got %v", err)
	}
}

func TestBalanceStatus(t *testing.T) {
	cases := map[int64]BalanceStatus{
		860000:   StatusOwedByShop,
		-1050000: StatusOwesShop,
		0:        StatusSettled,
	}
	for net, want := range cases {
		if got := (ParticipantBalance{NetBalance: net}).Status(); got != want {
			t.Errorf("Status(%d) = %s, want %s", net, got, want)
		}
	}
}

func TestDirectoryLookupGuest(t *testing.T) {
	dir := Directory{"kim": {Nickname: "kim", RealName: "김철수", Registered: true, Exemption: ExemptionExempt}}

	m, ok := dir.Lookup("kim")
	if !ok || !m.IsExempt() || m.DisplayName() != "김철수" {
		t.Errorf("unexpected member lookup: %+v, %v", m, ok)
	}

	g, ok := dir.Lookup("stranger")
	if ok {
		t.Error("stranger must not be found")
	}
	if g.IsExempt() || g.Phone != UnregisteredPlaceholder || g.DisplayName() != "stranger" {
		t.Errorf("unexpected guest profile: %+v", g)
	}
}

func TestDiagnosticsAdd(t *testing.T) {
	d := Diagnostics{MalformedPrices: 1}
	d.Add(Diagnostics{MalformedPrices: 2, MissingDates: 1})
	if d.MalformedPrices != 3 || d.Total() != 4 {
		t.Errorf("unexpected diagnostics: %+v", d)
	}
	counts := d.Counts()
	if len(counts) != 2 || counts["missing_date"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
