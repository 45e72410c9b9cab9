package models

// BalanceStatus is the settlement outcome for one participant.
type BalanceStatus string

const (
	StatusOwesShop   BalanceStatus = "owes_shop"
	StatusOwedByShop BalanceStatus = "owed_by_shop"
	StatusSettled    BalanceStatus = "settled"
)

// ParticipantBalance is a participant's settlement for one window.
// NetBalance > 0 means the shop owes the participant.
type ParticipantBalance struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Registered    bool   `json:"registered"`
	Exempt        bool   `json:"exempt"`

	SellRaw int64 `json:"sell_raw"`
	SellFee int64 `json:"sell_fee"`
	SellNet int64 `json:"sell_net"`

	BuyRaw   int64 `json:"buy_raw"`
	BuyFee   int64 `json:"buy_fee"`
	BuyTotal int64 `json:"buy_total"`

	CarriedDebt int64 `json:"carried_debt"`
	NetBalance  int64 `json:"net_balance"`
}

// Status derives the outcome from the sign of NetBalance.
func (b ParticipantBalance) Status() BalanceStatus {
	switch {
	case b.NetBalance > 0:
		return StatusOwedByShop
	case b.NetBalance < 0:
		return StatusOwesShop
	default:
		return StatusSettled
	}
}

// SettlementEntry is one line of the pay-in or pay-out list. Amount is always positive.
type SettlementEntry struct {
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Amount        int64     `json:"amount"`
	Direction     Direction `json:"direction"`
}

// Settlement is the full result of one aggregation pass.
type Settlement struct {
	Window      Window               `json:"window"`
	Balances    []ParticipantBalance `json:"balances"`
	PayIn       []SettlementEntry    `json:"pay_in"`
	PayOut      []SettlementEntry    `json:"pay_out"`
	Diagnostics Diagnostics          `json:"diagnostics"`
}

// Entries returns the list for the given direction.
func (s Settlement) Entries(dir Direction) []SettlementEntry {
	if dir == DirectionPayout {
		return s.PayOut
	}
	return s.PayIn
}

// TotalPayIn sums the pay-in list.
func (s Settlement) TotalPayIn() int64 { return SumEntries(s.PayIn) }

// TotalPayOut sums the pay-out list.
func (s Settlement) TotalPayOut() int64 { return SumEntries(s.PayOut) }

// SumEntries adds up entry amounts.
func SumEntries(entries []SettlementEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Amount
	}
	return total
}

// Statement is one participant's detail for a window: profile, balance and lines.
type Statement struct {
	Window    Window             `json:"window"`
	Profile   MemberProfile      `json:"profile"`
	Balance   ParticipantBalance `json:"balance"`
	Sales     []Transaction      `json:"sales"`
	Purchases []Transaction      `json:"purchases"`
}
