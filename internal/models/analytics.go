package models

import "time"

// VipTier is the delivery-subsidy tier earned by cumulative spend.
type VipTier int

const (
	TierNone VipTier = iota
	Tier30
	Tier50
	TierFull
)

func (t VipTier) String() string {
	switch t {
	case Tier30:
		return "tier30"
	case Tier50:
		return "tier50"
	case TierFull:
		return "tier_full"
	default:
		return "none"
	}
}

// MarshalText renders the tier name in JSON.
func (t VipTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// VipStanding is a buyer's spend since their benefit anchor and the tier it earns.
type VipStanding struct {
	Nickname        string    `json:"nickname"`
	CumulativeSpend int64     `json:"cumulative_spend"`
	Tier            VipTier   `json:"tier"`
	Anchor          time.Time `json:"anchor,omitempty"`
}

// HourBucket aggregates the transactions of one auction-day hour.
type HourBucket struct {
	Hour        int     `json:"hour"`
	Revenue     int64   `json:"revenue"`
	Count       int     `json:"count"`
	MeanPrice   float64 `json:"mean_price"`
	StdDevPrice float64 `json:"stddev_price"`
}

// Diagnostics counts recoverable input problems found during a pass.
// None of them abort a computation.
type Diagnostics struct {
	MalformedPrices     int `json:"malformed_prices"`
	MissingDates        int `json:"missing_dates"`
	UnparsableBidTimes  int `json:"unparsable_bid_times"`
	UnknownParticipants int `json:"unknown_participants"`
	ShortMemberRows     int `json:"short_member_rows"`
	DuplicateMembers    int `json:"duplicate_members"`
	BlankMemberRows     int `json:"blank_member_rows"`
	MalformedMemberData int `json:"malformed_member_data"`
}

// Add merges another set of counts into d.
func (d *Diagnostics) Add(o Diagnostics) {
	d.MalformedPrices += o.MalformedPrices
	d.MissingDates += o.MissingDates
	d.UnparsableBidTimes += o.UnparsableBidTimes
	d.UnknownParticipants += o.UnknownParticipants
	d.ShortMemberRows += o.ShortMemberRows
	d.DuplicateMembers += o.DuplicateMembers
	d.BlankMemberRows += o.BlankMemberRows
	d.MalformedMemberData += o.MalformedMemberData
}

// Total is the number of recoverable problems of any kind.
func (d Diagnostics) Total() int {
	return d.MalformedPrices + d.MissingDates + d.UnparsableBidTimes + d.UnknownParticipants +
		d.ShortMemberRows + d.DuplicateMembers + d.BlankMemberRows + d.MalformedMemberData
}

// Counts returns the non-zero counters keyed by kind, for logs and metrics.
func (d Diagnostics) Counts() map[string]int {
	all := map[string]int{
		"malformed_price":     d.MalformedPrices,
		"missing_date":        d.MissingDates,
		"unparsable_bid_time": d.UnparsableBidTimes,
		"unknown_participant": d.UnknownParticipants,
		"short_member_row":    d.ShortMemberRows,
		"duplicate_member":    d.DuplicateMembers,
		"blank_member_row":    d.BlankMemberRows,
		"malformed_member":    d.MalformedMemberData,
	}
	out := make(map[string]int, len(all))
	for k, v := range all {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}
