// Package settlement computes auction fees and per-participant net settlements.
package settlement

import (
	"fmt"

	"github.com/rewired-gh/auctionledger/internal/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultSellFeeRate = "0.14"
	DefaultBuyFeeRate  = "0.05"
)

// FeeSchedule holds the commission rates charged on aggregated amounts.
type FeeSchedule struct {
	SellRate decimal.Decimal
	BuyRate  decimal.Decimal
}

// DefaultFeeSchedule returns the 14% seller / 5% buyer schedule.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		SellRate: decimal.RequireFromString(DefaultSellFeeRate),
		BuyRate:  decimal.RequireFromString(DefaultBuyFeeRate),
	}
}

// NewFeeSchedule parses decimal rate strings such as "0.14".
func NewFeeSchedule(sellRate, buyRate string) (FeeSchedule, error) {
	sell, err := parseRate(sellRate)
	if err != nil {
		return FeeSchedule{}, fmt.Errorf("invalid sell fee rate: %w", err)
	}
	buy, err := parseRate(buyRate)
	if err != nil {
		return FeeSchedule{}, fmt.Errorf("invalid buy fee rate: %w", err)
	}
	return FeeSchedule{SellRate: sell, BuyRate: buy}, nil
}

func parseRate(s string) (decimal.Decimal, error) {
	r, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if r.IsNegative() || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("rate %s must be in [0, 1)", s)
	}
	return r, nil
}

// ComputeFees returns the seller and buyer fee for an already-summed amount.
// Each fee is floored exactly once on the aggregate; callers must not sum
// per-line fees. Exemption only waives the buyer fee.
func (f FeeSchedule) ComputeFees(amount int64, exemption models.Exemption) (sellFee, buyFee int64) {
	a := decimal.NewFromInt(amount)
	sellFee = a.Mul(f.SellRate).Floor().IntPart()
	if exemption != models.ExemptionExempt {
		buyFee = a.Mul(f.BuyRate).Floor().IntPart()
	}
	return sellFee, buyFee
}
