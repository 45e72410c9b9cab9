// Package vip tracks buyers' cumulative spend since their last benefit and
// assigns delivery-subsidy tiers.
package vip

import (
	"sort"

	"github.com/rewired-gh/auctionledger/internal/models"
)

// Tier thresholds. Intervals are half-open: [Tier30Threshold, Tier50Threshold) is Tier30.
const (
	Tier30Threshold   int64 = 3_000_000
	Tier50Threshold   int64 = 5_000_000
	TierFullThreshold int64 = 10_000_000
)

// TierFor returns the tier earned by a cumulative spend.
func TierFor(spend int64) models.VipTier {
	switch {
	case spend >= TierFullThreshold:
		return models.TierFull
	case spend >= Tier50Threshold:
		return models.Tier50
	case spend >= Tier30Threshold:
		return models.Tier30
	default:
		return models.TierNone
	}
}

// eligible reports whether a purchase counts toward the member's current
// benefit period: strictly after the anchor, or any purchase when unset.
// Nothing counts while the anchor cell is unreadable, so a past benefit is
// never granted again from full history.
func eligible(tx models.Transaction, member models.MemberProfile) bool {
	if member.AnchorMalformed {
		return false
	}
	if !member.HasBenefitAnchor() {
		return true
	}
	return tx.HasDate() && tx.AuctionDate.After(member.BenefitAnchor)
}

// Classify computes one buyer's standing. It never modifies the member.
func Classify(buyerID string, txs []models.Transaction, member models.MemberProfile) models.VipStanding {
	var spend int64
	for _, tx := range txs {
		if tx.BuyerID == buyerID && eligible(tx, member) {
			spend += tx.Price
		}
	}
	return models.VipStanding{
		Nickname:        buyerID,
		CumulativeSpend: spend,
		Tier:            TierFor(spend),
		Anchor:          member.BenefitAnchor,
	}
}

// ClassifyAll returns every buyer with a tier, highest spend first.
// Buyers below Tier30 are left out.
func ClassifyAll(txs []models.Transaction, dir models.Directory) []models.VipStanding {
	buyers := make(map[string]bool)
	for _, tx := range txs {
		if tx.BuyerID != "" {
			buyers[tx.BuyerID] = true
		}
	}

	standings := []models.VipStanding{}
	for id := range buyers {
		member, _ := dir.Lookup(id)
		s := Classify(id, txs, member)
		if s.Tier != models.TierNone {
			standings = append(standings, s)
		}
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].CumulativeSpend != standings[j].CumulativeSpend {
			return standings[i].CumulativeSpend > standings[j].CumulativeSpend
		}
		return standings[i].Nickname < standings[j].Nickname
	})
	return standings
}
