package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/auctionledger/internal/models"
	"github.com/rewired-gh/auctionledger/internal/reconcile"
)

// formatWon renders an amount with thousands separators, e.g. -1,050,000원.
func formatWon(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	b.WriteString("원")
	return b.String()
}

func formatDates(dates []time.Time) string {
	if len(dates) == 0 {
		return "No auction dates yet"
	}
	var b strings.Builder
	b.WriteString("📅 *Auction dates*\n")
	for _, d := range dates {
		b.WriteString(escapeMarkdownV2(d.Format(models.DateLayout)))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatEntries(b *strings.Builder, title string, entries []models.SettlementEntry, total, remaining int64) {
	fmt.Fprintf(b, "*%s* %s, remaining %s\n",
		title, escapeMarkdownV2(formatWon(total)), escapeMarkdownV2(formatWon(remaining)))
	for _, e := range entries {
		fmt.Fprintf(b, "  • %s: %s\n", escapeMarkdownV2(e.DisplayName), escapeMarkdownV2(formatWon(e.Amount)))
	}
}

func formatSettlement(s models.Settlement, remainingIn, remainingOut int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 *Settlement* %s\n\n", escapeMarkdownV2(s.Window.ID))
	formatEntries(&b, "Collect", s.PayIn, s.TotalPayIn(), remainingIn)
	b.WriteByte('\n')
	formatEntries(&b, "Pay out", s.PayOut, s.TotalPayOut(), remainingOut)
	if n := s.Diagnostics.Total(); n > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d rows excluded or coerced\n", n)
	}
	return b.String()
}

func formatStatement(st models.Statement) string {
	var b strings.Builder
	bal := st.Balance
	fmt.Fprintf(&b, "👤 *%s* %s\n", escapeMarkdownV2(bal.DisplayName), escapeMarkdownV2(st.Window.ID))
	fmt.Fprintf(&b, "Sold %s, fee %s, net %s\n",
		escapeMarkdownV2(formatWon(bal.SellRaw)), escapeMarkdownV2(formatWon(bal.SellFee)), escapeMarkdownV2(formatWon(bal.SellNet)))
	fmt.Fprintf(&b, "Bought %s, fee %s, total %s\n",
		escapeMarkdownV2(formatWon(bal.BuyRaw)), escapeMarkdownV2(formatWon(bal.BuyFee)), escapeMarkdownV2(formatWon(bal.BuyTotal)))
	fmt.Fprintf(&b, "*Net* %s\n", escapeMarkdownV2(formatWon(bal.NetBalance)))
	for _, tx := range st.Sales {
		fmt.Fprintf(&b, "  📤 %s → %s %s\n",
			escapeMarkdownV2(tx.ItemName), escapeMarkdownV2(tx.BuyerID), escapeMarkdownV2(formatWon(tx.Price)))
	}
	for _, tx := range st.Purchases {
		fmt.Fprintf(&b, "  📥 %s ← %s %s\n",
			escapeMarkdownV2(tx.ItemName), escapeMarkdownV2(tx.SellerID), escapeMarkdownV2(formatWon(tx.Price)))
	}
	return b.String()
}

func formatHours(r reconcile.HoursReport) string {
	var b strings.Builder
	scope := "all dates"
	if r.Window != nil {
		scope = r.Window.ID
	}
	fmt.Fprintf(&b, "⏰ *Revenue by hour* %s\n", escapeMarkdownV2(scope))
	for _, bucket := range r.Buckets {
		if bucket.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "%02d:00 %s \\(%d\\)\n", bucket.Hour, escapeMarkdownV2(formatWon(bucket.Revenue)), bucket.Count)
	}
	if r.Peak != nil {
		fmt.Fprintf(&b, "Peak: %02d:00\n", r.Peak.Hour)
	}
	if r.Unparsable > 0 {
		fmt.Fprintf(&b, "%d bids without a readable time\n", r.Unparsable)
	}
	return b.String()
}

func formatVIP(standings []models.VipStanding) string {
	if len(standings) == 0 {
		return "No VIP buyers"
	}
	var b strings.Builder
	b.WriteString("⭐ *VIP standings*\n")
	for i, s := range standings {
		fmt.Fprintf(&b, "%d\\. %s %s %s\n",
			i+1, escapeMarkdownV2(s.Nickname), escapeMarkdownV2(formatWon(s.CumulativeSpend)), escapeMarkdownV2(s.Tier.String()))
	}
	return b.String()
}
