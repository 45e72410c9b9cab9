package ingest

import "github.com/rewired-gh/auctionledger/internal/models"

// Transaction sheet columns.
const (
	colAuctionDate = iota
	colSeller
	colItem
	colPrice
	colBuyer
	colBidTime
)

// NormalizeTransactions converts header-less transaction rows into canonical
// transactions. Recoverable problems are counted, never returned as errors:
// malformed prices become 0 and rows without a date keep a zero AuctionDate.
func NormalizeTransactions(rows [][]string) ([]models.Transaction, models.Diagnostics) {
	var diag models.Diagnostics
	txs := make([]models.Transaction, 0, len(rows))

	for _, row := range rows {
		if blank(row) {
			continue
		}

		price, ok := ParsePrice(cell(row, colPrice))
		if !ok {
			diag.MalformedPrices++
		}

		date, ok := ParseDate(cell(row, colAuctionDate))
		if !ok {
			diag.MissingDates++
		}

		txs = append(txs, models.Transaction{
			AuctionDate: date,
			SellerID:    cell(row, colSeller),
			ItemName:    cell(row, colItem),
			Price:       price,
			BuyerID:     cell(row, colBuyer),
			BidTimeRaw:  cell(row, colBidTime),
		})
	}

	return txs, diag
}
