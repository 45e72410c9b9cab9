// Package timebucket maps free-text bid times onto the auction-day hour axis.
package timebucket

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rewired-gh/auctionledger/internal/models"
)

const (
	// FirstBucket and LastBucket bound the auction-day axis (14:00 to 02:59 next day).
	FirstBucket = 14
	LastBucket  = 26

	// PreviousDayCutoffHour: bids at hours 0..6 belong to the previous
	// calendar day's auction and are shifted by 24.
	PreviousDayCutoffHour = 6

	// MinAuctionHour rejects early-morning noise left after the shift.
	MinAuctionHour = 10
)

var clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

var (
	pmMarkers = []string{"오후", "pm", "p.m."}
	amMarkers = []string{"오전", "am", "a.m."}
)

type meridiem int

const (
	noMeridiem meridiem = iota
	ante
	post
)

func detectMeridiem(raw string) meridiem {
	s := strings.ToLower(raw)
	for _, m := range pmMarkers {
		if strings.Contains(s, m) {
			return post
		}
	}
	for _, m := range amMarkers {
		if strings.Contains(s, m) {
			return ante
		}
	}
	return noMeridiem
}

// BucketHour maps a raw bid time to its auction-day hour in [14, 26].
// It reports false when no clock time can be read or the hour falls outside
// the auction axis; such rows still count in every other aggregate.
func BucketHour(raw string) (int, bool) {
	m := clockPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, false
	}

	switch detectMeridiem(raw) {
	case post:
		if hour < 12 {
			hour += 12
		}
	case ante:
		if hour == 12 {
			hour = 0
		}
	}

	// Auctions run past midnight: 01:30 is hour 25 of the previous auction day.
	if hour <= PreviousDayCutoffHour {
		hour += 24
	}
	if hour < MinAuctionHour || hour < FirstBucket || hour > LastBucket {
		return 0, false
	}
	return hour, true
}

// BucketByHour aggregates revenue and counts per auction-day hour. The result
// always holds every hour from FirstBucket to LastBucket, zero-filled, so the
// axis stays continuous. The second return value counts unparsable bid times.
func BucketByHour(txs []models.Transaction) ([]models.HourBucket, int) {
	stats := make([]priceStats, LastBucket-FirstBucket+1)
	buckets := make([]models.HourBucket, LastBucket-FirstBucket+1)
	for i := range buckets {
		buckets[i].Hour = FirstBucket + i
	}

	unparsable := 0
	for _, tx := range txs {
		hour, ok := BucketHour(tx.BidTimeRaw)
		if !ok {
			unparsable++
			continue
		}
		i := hour - FirstBucket
		buckets[i].Revenue += tx.Price
		buckets[i].Count++
		stats[i].add(float64(tx.Price))
	}

	for i := range buckets {
		buckets[i].MeanPrice = stats[i].mean
		buckets[i].StdDevPrice = stats[i].stddev()
	}
	return buckets, unparsable
}

// Peak returns the bucket with the highest revenue; ties go to the earlier hour.
func Peak(buckets []models.HourBucket) (models.HourBucket, bool) {
	var best models.HourBucket
	found := false
	for _, b := range buckets {
		if b.Count == 0 {
			continue
		}
		if !found || b.Revenue > best.Revenue {
			best = b
			found = true
		}
	}
	return best, found
}
