// Package ingest turns raw sheet rows into canonical transactions and member profiles.
package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var amountNoise = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "원", "", "₩", "")

var (
	maxAmount = decimal.NewFromInt(math.MaxInt64)
	minAmount = decimal.NewFromInt(math.MinInt64)
)

// ParsePrice coerces a hammer-price cell to a non-negative whole amount.
// It reports false when the cell had to be coerced to 0.
func ParsePrice(raw string) (int64, bool) {
	s := amountNoise.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, false
	}
	d = d.Floor()
	if d.GreaterThan(maxAmount) {
		return 0, false
	}
	return d.IntPart(), true
}

// ParseSignedAmount parses a signed whole amount such as a carried debt.
// Fractions truncate toward zero; an empty cell is a valid 0.
func ParseSignedAmount(raw string) (int64, bool) {
	s := amountNoise.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	d = d.Truncate(0)
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, false
	}
	return d.IntPart(), true
}

// Accepts 2024-03-01, 2024.3.1, 2024/03/01, "2024. 3. 1." and 2024년 3월 1일,
// optionally followed by a time of day which is ignored.
var datePattern = regexp.MustCompile(`^(\d{4})\s*[-./년]\s*(\d{1,2})\s*[-./월]\s*(\d{1,2})`)

// usDatePattern matches M/D/YYYY, as exported by sheets under a US locale.
var usDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)

// ParseDate parses an auction-date cell. It reports false for blank or invalid dates.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	var y, mo, d int
	if m := datePattern.FindStringSubmatch(raw); m != nil {
		y, _ = strconv.Atoi(m[1])
		mo, _ = strconv.Atoi(m[2])
		d, _ = strconv.Atoi(m[3])
	} else if m := usDatePattern.FindStringSubmatch(raw); m != nil {
		mo, _ = strconv.Atoi(m[1])
		d, _ = strconv.Atoi(m[2])
		y, _ = strconv.Atoi(m[3])
	} else {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalises 2024-02-30 to March; reject instead.
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
