package timebucket

import "math"

// priceStats is a Welford running mean/variance over hammer prices.
type priceStats struct {
	count int
	mean  float64
	m2    float64
}

func (s *priceStats) add(price float64) {
	s.count++
	delta := price - s.mean
	s.mean += delta / float64(s.count)
	delta2 := price - s.mean
	s.m2 += delta * delta2
}

// stddev is the sample standard deviation; 0 below two samples.
func (s *priceStats) stddev() float64 {
	if s.count < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.count-1))
}
