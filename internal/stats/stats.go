// Package stats computes descriptive statistics over stored rate
// snapshots. It reads snapshot data only; nothing here writes back
// into the ledger.
package stats

import (
	"math"

	"github.com/cambial/cambio/internal/domain"
)

// RateStats summarizes a series of mid rates. Pointer fields are nil
// when the series is empty (or, for PercentChange, when the first
// value is zero).
type RateStats struct {
	Count         int
	Min           *float64
	Max           *float64
	Avg           *float64
	First         *float64
	Last          *float64
	PercentChange *float64
	StdDev        *float64
	TrendPerHour  *float64
}

// Compute derives RateStats from snapshots in chronological order.
// StdDev is the population standard deviation; TrendPerHour is the
// least-squares slope of mid rate against hours since the first
// snapshot (zero when all snapshots share a timestamp).
func Compute(snaps []*domain.RateSnapshot) RateStats {
	n := len(snaps)
	if n == 0 {
		return RateStats{}
	}

	mids := make([]float64, n)
	for i, s := range snaps {
		mids[i] = s.Mid.InexactFloat64()
	}

	mn, mx := mids[0], mids[0]
	var sum float64
	for _, v := range mids {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
		sum += v
	}
	avg := sum / float64(n)
	first, last := mids[0], mids[n-1]

	var percentChange *float64
	if first != 0 {
		pc := ((last - first) / first) * 100.0
		percentChange = &pc
	}

	var variance float64
	for _, v := range mids {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(n)
	stdDev := math.Sqrt(variance)

	t0 := snaps[0].CreatedAt
	xs := make([]float64, n)
	var xSum float64
	for i, s := range snaps {
		xs[i] = s.CreatedAt.Sub(t0).Hours()
		xSum += xs[i]
	}
	xAvg := xSum / float64(n)

	var numer, denom float64
	for i := range xs {
		numer += (xs[i] - xAvg) * (mids[i] - avg)
		denom += (xs[i] - xAvg) * (xs[i] - xAvg)
	}
	trend := 0.0
	if denom != 0 {
		trend = numer / denom
	}

	return RateStats{
		Count:         n,
		Min:           &mn,
		Max:           &mx,
		Avg:           &avg,
		First:         &first,
		Last:          &last,
		PercentChange: percentChange,
		StdDev:        &stdDev,
		TrendPerHour:  &trend,
	}
}
