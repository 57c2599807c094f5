// Package dist implements descriptive statistics of event counts and
// binomial support intervals for replicate frequencies.
package dist

/*
Support intervals are exact (Clopper-Pearson) binomial intervals computed
from the beta quantile, which replaced the PAML derived code used for
discrete distributions before.
*/

import (
	"fmt"
	"math"
	"sort"

	"github.com/gonum/mathext"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a sample of counts.
type Stats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	SD     float64 `json:"sd"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes mean, sample standard deviation, median, minimum and
// maximum. The zero value is returned for an empty sample.
func Describe(x []float64) (s Stats) {
	s.N = len(x)
	if s.N == 0 {
		return
	}
	if s.N > 1 {
		s.Mean, s.SD = stat.MeanStdDev(x, nil)
	} else {
		s.Mean = x[0]
	}
	s.Min = floats.Min(x)
	s.Max = floats.Max(x)

	sorted := make([]float64, s.N)
	copy(sorted, x)
	sort.Float64s(sorted)
	if s.N%2 == 1 {
		s.Median = sorted[s.N/2]
	} else {
		s.Median = (sorted[s.N/2-1] + sorted[s.N/2]) / 2
	}
	return
}

// DescribeInts is Describe for integer counts.
func DescribeInts(x []int) Stats {
	f := make([]float64, len(x))
	for i, v := range x {
		f[i] = float64(v)
	}
	return Describe(f)
}

func (s Stats) String() string {
	return fmt.Sprintf("n=%d mean=%.4g sd=%.4g median=%.4g min=%.4g max=%.4g",
		s.N, s.Mean, s.SD, s.Median, s.Min, s.Max)
}

// QuantileBeta calculates the quantile of the beta distribution.
func QuantileBeta(prob, p, q float64) float64 {
	return mathext.InvRegIncBeta(p, q, prob)
}

// SupportInterval returns the exact binomial confidence interval for k
// successes out of n trials at the given confidence level (e.g. 0.95).
// Bounds are proportions in [0, 1].
func SupportInterval(k, n int, level float64) (lo, hi float64) {
	if n <= 0 || k < 0 || k > n {
		return math.NaN(), math.NaN()
	}
	alpha := 1 - level
	if k > 0 {
		lo = QuantileBeta(alpha/2, float64(k), float64(n-k+1))
	}
	hi = 1
	if k < n {
		hi = QuantileBeta(1-alpha/2, float64(k+1), float64(n-k))
	}
	return
}
