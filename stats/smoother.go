// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package stats

import "math"

// Smoother keeps an exponentially weighted estimate of a delay series and
// the mean deviation around it, giving a cheap running view of latency and
// jitter alongside the exact end-of-run summary.
type Smoother struct {
	alpha     float64
	primed    bool
	estimate  float64
	deviation float64
}

// NewSmoother returns a Smoother with the given weight. A larger alpha
// tracks recent samples more closely.
func NewSmoother(alpha float64) *Smoother {
	return &Smoother{alpha: alpha}
}

// Add folds one sample into the estimate. The first sample primes the
// estimate directly, with zero deviation.
func (s *Smoother) Add(sample float64) {
	if !s.primed {
		s.primed = true
		s.estimate = sample

		return
	}
	diff := sample - s.estimate
	s.estimate += s.alpha * diff
	s.deviation += s.alpha * (math.Abs(diff) - s.deviation)
}

// Value is the current smoothed estimate.
func (s *Smoother) Value() float64 {
	return s.estimate
}

// Deviation is the smoothed mean absolute deviation of recent samples from
// the estimate.
func (s *Smoother) Deviation() float64 {
	return s.deviation
}
