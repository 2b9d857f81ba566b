// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

// Package stats collects latency samples and derives the aggregate measures
// reported at the end of a run.
package stats

import "slices"

// Samples is an append-only collection of non-negative delay samples in
// milliseconds. Insertion order does not affect any derived statistic.
type Samples struct {
	values []uint32
}

// New returns an empty sample collection.
func New() *Samples {
	return &Samples{}
}

// Add appends one sample.
func (s *Samples) Add(v uint32) {
	s.values = append(s.values, v)
}

// Len is the number of collected samples.
func (s *Samples) Len() int {
	return len(s.values)
}

// Summary holds the aggregate measures over one sample collection. All
// fields are zero when the collection is empty.
type Summary struct {
	// Samples is the number of samples the summary was computed over.
	Samples int

	// Avg is the arithmetic mean.
	Avg float64

	// P99 is the 99th percentile by nearest rank: the sample at index
	// floor(N*0.99) of the ascending-sorted collection, clamped to N-1.
	P99 uint32

	// Max is the largest sample.
	Max uint32
}

// Summarize computes the average, nearest-rank 99th percentile and maximum
// of the collection.
func (s *Samples) Summarize() Summary {
	if len(s.values) == 0 {
		return Summary{}
	}

	var sum uint64
	maxValue := uint32(0)
	for _, v := range s.values {
		sum += uint64(v)
		if v > maxValue {
			maxValue = v
		}
	}

	sorted := slices.Clone(s.values)
	slices.Sort(sorted)
	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return Summary{
		Samples: len(s.values),
		Avg:     float64(sum) / float64(len(s.values)),
		P99:     sorted[idx],
		Max:     maxValue,
	}
}
