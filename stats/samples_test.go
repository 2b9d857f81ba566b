// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package stats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamplesSummarize(t *testing.T) {
	oneToHundred := make([]uint32, 0, 100)
	for v := uint32(1); v <= 100; v++ {
		oneToHundred = append(oneToHundred, v)
	}

	cases := []struct {
		samples  []uint32
		expected Summary
	}{
		{
			samples:  nil,
			expected: Summary{},
		},
		{
			samples:  []uint32{7},
			expected: Summary{Samples: 1, Avg: 7, P99: 7, Max: 7},
		},
		{
			samples:  []uint32{10, 20, 30},
			expected: Summary{Samples: 3, Avg: 20, P99: 30, Max: 30},
		},
		{
			// index = floor(100 * 0.99) = 99, the last element
			samples:  oneToHundred,
			expected: Summary{Samples: 100, Avg: 50.5, P99: 100, Max: 100},
		},
		{
			// insertion order must not matter
			samples:  []uint32{90, 5, 42, 5},
			expected: Summary{Samples: 4, Avg: 35.5, P99: 90, Max: 90},
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("%v", i), func(t *testing.T) {
			s := New()
			for _, v := range tc.samples {
				s.Add(v)
			}
			assert.Equal(t, len(tc.samples), s.Len())
			assert.Equal(t, tc.expected, s.Summarize())
		})
	}
}

func TestSamplesSummarizeDoesNotMutate(t *testing.T) {
	s := New()
	s.Add(3)
	s.Add(1)
	s.Add(2)

	first := s.Summarize()
	second := s.Summarize()
	assert.Equal(t, first, second)

	s.Add(100)
	assert.Equal(t, uint32(100), s.Summarize().Max)
}
