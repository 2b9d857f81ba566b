// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package stats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmoother(t *testing.T) {
	cases := []struct {
		alpha     float64
		samples   []float64
		value     float64
		deviation float64
	}{
		{
			alpha: 0.9,
		},
		{
			alpha:   0.9,
			samples: []float64{40},
			value:   40,
		},
		{
			alpha:     0.5,
			samples:   []float64{10, 20},
			value:     15,
			deviation: 5,
		},
		{
			alpha:     0.5,
			samples:   []float64{10, 20, 10},
			value:     12.5,
			deviation: 5,
		},
		{
			// constant input converges with zero deviation
			alpha:   0.9,
			samples: []float64{33, 33, 33, 33},
			value:   33,
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("%v", i), func(t *testing.T) {
			s := NewSmoother(tc.alpha)
			for _, v := range tc.samples {
				s.Add(v)
			}
			assert.InDelta(t, tc.value, s.Value(), 1e-9)
			assert.InDelta(t, tc.deviation, s.Deviation(), 1e-9)
		})
	}
}

func TestSmootherTracksShift(t *testing.T) {
	s := NewSmoother(0.9)
	for i := 0; i < 10; i++ {
		s.Add(10)
	}
	for i := 0; i < 10; i++ {
		s.Add(50)
	}
	assert.InDelta(t, 50, s.Value(), 0.1)
	assert.Greater(t, s.Deviation(), 0.0)
}
