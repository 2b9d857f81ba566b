// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package arvr

import (
	"fmt"

	"github.com/Loisone777/arvr-sim/stats"
)

// FrameReport is the run-end accounting of downlink frame timeliness.
type FrameReport struct {
	// Total is the number of frames with at least one fragment received.
	Total uint32

	// OnTime is the number of frames completed within the deadline.
	OnTime uint32

	// Late is the number of frames completed after the deadline.
	Late uint32

	// Incomplete is the number of frames never completed by the end of the
	// run.
	Incomplete uint32

	// Ratio is OnTime/Total, or 0 when no frame was received.
	Ratio float64
}

// Report snapshots the receiver's frame accounting. Call it after Stop so
// the incomplete count is final.
func (r *Receiver) Report() FrameReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	ratio := 0.0
	if r.total > 0 {
		ratio = float64(r.onTime) / float64(r.total)
	}

	return FrameReport{
		Total:      r.total,
		OnTime:     r.onTime,
		Late:       r.late,
		Incomplete: r.incomplete,
		Ratio:      ratio,
	}
}

// String renders the report with stable keys for test automation.
func (r FrameReport) String() string {
	return fmt.Sprintf("total=%d onTime=%d late=%d incomplete=%d ratio=%.6g",
		r.Total, r.OnTime, r.Late, r.Incomplete, r.Ratio)
}

// DelayReport renders a delay summary with stable keys for test automation.
// An empty collection renders as a sentinel noSamples line with zeros.
type DelayReport struct {
	stats.Summary
}

func (d DelayReport) String() string {
	if d.Samples == 0 {
		return "noSamples=1 avgDelay=0 p99=0 max=0"
	}

	return fmt.Sprintf("avgDelay=%.6g p99=%d max=%d", d.Avg, d.P99, d.Max)
}
