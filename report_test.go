// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package arvr

import (
	"testing"
	"time"

	"github.com/Loisone777/arvr-sim/stats"
	"github.com/stretchr/testify/assert"
)

func TestFrameReportString(t *testing.T) {
	report := FrameReport{Total: 10, OnTime: 7, Late: 2, Incomplete: 1, Ratio: 0.7}
	assert.Equal(t, "total=10 onTime=7 late=2 incomplete=1 ratio=0.7", report.String())

	assert.Equal(t, "total=0 onTime=0 late=0 incomplete=0 ratio=0", FrameReport{}.String())
}

func TestDelayReportString(t *testing.T) {
	report := DelayReport{Summary: stats.Summary{Samples: 5, Avg: 12.4, P99: 31, Max: 40}}
	assert.Equal(t, "avgDelay=12.4 p99=31 max=40", report.String())

	assert.Equal(t, "noSamples=1 avgDelay=0 p99=0 max=0", DelayReport{}.String())
}

func TestReceiverReport(t *testing.T) {
	clock := newFakeClock()
	recv := newMessageReceiver(t, clock, 50)
	sendTs := timestampMs(clock.Now())

	// frame 0 completes on time, frame 1 completes late, frame 2 stays
	// incomplete
	recv.HandleMessage(fragment(FrameHeader{FrameID: 0, FragmentIndex: 0, FragmentCount: 1, SendTimestampMs: sendTs}, 10))
	clock.advance(60 * time.Millisecond)
	recv.HandleMessage(fragment(FrameHeader{FrameID: 1, FragmentIndex: 0, FragmentCount: 1, SendTimestampMs: sendTs}, 10))
	recv.HandleMessage(fragment(FrameHeader{FrameID: 2, FragmentIndex: 0, FragmentCount: 2, SendTimestampMs: sendTs}, 10))
	recv.Stop()

	report := recv.Report()
	assert.Equal(t, FrameReport{Total: 3, OnTime: 1, Late: 1, Incomplete: 1, Ratio: 1.0 / 3.0}, report)
	assert.Equal(t, "total=3 onTime=1 late=1 incomplete=1 ratio=0.333333", report.String())
}

func TestReceiverReportEmptyRun(t *testing.T) {
	clock := newFakeClock()
	recv := newMessageReceiver(t, clock, 50)
	recv.Stop()

	report := recv.Report()
	assert.Zero(t, report.Total)
	assert.Zero(t, report.Ratio)
}
