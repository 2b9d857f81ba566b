// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package arvr

import (
	"io"
	"sync"
	"time"

	"github.com/pion/logging"
)

// minRescheduleDelay is used when a paced frame overruns its nominal
// interval: the next frame is scheduled after this minimal nonzero delay
// instead of immediately, so the loop always yields.
const minRescheduleDelay = time.Microsecond

// GeneratorOption is a functional option for a DownlinkGenerator.
type GeneratorOption func(*DownlinkGenerator) error

// WithGeneratorLoggerFactory configures a custom logger factory for a
// DownlinkGenerator.
func WithGeneratorLoggerFactory(lf logging.LoggerFactory) GeneratorOption {
	return func(g *DownlinkGenerator) error {
		g.logFactory = lf

		return nil
	}
}

// WithGeneratorTimeSource replaces the wall clock used to stamp fragments.
func WithGeneratorTimeSource(now func() time.Time) GeneratorOption {
	return func(g *DownlinkGenerator) error {
		g.now = now

		return nil
	}
}

// DownlinkGenerator produces frames on a fixed cadence and writes each
// fragment, prefixed with its FrameHeader, to the outbound writer.
//
// In burst mode a frame's fragments are written back to back and the next
// frame is scheduled a full FrameInterval later. In paced mode consecutive
// fragments are spaced PacingInterval apart, all stamped with the release
// time of fragment 0, and the next frame is scheduled relative to the end of
// the pacing sequence. That anchoring can accumulate drift under sustained
// overrun, which is intentional and left uncorrected.
type DownlinkGenerator struct {
	cfg        GeneratorConfig
	out        io.Writer
	now        func() time.Time
	logFactory logging.LoggerFactory
	log        logging.LeveledLogger

	mu           sync.Mutex
	frameCounter uint32
	timer        *time.Timer
	stopped      bool
}

// NewDownlinkGenerator creates a generator writing fragments to out. The
// configuration is validated before any traffic runs.
func NewDownlinkGenerator(cfg GeneratorConfig, out io.Writer, opts ...GeneratorOption) (*DownlinkGenerator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	gen := &DownlinkGenerator{
		cfg:        cfg,
		out:        out,
		now:        time.Now,
		logFactory: logging.NewDefaultLoggerFactory(),
	}
	for _, opt := range opts {
		if err := opt(gen); err != nil {
			return nil, err
		}
	}
	gen.log = gen.logFactory.NewLogger("arvr_downlink_generator")

	return gen, nil
}

// Start releases the first frame immediately and schedules the rest of the
// run. It must be called at most once.
func (g *DownlinkGenerator) Start() {
	g.produceFrame()
}

// Stop cancels the pending continuation, whether it is a next-frame trigger
// or an in-flight paced fragment chain. No fragment is written after Stop
// returns.
func (g *DownlinkGenerator) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// FramesProduced is the number of frames released so far.
func (g *DownlinkGenerator) FramesProduced() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.frameCounter
}

func (g *DownlinkGenerator) produceFrame() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}

	count := uint16(g.cfg.fragmentCount()) //nolint:gosec // bounded by validate
	frameID := g.frameCounter
	g.frameCounter++
	sendTs := timestampMs(g.now())

	if g.cfg.Release == ReleasePaced {
		g.sendPacedFragment(frameID, count, 0, sendTs)

		return
	}

	for i := uint16(0); i < count; i++ {
		g.writeFragment(FrameHeader{
			FrameID:         frameID,
			FragmentIndex:   i,
			FragmentCount:   count,
			SendTimestampMs: sendTs,
		})
	}
	g.timer = time.AfterFunc(g.cfg.FrameInterval, g.produceFrame)
}

func (g *DownlinkGenerator) pacedStep(frameID uint32, count, idx uint16, sendTs uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	g.sendPacedFragment(frameID, count, idx, sendTs)
}

// sendPacedFragment writes fragment idx and schedules the continuation:
// either the next fragment one PacingInterval later, or, after the last
// fragment, the next frame once the remainder of the frame interval has
// elapsed. Every fragment carries the frame's original send timestamp.
// Callers must hold g.mu.
func (g *DownlinkGenerator) sendPacedFragment(frameID uint32, count, idx uint16, sendTs uint32) {
	g.writeFragment(FrameHeader{
		FrameID:         frameID,
		FragmentIndex:   idx,
		FragmentCount:   count,
		SendTimestampMs: sendTs,
	})

	if idx+1 < count {
		g.timer = time.AfterFunc(g.cfg.PacingInterval, func() {
			g.pacedStep(frameID, count, idx+1, sendTs)
		})

		return
	}

	remaining := g.cfg.FrameInterval - time.Duration(count)*g.cfg.PacingInterval
	if remaining <= 0 {
		g.log.Tracef("frame %d overran its interval by %v", frameID, -remaining)
		remaining = minRescheduleDelay
	}
	g.timer = time.AfterFunc(remaining, g.produceFrame)
}

func (g *DownlinkGenerator) writeFragment(hdr FrameHeader) {
	pkt := make([]byte, FrameHeaderSize+g.cfg.FragmentPayload)
	if _, err := hdr.MarshalTo(pkt); err != nil {
		g.log.Errorf("failed to marshal %v: %v", hdr, err)

		return
	}
	if _, err := g.out.Write(pkt); err != nil {
		g.log.Warnf("failed to write %v: %v", hdr, err)

		return
	}
	g.log.Tracef("sent %v", hdr)
}
