// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package arvr

import (
	"sync"
	"time"

	"github.com/Loisone777/arvr-sim/stats"
	"github.com/pion/logging"
)

// smoothedDelayAlpha weights the running smoothed-delay estimate towards
// recent frames.
const smoothedDelayAlpha = 0.9

// ReceiverOption is a functional option for a Receiver.
type ReceiverOption func(*Receiver) error

// WithReceiverLoggerFactory configures a custom logger factory for a
// Receiver.
func WithReceiverLoggerFactory(lf logging.LoggerFactory) ReceiverOption {
	return func(r *Receiver) error {
		r.logFactory = lf

		return nil
	}
}

// WithReceiverTimeSource replaces the wall clock used to timestamp fragment
// arrivals.
func WithReceiverTimeSource(now func() time.Time) ReceiverOption {
	return func(r *Receiver) error {
		r.now = now

		return nil
	}
}

// frameState tracks reassembly progress for one frame. States are created
// lazily on the first fragment of a frame and retained until the end of the
// run for incomplete accounting.
type frameState struct {
	fragmentCount uint16
	arrived       uint32
	sendTsMs      uint32
	counted       bool
	completed     bool
}

// Receiver reconstructs downlink frames from either discrete fragment
// messages or a continuous byte stream and classifies every completed frame
// against the configured deadline. Both ingestion paths feed one shared
// per-fragment handler, so loss, duplication and late stragglers behave
// identically on either path.
type Receiver struct {
	cfg        ReceiverConfig
	now        func() time.Time
	logFactory logging.LoggerFactory
	log        logging.LeveledLogger

	mu         sync.Mutex
	frames     map[uint32]*frameState
	delays     *stats.Samples
	smoothed   *stats.Smoother
	total      uint32
	onTime     uint32
	late       uint32
	incomplete uint32
	buf        []byte
	stopped    bool
}

// NewReceiver creates a receiver. The configuration is validated before any
// traffic runs.
func NewReceiver(cfg ReceiverConfig, opts ...ReceiverOption) (*Receiver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	recv := &Receiver{
		cfg:        cfg,
		now:        time.Now,
		logFactory: logging.NewDefaultLoggerFactory(),
		frames:     make(map[uint32]*frameState),
		delays:     stats.New(),
		smoothed:   stats.NewSmoother(smoothedDelayAlpha),
	}
	for _, opt := range opts {
		if err := opt(recv); err != nil {
			return nil, err
		}
	}
	recv.log = recv.logFactory.NewLogger("arvr_receiver")

	return recv, nil
}

// HandleMessage ingests one discrete fragment: a FrameHeader followed by the
// payload. Datagrams too short to carry a header are dropped.
func (r *Receiver) HandleMessage(pkt []byte) {
	hdr, err := UnmarshalFrameHeader(pkt)
	if err != nil {
		r.log.Warnf("dropping short datagram of %d bytes", len(pkt))

		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.handleFragment(hdr)
}

// HandleSegment ingests one byte segment of the downlink stream. Segments
// carry no record alignment: they are appended to the bounded reassembly
// buffer and complete fixed-size records are peeled off its front. A segment
// that would overflow the buffer clears it entirely and is discarded; the
// stream recovers with subsequent segments.
func (r *Receiver) HandleSegment(seg []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	if len(r.buf)+len(seg) > r.cfg.BufferCapacity {
		r.log.Warnf("reassembly buffer overflow (%d+%d > %d bytes), clearing",
			len(r.buf), len(seg), r.cfg.BufferCapacity)
		r.buf = r.buf[:0]

		return
	}
	r.buf = append(r.buf, seg...)

	consumed := 0
	for len(r.buf)-consumed >= r.cfg.RecordSize {
		hdr, err := UnmarshalFrameHeader(r.buf[consumed:])
		if err != nil {
			break
		}
		r.handleFragment(hdr)
		consumed += r.cfg.RecordSize
	}
	if consumed > 0 {
		r.buf = append(r.buf[:0], r.buf[consumed:]...)
	}
}

// handleFragment is the shared per-fragment state machine. A frame is
// counted on its first fragment, whatever the fragment index, and classified
// exactly once when all fragments have arrived. Duplicates and stragglers
// after completion only advance the arrival counter. Callers must hold r.mu.
func (r *Receiver) handleFragment(hdr FrameHeader) {
	st, ok := r.frames[hdr.FrameID]
	if !ok {
		st = &frameState{}
		r.frames[hdr.FrameID] = st
	}

	if !st.counted {
		st.counted = true
		st.fragmentCount = hdr.FragmentCount
		st.sendTsMs = hdr.SendTimestampMs
		r.total++
	}

	st.arrived++

	if !st.completed && st.arrived == uint32(st.fragmentCount) {
		delay := timestampMs(r.now()) - st.sendTsMs
		r.delays.Add(delay)
		r.smoothed.Add(float64(delay))
		if delay <= r.cfg.DeadlineMs {
			r.onTime++
		} else {
			r.late++
		}
		st.completed = true
		r.log.Tracef("frame %d completed: delay=%dms fragments=%d smoothed=%.1f jitter=%.1f",
			hdr.FrameID, delay, st.fragmentCount, r.smoothed.Value(), r.smoothed.Deviation())
	}
}

// Stop finalizes the run: every frame that was counted but never fully
// reassembled is counted as incomplete, exactly once. Ingestion after Stop
// is ignored. Stop is idempotent.
func (r *Receiver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	for _, st := range r.frames {
		if st.counted && !st.completed {
			r.incomplete++
		}
	}
}

// TotalFrames is the number of frames with at least one fragment received.
func (r *Receiver) TotalFrames() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.total
}

// OnTimeFrames is the number of frames completed within the deadline.
func (r *Receiver) OnTimeFrames() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.onTime
}

// LateFrames is the number of frames completed after the deadline.
func (r *Receiver) LateFrames() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.late
}

// IncompleteFrames is the number of frames counted but never completed by
// the end of the run. It is zero until Stop is called.
func (r *Receiver) IncompleteFrames() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.incomplete
}

// DelaySummary aggregates the per-frame completion delays collected so far.
func (r *Receiver) DelaySummary() stats.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.delays.Summarize()
}

// SmoothedDelay is the exponentially weighted average of per-frame
// completion delay in milliseconds.
func (r *Receiver) SmoothedDelay() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.smoothed.Value()
}
