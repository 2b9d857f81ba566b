// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package netem

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/iti/rngstream"
	"github.com/pion/logging"
)

// StreamLink delivers a written byte stream in order after the same
// rate/delay model as PacketLink, re-segmented at arbitrary boundaries the
// way a byte-stream transport presents data. Delivered bytes are never
// reordered: a segment that draws a loss instead stalls the link for one
// round trip, the cost of the transport retransmitting it. QueueBytes
// bounds the backlog awaiting delivery; a write that would overflow the
// bound is discarded whole, so downstream record alignment survives the
// drop. Write never blocks.
type StreamLink struct {
	cfg        LinkConfig
	maxSegment int
	deliver    func([]byte)
	rng        *rngstream.RngStream
	log        logging.LeveledLogger

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	mu        sync.Mutex
	busyUntil time.Time
	queue     []timedSegment
	queued    int
	closed    bool
}

type timedSegment struct {
	due  time.Time
	data []byte
}

// NewStreamLink creates a link feeding deliver with segments of at most
// maxSegment bytes. The name seeds the random stream driving segmentation
// boundaries and loss stalls, so a run is reproducible.
func NewStreamLink(cfg LinkConfig, maxSegment int, name string, deliver func([]byte)) (*StreamLink, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if maxSegment <= 0 {
		return nil, fmt.Errorf("max segment must be positive, got %d", maxSegment)
	}

	link := &StreamLink{
		cfg:        cfg,
		maxSegment: maxSegment,
		deliver:    deliver,
		rng:        rngstream.New(name),
		log:        logging.NewDefaultLoggerFactory().NewLogger("netem_stream_link"),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	link.wg.Add(1)
	go link.run()

	return link, nil
}

// Write queues p for in-order delivery, splitting it into segments at random
// boundaries. A write past the backlog bound is reported as written, like
// the tail drop on PacketLink; the sender cannot observe the drop. It
// implements io.Writer so a generator writes to the link directly.
func (l *StreamLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}

	if l.cfg.QueueBytes > 0 && l.queued+len(p) > l.cfg.QueueBytes {
		l.log.Tracef("tail drop: backlog %d + %d > %d bytes", l.queued, len(p), l.cfg.QueueBytes)

		return len(p), nil
	}

	now := time.Now()
	for rest := p; len(rest) > 0; {
		n := l.segmentSize(len(rest))
		seg := slices.Clone(rest[:n])
		rest = rest[n:]

		txDone := l.serialize(now, n)
		if l.cfg.Loss > 0 && l.rng.RandU01() < l.cfg.Loss {
			// retransmission: the segment arrives one round trip later and
			// everything behind it queues up.
			txDone = txDone.Add(2 * l.cfg.Delay)
			l.busyUntil = txDone
			l.log.Tracef("segment of %d bytes stalled for retransmission", n)
		}

		l.queue = append(l.queue, timedSegment{due: txDone.Add(l.cfg.Delay), data: seg})
		l.queued += n
	}

	select {
	case l.wake <- struct{}{}:
	default:
	}

	return len(p), nil
}

// serialize books transmission time on the link and returns the transmission
// end time. Callers must hold l.mu.
func (l *StreamLink) serialize(now time.Time, size int) time.Time {
	start := now
	if l.busyUntil.After(start) {
		start = l.busyUntil
	}
	txDone := start
	if l.cfg.RateBps > 0 {
		txDone = start.Add(time.Duration(float64(size*8) / float64(l.cfg.RateBps) * float64(time.Second)))
	}
	l.busyUntil = txDone

	return txDone
}

// segmentSize picks a boundary in [1, maxSegment] so records regularly span
// segment boundaries downstream.
func (l *StreamLink) segmentSize(remaining int) int {
	n := 1 + int(l.rng.RandU01()*float64(l.maxSegment))
	if n > l.maxSegment {
		n = l.maxSegment
	}
	if n > remaining {
		n = remaining
	}

	return n
}

// pop takes the oldest queued segment, if any. The segment still counts
// against the backlog bound until release.
func (l *StreamLink) pop() (timedSegment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return timedSegment{}, false
	}
	seg := l.queue[0]
	l.queue = l.queue[1:]

	return seg, true
}

// release frees a delivered segment's bytes from the backlog bound.
func (l *StreamLink) release(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queued -= n
}

// run delivers queued segments strictly in order once their due time has
// passed. The queue lock is never held across a deliver call or a timer
// wait, so writers are never blocked by delivery.
func (l *StreamLink) run() {
	defer l.wg.Done()
	for {
		seg, ok := l.pop()
		if !ok {
			select {
			case <-l.wake:
				continue
			case <-l.done:
				return
			}
		}
		if wait := time.Until(seg.due); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-l.done:
				t.Stop()

				return
			}
		}
		l.deliver(seg.data)
		l.release(len(seg.data))
	}
}

// Close stops delivery and discards bytes still in flight, mirroring a torn
// down connection. No delivery callback runs after Close returns.
func (l *StreamLink) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return nil
	}
	l.closed = true
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()

	return nil
}
