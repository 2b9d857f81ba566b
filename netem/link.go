// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

// Package netem emulates a bottleneck link in process: serialization at a
// configured rate, fixed propagation delay, reproducible random loss and a
// drop-tail backlog bound. It lets the traffic generators and receivers run
// against a shaped link without sockets.
package netem

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/iti/rngstream"
	"github.com/pion/logging"
)

// ErrClosed is returned by writes to a closed link.
var ErrClosed = errors.New("link closed")

// LinkConfig describes the emulated bottleneck.
type LinkConfig struct {
	// RateBps is the serialization rate in bits per second. 0 disables
	// serialization delay.
	RateBps int

	// Delay is the one-way propagation delay.
	Delay time.Duration

	// Loss is the independent drop probability per datagram, in [0, 1].
	Loss float64

	// QueueBytes bounds the backlog of bytes in flight on the link; writes
	// past the bound are tail dropped. 0 means unbounded.
	QueueBytes int
}

func (c LinkConfig) validate() error {
	if c.RateBps < 0 {
		return fmt.Errorf("rate must be non-negative, got %d", c.RateBps)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must be non-negative, got %v", c.Delay)
	}
	if c.Loss < 0 || c.Loss > 1 {
		return fmt.Errorf("loss must be in [0, 1], got %g", c.Loss)
	}

	return nil
}

// PacketLink delivers every written datagram to the deliver callback after
// serialization and propagation, preserving datagram boundaries. Datagrams
// can be lost or tail dropped; equal-time deliveries may be reordered, as on
// a datagram transport. It implements io.Writer so a generator writes to the
// link directly.
type PacketLink struct {
	cfg     LinkConfig
	deliver func([]byte)
	rng     *rngstream.RngStream
	log     logging.LeveledLogger

	mu        sync.Mutex
	inflight  sync.WaitGroup
	busyUntil time.Time
	backlog   int
	timers    map[uint64]*time.Timer
	nextID    uint64
	closed    bool
}

// NewPacketLink creates a link feeding deliver. The name seeds the random
// stream that drives loss decisions, so a run is reproducible.
func NewPacketLink(cfg LinkConfig, name string, deliver func([]byte)) (*PacketLink, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &PacketLink{
		cfg:     cfg,
		deliver: deliver,
		rng:     rngstream.New(name),
		log:     logging.NewDefaultLoggerFactory().NewLogger("netem_packet_link"),
		timers:  make(map[uint64]*time.Timer),
	}, nil
}

// Write queues one datagram for delivery. Lost and tail-dropped datagrams
// are still reported as written; the sender cannot observe the drop.
func (l *PacketLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrClosed
	}

	if l.cfg.Loss > 0 && l.rng.RandU01() < l.cfg.Loss {
		l.log.Tracef("lost datagram of %d bytes", len(p))

		return len(p), nil
	}
	if l.cfg.QueueBytes > 0 && l.backlog+len(p) > l.cfg.QueueBytes {
		l.log.Tracef("tail drop: backlog %d + %d > %d bytes", l.backlog, len(p), l.cfg.QueueBytes)

		return len(p), nil
	}

	now := time.Now()
	due := l.serialize(now, len(p)).Add(l.cfg.Delay)
	l.backlog += len(p)

	pkt := slices.Clone(p)
	size := len(p)
	id := l.nextID
	l.nextID++
	l.timers[id] = time.AfterFunc(time.Until(due), func() {
		l.fire(id, pkt, size)
	})

	return len(p), nil
}

// serialize books transmission time on the link, queueing behind earlier
// datagrams still being serialized, and returns the transmission end time.
// Callers must hold l.mu.
func (l *PacketLink) serialize(now time.Time, size int) time.Time {
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

// fire delivers one datagram. The lock is released before the deliver call,
// so a callback may write back into the link.
func (l *PacketLink) fire(id uint64, pkt []byte, size int) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return
	}
	delete(l.timers, id)
	l.backlog -= size
	l.inflight.Add(1)
	l.mu.Unlock()
	defer l.inflight.Done()

	l.deliver(pkt)
}

// Close cancels all pending deliveries. No delivery callback runs after
// Close returns.
func (l *PacketLink) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return nil
	}
	l.closed = true
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
	l.mu.Unlock()
	l.inflight.Wait()

	return nil
}
