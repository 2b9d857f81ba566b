// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package arvr

import (
	"io"
	"sync"
	"time"

	"github.com/Loisone777/arvr-sim/stats"
	"github.com/pion/logging"
)

// UplinkOption is a functional option for an UplinkGenerator.
type UplinkOption func(*UplinkGenerator) error

// WithUplinkLoggerFactory configures a custom logger factory for an
// UplinkGenerator.
func WithUplinkLoggerFactory(lf logging.LoggerFactory) UplinkOption {
	return func(g *UplinkGenerator) error {
		g.logFactory = lf

		return nil
	}
}

// WithUplinkTimeSource replaces the wall clock used to stamp packets.
func WithUplinkTimeSource(now func() time.Time) UplinkOption {
	return func(g *UplinkGenerator) error {
		g.now = now

		return nil
	}
}

// UplinkGenerator emits fixed-size control packets, each carrying a
// ControlHeader with the current time, at a fixed period. There is no
// fragmentation and no frame grouping on the uplink.
type UplinkGenerator struct {
	cfg        UplinkConfig
	out        io.Writer
	now        func() time.Time
	logFactory logging.LoggerFactory
	log        logging.LeveledLogger

	mu      sync.Mutex
	sent    uint64
	timer   *time.Timer
	stopped bool
}

// NewUplinkGenerator creates a generator writing packets to out. The
// configuration is validated before any traffic runs.
func NewUplinkGenerator(cfg UplinkConfig, out io.Writer, opts ...UplinkOption) (*UplinkGenerator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	gen := &UplinkGenerator{
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
	gen.log = gen.logFactory.NewLogger("arvr_uplink_generator")

	return gen, nil
}

// Start emits the first packet immediately and schedules the rest of the
// run. It must be called at most once.
func (g *UplinkGenerator) Start() {
	g.sendOne()
}

// Stop cancels the pending emission. No packet is written after Stop
// returns.
func (g *UplinkGenerator) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// PacketsSent is the number of packets emitted so far.
func (g *UplinkGenerator) PacketsSent() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.sent
}

func (g *UplinkGenerator) sendOne() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}

	hdr := ControlHeader{SendTimestampMs: timestampMs(g.now())}
	pkt := make([]byte, g.cfg.PacketSize)
	if _, err := hdr.MarshalTo(pkt); err != nil {
		g.log.Errorf("failed to marshal %v: %v", hdr, err)
	} else if _, err := g.out.Write(pkt); err != nil {
		g.log.Warnf("failed to write %v: %v", hdr, err)
	} else {
		g.sent++
		g.log.Tracef("sent %v", hdr)
	}

	g.timer = time.AfterFunc(g.cfg.Interval, g.sendOne)
}

// CollectorOption is a functional option for an UplinkCollector.
type CollectorOption func(*UplinkCollector) error

// WithCollectorLoggerFactory configures a custom logger factory for an
// UplinkCollector.
func WithCollectorLoggerFactory(lf logging.LoggerFactory) CollectorOption {
	return func(c *UplinkCollector) error {
		c.logFactory = lf

		return nil
	}
}

// WithCollectorTimeSource replaces the wall clock used to timestamp packet
// arrivals.
func WithCollectorTimeSource(now func() time.Time) CollectorOption {
	return func(c *UplinkCollector) error {
		c.now = now

		return nil
	}
}

// UplinkCollector measures the one-way delay of every inbound uplink packet.
type UplinkCollector struct {
	now        func() time.Time
	logFactory logging.LoggerFactory
	log        logging.LeveledLogger

	mu     sync.Mutex
	delays *stats.Samples
}

// NewUplinkCollector creates a collector.
func NewUplinkCollector(opts ...CollectorOption) (*UplinkCollector, error) {
	col := &UplinkCollector{
		now:        time.Now,
		logFactory: logging.NewDefaultLoggerFactory(),
		delays:     stats.New(),
	}
	for _, opt := range opts {
		if err := opt(col); err != nil {
			return nil, err
		}
	}
	col.log = col.logFactory.NewLogger("arvr_uplink_collector")

	return col, nil
}

// HandlePacket ingests one inbound uplink packet. Packets too short to carry
// a ControlHeader are dropped.
func (c *UplinkCollector) HandlePacket(pkt []byte) {
	hdr, err := UnmarshalControlHeader(pkt)
	if err != nil {
		c.log.Warnf("dropping short packet of %d bytes", len(pkt))

		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delay := timestampMs(c.now()) - hdr.SendTimestampMs
	c.delays.Add(delay)
	c.log.Tracef("packet delay=%dms", delay)
}

// PacketsReceived is the number of packets measured so far.
func (c *UplinkCollector) PacketsReceived() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.delays.Len()
}

// DelaySummary aggregates the per-packet delays collected so far.
func (c *UplinkCollector) DelaySummary() stats.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.delays.Summarize()
}
