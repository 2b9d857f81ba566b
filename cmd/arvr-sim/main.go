// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

// Command arvr-sim runs the AR/VR traffic model over an emulated bottleneck
// link and prints the timeliness report.
//
// The transport profile selects both the release discipline and the
// ingestion path: udp sends bursts of discrete datagrams, quic paces the
// fragments of each frame, and tcp delivers a continuous byte stream that
// the receiver reassembles.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	arvr "github.com/Loisone777/arvr-sim"
	"github.com/Loisone777/arvr-sim/netem"
)

// streamSegmentMax caps the size of one stream segment, roughly an Ethernet
// payload.
const streamSegmentMax = 1460

type runConfig struct {
	transport      string
	rateMbps       float64
	delay          time.Duration
	loss           float64
	queueBytes     int
	deadlineMs     uint
	frameSize      int
	payload        int
	frameInterval  time.Duration
	pacing         time.Duration
	streamBuffer   int
	uplinkInterval time.Duration
	uplinkSize     int
	duration       time.Duration
}

func defaultConfig() runConfig {
	return runConfig{
		transport:      "udp",
		rateMbps:       100,
		delay:          10 * time.Millisecond,
		loss:           0,
		queueBytes:     150000,
		deadlineMs:     arvr.DefaultDeadlineMs,
		frameSize:      90000,
		payload:        arvr.DefaultFragmentPayload,
		frameInterval:  arvr.DefaultFrameInterval,
		pacing:         200 * time.Microsecond,
		streamBuffer:   arvr.DefaultBufferCapacity,
		uplinkInterval: arvr.DefaultUplinkInterval,
		uplinkSize:     arvr.DefaultUplinkPacketSize,
		duration:       10 * time.Second,
	}
}

func main() {
	cfg := defaultConfig()
	scenarioPath := flag.String("scenario", "", "YAML scenario file; explicit flags override its values")
	flag.StringVar(&cfg.transport, "transport", cfg.transport, "transport profile: udp, quic or tcp")
	flag.Float64Var(&cfg.rateMbps, "rate", cfg.rateMbps, "bottleneck rate in Mbit/s")
	flag.DurationVar(&cfg.delay, "delay", cfg.delay, "one-way propagation delay")
	flag.Float64Var(&cfg.loss, "loss", cfg.loss, "packet loss probability [0..1]")
	flag.IntVar(&cfg.queueBytes, "queue", cfg.queueBytes, "drop-tail queue bound in bytes")
	flag.UintVar(&cfg.deadlineMs, "deadline", cfg.deadlineMs, "per-frame deadline in ms")
	flag.IntVar(&cfg.frameSize, "frameSize", cfg.frameSize, "downlink frame size in bytes")
	flag.IntVar(&cfg.payload, "payload", cfg.payload, "fragment payload size in bytes")
	flag.DurationVar(&cfg.frameInterval, "frameInterval", cfg.frameInterval, "downlink frame interval")
	flag.DurationVar(&cfg.pacing, "pacing", cfg.pacing, "fragment pacing interval (quic profile)")
	flag.IntVar(&cfg.streamBuffer, "streamBuffer", cfg.streamBuffer, "stream reassembly buffer capacity in bytes")
	flag.DurationVar(&cfg.uplinkInterval, "uplinkInterval", cfg.uplinkInterval, "uplink emission interval")
	flag.IntVar(&cfg.uplinkSize, "uplinkSize", cfg.uplinkSize, "uplink packet size in bytes")
	flag.DurationVar(&cfg.duration, "duration", cfg.duration, "traffic duration")
	flag.Parse()

	if *scenarioPath != "" {
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if err := loadScenario(*scenarioPath, &cfg, explicit); err != nil {
			fmt.Fprintln(os.Stderr, "arvr-sim:", err)
			os.Exit(1)
		}
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "arvr-sim:", err)
		os.Exit(1)
	}
}

func run(cfg runConfig) error {
	ingest := arvr.IngestMessage
	release := arvr.ReleaseBurst
	switch cfg.transport {
	case "udp":
	case "quic":
		release = arvr.ReleasePaced
	case "tcp":
		ingest = arvr.IngestStream
	default:
		return fmt.Errorf("unknown transport %q (want udp, quic or tcp)", cfg.transport)
	}

	recv, err := arvr.NewReceiver(arvr.ReceiverConfig{
		DeadlineMs:     uint32(cfg.deadlineMs), //nolint:gosec // flag range
		Ingest:         ingest,
		RecordSize:     arvr.FrameHeaderSize + cfg.payload,
		BufferCapacity: cfg.streamBuffer,
	})
	if err != nil {
		return err
	}

	linkCfg := netem.LinkConfig{
		RateBps:    int(cfg.rateMbps * 1e6),
		Delay:      cfg.delay,
		Loss:       cfg.loss,
		QueueBytes: cfg.queueBytes,
	}

	var downWriter io.Writer
	var downClose func() error
	if ingest == arvr.IngestStream {
		link, err := netem.NewStreamLink(linkCfg, streamSegmentMax, "downlink", recv.HandleSegment)
		if err != nil {
			return err
		}
		downWriter, downClose = link, link.Close
	} else {
		link, err := netem.NewPacketLink(linkCfg, "downlink", recv.HandleMessage)
		if err != nil {
			return err
		}
		downWriter, downClose = link, link.Close
	}

	gen, err := arvr.NewDownlinkGenerator(arvr.GeneratorConfig{
		FrameSize:       cfg.frameSize,
		FragmentPayload: cfg.payload,
		FrameInterval:   cfg.frameInterval,
		Release:         release,
		PacingInterval:  cfg.pacing,
	}, downWriter)
	if err != nil {
		return err
	}

	collector, err := arvr.NewUplinkCollector()
	if err != nil {
		return err
	}
	upLink, err := netem.NewPacketLink(linkCfg, "uplink", collector.HandlePacket)
	if err != nil {
		return err
	}
	uplink, err := arvr.NewUplinkGenerator(arvr.UplinkConfig{
		Interval:   cfg.uplinkInterval,
		PacketSize: cfg.uplinkSize,
	}, upLink)
	if err != nil {
		return err
	}

	gen.Start()
	uplink.Start()
	time.Sleep(cfg.duration)
	gen.Stop()
	uplink.Stop()

	// let datagrams still on the link drain before the final accounting
	time.Sleep(cfg.delay + 200*time.Millisecond)

	closeErr := errors.Join(downClose(), upLink.Close())
	recv.Stop()

	fmt.Printf("[VR-RECV] %s\n", recv.Report())
	fmt.Printf("[VR-DL] %s\n", arvr.DelayReport{Summary: recv.DelaySummary()})
	fmt.Printf("[UL-IMU] %s\n", arvr.DelayReport{Summary: collector.DelaySummary()})

	return closeErr
}
