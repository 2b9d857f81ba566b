// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package arvr

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Defaults for the standard end-to-end scenario: 30 FPS downlink frames of
// 1200-byte fragments, a 50 ms deadline and a 100 Hz uplink.
const (
	DefaultFragmentPayload  = 1200
	DefaultRecordSize       = FrameHeaderSize + DefaultFragmentPayload
	DefaultBufferCapacity   = 200000
	DefaultDeadlineMs       = 50
	DefaultFrameInterval    = 33 * time.Millisecond
	DefaultUplinkInterval   = 10 * time.Millisecond
	DefaultUplinkPacketSize = 100
)

var (
	// ErrUnknownReleaseMode is returned for a ReleaseMode outside the
	// declared values.
	ErrUnknownReleaseMode = errors.New("unknown release mode")

	// ErrUnknownIngestMode is returned for an IngestMode outside the
	// declared values.
	ErrUnknownIngestMode = errors.New("unknown ingest mode")
)

// ReleaseMode selects how the downlink generator releases the fragments of a
// frame.
type ReleaseMode int

const (
	// ReleaseBurst emits all fragments of a frame back to back.
	ReleaseBurst ReleaseMode = iota

	// ReleasePaced spaces consecutive fragments of a frame a fixed interval
	// apart.
	ReleasePaced
)

func (m ReleaseMode) String() string {
	switch m {
	case ReleaseBurst:
		return "burst"
	case ReleasePaced:
		return "paced"
	default:
		return fmt.Sprintf("ReleaseMode(%d)", int(m))
	}
}

// IngestMode selects how the transport feeds the receiver.
type IngestMode int

const (
	// IngestMessage delivers exactly one fragment per inbound notification.
	IngestMessage IngestMode = iota

	// IngestStream delivers arbitrary byte segments with no record
	// boundaries.
	IngestStream
)

func (m IngestMode) String() string {
	switch m {
	case IngestMessage:
		return "message"
	case IngestStream:
		return "stream"
	default:
		return fmt.Sprintf("IngestMode(%d)", int(m))
	}
}

// GeneratorConfig describes the downlink frame producer.
type GeneratorConfig struct {
	// FrameSize is the logical frame size in bytes.
	FrameSize int

	// FragmentPayload is the payload carried by each fragment, in bytes.
	FragmentPayload int

	// FrameInterval is the cadence of frame production.
	FrameInterval time.Duration

	// Release selects burst or paced fragment release.
	Release ReleaseMode

	// PacingInterval is the spacing between consecutive fragments of one
	// frame. Only used in paced mode.
	PacingInterval time.Duration
}

func (c GeneratorConfig) validate() error {
	if c.Release != ReleaseBurst && c.Release != ReleasePaced {
		return fmt.Errorf("%w: %d", ErrUnknownReleaseMode, int(c.Release))
	}
	if c.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive, got %d", c.FrameSize)
	}
	if c.FragmentPayload <= 0 {
		return fmt.Errorf("fragment payload must be positive, got %d", c.FragmentPayload)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive, got %v", c.FrameInterval)
	}
	if c.Release == ReleasePaced && c.PacingInterval <= 0 {
		return fmt.Errorf("pacing interval must be positive, got %v", c.PacingInterval)
	}
	if c.fragmentCount() > math.MaxUint16 {
		return fmt.Errorf("frame of %d bytes needs more than %d fragments", c.FrameSize, math.MaxUint16)
	}

	return nil
}

// fragmentCount is the number of fragments needed to carry one frame.
func (c GeneratorConfig) fragmentCount() int {
	return (c.FrameSize + c.FragmentPayload - 1) / c.FragmentPayload
}

// ReceiverConfig describes the downlink frame receiver.
type ReceiverConfig struct {
	// DeadlineMs is the completion deadline; a frame whose last fragment
	// arrives within DeadlineMs milliseconds of its send timestamp is
	// on time.
	DeadlineMs uint32

	// Ingest selects the message or stream ingestion path.
	Ingest IngestMode

	// RecordSize is the fixed header-plus-payload length of one fragment
	// record on the stream path.
	RecordSize int

	// BufferCapacity bounds the stream reassembly buffer in bytes. When an
	// incoming segment would push the buffer past the bound, the whole
	// buffer is cleared and the segment is discarded.
	BufferCapacity int
}

func (c ReceiverConfig) validate() error {
	switch c.Ingest {
	case IngestMessage:
		return nil
	case IngestStream:
		if c.RecordSize < FrameHeaderSize {
			return fmt.Errorf("record size must hold at least a header (%d bytes), got %d",
				FrameHeaderSize, c.RecordSize)
		}
		if c.BufferCapacity < c.RecordSize {
			return fmt.Errorf("buffer capacity %d cannot hold one record of %d bytes",
				c.BufferCapacity, c.RecordSize)
		}

		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownIngestMode, int(c.Ingest))
	}
}

// UplinkConfig describes the periodic small-packet uplink emitter.
type UplinkConfig struct {
	// Interval is the emission period.
	Interval time.Duration

	// PacketSize is the total packet size in bytes, including the
	// ControlHeader.
	PacketSize int
}

func (c UplinkConfig) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("uplink interval must be positive, got %v", c.Interval)
	}
	if c.PacketSize < ControlHeaderSize {
		return fmt.Errorf("uplink packet must hold at least a header (%d bytes), got %d",
			ControlHeaderSize, c.PacketSize)
	}

	return nil
}
