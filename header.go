// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

// Package arvr models the asymmetric traffic of an interactive AR/VR
// session: a periodic, large, frame-based downlink and a high-frequency,
// small-packet uplink. Generators produce the two patterns, and receivers
// reassemble downlink frames and measure delivery timeliness against a
// deadline.
package arvr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// FrameHeaderSize is the encoded size of a FrameHeader in bytes.
const FrameHeaderSize = 12

// ControlHeaderSize is the encoded size of a ControlHeader in bytes.
const ControlHeaderSize = 4

// ErrShortBuffer is returned when a buffer cannot hold an encoded header.
var ErrShortBuffer = errors.New("buffer too short for header")

// A FrameHeader is attached to every downlink fragment. All fragments of one
// frame share the same FragmentCount and SendTimestampMs.
type FrameHeader struct {
	// FrameID identifies the logical frame the fragment belongs to.
	FrameID uint32

	// FragmentIndex is the 0-based position of the fragment within its
	// frame. It is always smaller than FragmentCount.
	FragmentIndex uint16

	// FragmentCount is the total number of fragments in the frame.
	FragmentCount uint16

	// SendTimestampMs is the sender clock, in milliseconds, at the moment
	// the frame was released.
	SendTimestampMs uint32
}

// MarshalTo encodes the header into the first FrameHeaderSize bytes of buf
// in network byte order.
func (h FrameHeader) MarshalTo(buf []byte) (int, error) {
	if len(buf) < FrameHeaderSize {
		return 0, ErrShortBuffer
	}
	binary.BigEndian.PutUint32(buf[0:4], h.FrameID)
	binary.BigEndian.PutUint16(buf[4:6], h.FragmentIndex)
	binary.BigEndian.PutUint16(buf[6:8], h.FragmentCount)
	binary.BigEndian.PutUint32(buf[8:12], h.SendTimestampMs)

	return FrameHeaderSize, nil
}

// UnmarshalFrameHeader decodes a FrameHeader from the first FrameHeaderSize
// bytes of buf. Trailing bytes are ignored, so a header can be read in place
// at the front of a larger reassembly buffer.
func UnmarshalFrameHeader(buf []byte) (FrameHeader, error) {
	if len(buf) < FrameHeaderSize {
		return FrameHeader{}, ErrShortBuffer
	}

	return FrameHeader{
		FrameID:         binary.BigEndian.Uint32(buf[0:4]),
		FragmentIndex:   binary.BigEndian.Uint16(buf[4:6]),
		FragmentCount:   binary.BigEndian.Uint16(buf[6:8]),
		SendTimestampMs: binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

func (h FrameHeader) String() string {
	return fmt.Sprintf("frameId=%d fragment=%d/%d sendTsMs=%d",
		h.FrameID, h.FragmentIndex, h.FragmentCount, h.SendTimestampMs)
}

// A ControlHeader is attached to every uplink packet.
type ControlHeader struct {
	// SendTimestampMs is the sender clock, in milliseconds, when the packet
	// was emitted.
	SendTimestampMs uint32
}

// MarshalTo encodes the header into the first ControlHeaderSize bytes of buf
// in network byte order.
func (h ControlHeader) MarshalTo(buf []byte) (int, error) {
	if len(buf) < ControlHeaderSize {
		return 0, ErrShortBuffer
	}
	binary.BigEndian.PutUint32(buf[0:4], h.SendTimestampMs)

	return ControlHeaderSize, nil
}

// UnmarshalControlHeader decodes a ControlHeader from the first
// ControlHeaderSize bytes of buf.
func UnmarshalControlHeader(buf []byte) (ControlHeader, error) {
	if len(buf) < ControlHeaderSize {
		return ControlHeader{}, ErrShortBuffer
	}

	return ControlHeader{SendTimestampMs: binary.BigEndian.Uint32(buf[0:4])}, nil
}

func (h ControlHeader) String() string {
	return fmt.Sprintf("sendTsMs=%d", h.SendTimestampMs)
}

// timestampMs projects t onto the 32-bit millisecond clock carried on the
// wire. The value wraps roughly every 49.7 days; delays are computed with
// uint32 subtraction and stay correct across a single wrap.
func timestampMs(t time.Time) uint32 {
	return uint32(t.UnixMilli()) //nolint:gosec // truncation is the wire format
}
