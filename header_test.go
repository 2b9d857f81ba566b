// SPDX-FileCopyrightText: 2026 The arvr-sim authors
// SPDX-License-Identifier: MIT

package arvr

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	cases := []FrameHeader{
		{},
		{FrameID: 1, FragmentIndex: 0, FragmentCount: 1, SendTimestampMs: 33},
		{FrameID: 42, FragmentIndex: 7, FragmentCount: 75, SendTimestampMs: 123456789},
		{
			FrameID:         math.MaxUint32,
			FragmentIndex:   math.MaxUint16,
			FragmentCount:   math.MaxUint16,
			SendTimestampMs: math.MaxUint32,
		},
	}

	for i, hdr := range cases {
		t.Run(fmt.Sprintf("%v", i), func(t *testing.T) {
			buf := make([]byte, FrameHeaderSize)
			n, err := hdr.MarshalTo(buf)
			assert.NoError(t, err)
			assert.Equal(t, FrameHeaderSize, n)

			decoded, err := UnmarshalFrameHeader(buf)
			assert.NoError(t, err)
			assert.Equal(t, hdr, decoded)
		})
	}
}

func TestFrameHeaderLayout(t *testing.T) {
	hdr := FrameHeader{
		FrameID:         0x01020304,
		FragmentIndex:   0x0506,
		FragmentCount:   0x0708,
		SendTimestampMs: 0x090a0b0c,
	}
	buf := make([]byte, FrameHeaderSize)
	_, err := hdr.MarshalTo(buf)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, buf)
}

func TestFrameHeaderDecodeWithTrailingBytes(t *testing.T) {
	hdr := FrameHeader{FrameID: 9, FragmentIndex: 1, FragmentCount: 2, SendTimestampMs: 1000}
	buf := make([]byte, FrameHeaderSize+1200)
	_, err := hdr.MarshalTo(buf)
	assert.NoError(t, err)

	decoded, err := UnmarshalFrameHeader(buf)
	assert.NoError(t, err)
	assert.Equal(t, hdr, decoded)
}

func TestFrameHeaderShortBuffer(t *testing.T) {
	_, err := UnmarshalFrameHeader(make([]byte, FrameHeaderSize-1))
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = FrameHeader{}.MarshalTo(make([]byte, FrameHeaderSize-1))
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestControlHeaderRoundTrip(t *testing.T) {
	for _, ts := range []uint32{0, 1, 999, math.MaxUint32} {
		buf := make([]byte, ControlHeaderSize)
		n, err := ControlHeader{SendTimestampMs: ts}.MarshalTo(buf)
		assert.NoError(t, err)
		assert.Equal(t, ControlHeaderSize, n)

		decoded, err := UnmarshalControlHeader(buf)
		assert.NoError(t, err)
		assert.Equal(t, ts, decoded.SendTimestampMs)
	}
}

func TestControlHeaderShortBuffer(t *testing.T) {
	_, err := UnmarshalControlHeader([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, err = ControlHeader{}.MarshalTo([]byte{})
	assert.ErrorIs(t, err, ErrShortBuffer)
}
