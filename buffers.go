// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

import (
	"encoding/binary"
	"fmt"
	"math"
)

// dynamicBuffer is a device buffer that is recreated only when an upload
// outgrows it.
type dynamicBuffer struct {
	label string
	id    BufferID
	size  int
}

// upload writes data to the buffer, growing it first when needed.
func (b *dynamicBuffer) upload(dev Device, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if b.id == InvalidID || len(data) > b.size {
		if b.id != InvalidID {
			dev.DestroyBuffer(b.id)
			b.id, b.size = InvalidID, 0
		}
		id, err := dev.CreateBuffer(b.label, len(data))
		if err != nil {
			return fmt.Errorf("create %s buffer: %w", b.label, err)
		}
		b.id, b.size = id, len(data)
	}
	if err := dev.WriteBuffer(b.id, data); err != nil {
		return fmt.Errorf("write %s buffer: %w", b.label, err)
	}
	Logger().Debug("error2d: buffer upload", "buffer", b.label, "bytes", len(data), "capacity", b.size)
	return nil
}

func (b *dynamicBuffer) release(dev Device) {
	if b.id != InvalidID {
		dev.DestroyBuffer(b.id)
	}
	b.id, b.size = InvalidID, 0
}

// encodeFloats packs vals as little-endian f32, zero-padded to n values.
func encodeFloats(vals []float64, n int) []byte {
	if n < len(vals) {
		n = len(vals)
	}
	buf := make([]byte, n*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}

// encodeColors widens RGBA bytes to f32 in 0..255, zero-padded to n
// colours.
func encodeColors(rgba []uint8, n int) []byte {
	if n*4 < len(rgba) {
		n = len(rgba) / 4
	}
	buf := make([]byte, n*ColorStride)
	for i, c := range rgba {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(c)))
	}
	return buf
}
