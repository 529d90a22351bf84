// Object pools for the G-code formatting hot path
//
// Provides reusable objects for the types allocated on every emitted line:
// - Argument maps (for parsed job-script words)
// - Byte buffers (for building G-code fragments)
//
// Usage:
//
//	buf := pool.GetByteBuffer()
//	defer pool.PutByteBuffer(buf)
//	buf.WriteString("G1 X")
//	buf.AppendFixed(12.5, 3)
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"strconv"
	"sync"
)

// ArgsMap pool - for job-script argument maps
var argsMapPool = sync.Pool{
	New: func() any {
		return make(map[string]string, 8)
	},
}

// GetArgsMap gets a string map from the pool
func GetArgsMap() map[string]string {
	return argsMapPool.Get().(map[string]string)
}

// PutArgsMap returns a string map to the pool after clearing it
func PutArgsMap(m map[string]string) {
	if m == nil {
		return
	}
	clear(m)
	argsMapPool.Put(m)
}

// ByteBuffer accumulates one G-code fragment.
type ByteBuffer struct {
	buf []byte
}

var byteBufferPool = sync.Pool{
	New: func() any {
		return &ByteBuffer{
			buf: make([]byte, 0, 64), // one or two G-code lines
		}
	},
}

// GetByteBuffer gets a byte buffer from the pool
func GetByteBuffer() *ByteBuffer {
	b := byteBufferPool.Get().(*ByteBuffer)
	b.buf = b.buf[:0]
	return b
}

// PutByteBuffer returns a byte buffer to the pool
func PutByteBuffer(b *ByteBuffer) {
	if b == nil {
		return
	}
	// Don't pool oversized buffers (> 4KB)
	if cap(b.buf) > 4096 {
		return
	}
	byteBufferPool.Put(b)
}

// Bytes returns the buffer's byte slice
func (b *ByteBuffer) Bytes() []byte {
	return b.buf
}

// String copies the buffer contents into a string
func (b *ByteBuffer) String() string {
	return string(b.buf)
}

// Write appends bytes to the buffer
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte
func (b *ByteBuffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends a string
func (b *ByteBuffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// AppendFixed appends v with exactly prec decimals.
func (b *ByteBuffer) AppendFixed(v float64, prec int) {
	b.buf = strconv.AppendFloat(b.buf, v, 'f', prec, 64)
}

// AppendShortest appends v with up to six significant digits and no
// trailing zeros (255 -> "255", 127.5 -> "127.5").
func (b *ByteBuffer) AppendShortest(v float64) {
	b.buf = strconv.AppendFloat(b.buf, v, 'g', 6, 64)
}

// AppendUint appends an unsigned integer.
func (b *ByteBuffer) AppendUint(v uint64) {
	b.buf = strconv.AppendUint(b.buf, v, 10)
}

// AppendInt appends a signed integer.
func (b *ByteBuffer) AppendInt(v int64) {
	b.buf = strconv.AppendInt(b.buf, v, 10)
}

// Len returns the buffer length
func (b *ByteBuffer) Len() int {
	return len(b.buf)
}

// Reset clears the buffer
func (b *ByteBuffer) Reset() {
	b.buf = b.buf[:0]
}
