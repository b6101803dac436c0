// Package binary provides bounds-checked primitive reads and writes over
// in-memory byte buffers.
package binary

import (
	"encoding/binary"
	"fmt"
)

// Cursor reads primitives from a byte slice with bounds checking.
//
// Random-access reads take an explicit offset; sequential reads advance an
// internal offset. Every read carries a short description that ends up in
// error messages, so a failed parse names the field that broke.
type Cursor struct {
	buf []byte
	off int64
}

// NewCursor creates a Cursor over buf starting at offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Size returns the total length of the underlying buffer.
func (c *Cursor) Size() int64 {
	return int64(len(c.buf))
}

// Offset returns the current sequential read position.
func (c *Cursor) Offset() int64 {
	return c.off
}

// Seek sets the sequential read position.
func (c *Cursor) Seek(off int64) {
	c.off = off
}

// Skip advances the sequential read position by n bytes.
func (c *Cursor) Skip(n int64) {
	c.off += n
}

// Remaining returns the number of bytes between the current position and the
// end of the buffer. Negative when the position has been seeked past the end.
func (c *Cursor) Remaining() int64 {
	return int64(len(c.buf)) - c.off
}

// ReadAt copies len(dst) bytes at the given offset into dst.
func (c *Cursor) ReadAt(dst []byte, off int64, what string) error {
	if off < 0 || off > int64(len(c.buf)) {
		return fmt.Errorf("offset %d out of bounds (buffer size %d) while reading %s",
			off, len(c.buf), what)
	}
	if off+int64(len(dst)) > int64(len(c.buf)) {
		return fmt.Errorf("read of %d bytes at offset %d would exceed buffer size %d while reading %s",
			len(dst), off, len(c.buf), what)
	}
	copy(dst, c.buf[off:])
	return nil
}

// BytesAt returns an owned copy of n bytes at the given offset.
func (c *Cursor) BytesAt(off, n int64, what string) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative length %d while reading %s", n, what)
	}
	buf := make([]byte, n)
	if err := c.ReadAt(buf, off, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// Bytes reads n bytes at the current position and advances past them.
func (c *Cursor) Bytes(n int64, what string) ([]byte, error) {
	buf, err := c.BytesAt(c.off, n, what)
	if err != nil {
		return nil, err
	}
	c.off += n
	return buf, nil
}

// String reads an n-byte string at the current position and advances past it.
func (c *Cursor) String(n int64, what string) (string, error) {
	buf, err := c.Bytes(n, what)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// BEAt reads a big-endian value of type T at the given offset.
func BEAt[T uint8 | uint16 | uint32 | uint64](c *Cursor, off int64, what string) (T, error) {
	return readAt[T](c, off, what, false)
}

// LEAt reads a little-endian value of type T at the given offset.
func LEAt[T uint8 | uint16 | uint32 | uint64](c *Cursor, off int64, what string) (T, error) {
	return readAt[T](c, off, what, true)
}

// BE reads a big-endian value of type T at the current position and advances
// past it.
func BE[T uint8 | uint16 | uint32 | uint64](c *Cursor, what string) (T, error) {
	val, err := readAt[T](c, c.off, what, false)
	if err != nil {
		return val, err
	}
	c.off += int64(sizeOf[T]())
	return val, nil
}

// LE reads a little-endian value of type T at the current position and
// advances past it.
func LE[T uint8 | uint16 | uint32 | uint64](c *Cursor, what string) (T, error) {
	val, err := readAt[T](c, c.off, what, true)
	if err != nil {
		return val, err
	}
	c.off += int64(sizeOf[T]())
	return val, nil
}

func sizeOf[T uint8 | uint16 | uint32 | uint64]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

func readAt[T uint8 | uint16 | uint32 | uint64](c *Cursor, off int64, what string, little bool) (T, error) {
	var zero T
	size := sizeOf[T]()

	buf := make([]byte, size)
	if err := c.ReadAt(buf, off, what); err != nil {
		return zero, err
	}

	var val T
	switch any(zero).(type) {
	case uint8:
		val = T(buf[0])
	case uint16:
		if little {
			val = T(binary.LittleEndian.Uint16(buf))
		} else {
			val = T(binary.BigEndian.Uint16(buf))
		}
	case uint32:
		if little {
			val = T(binary.LittleEndian.Uint32(buf))
		} else {
			val = T(binary.BigEndian.Uint32(buf))
		}
	case uint64:
		if little {
			val = T(binary.LittleEndian.Uint64(buf))
		} else {
			val = T(binary.BigEndian.Uint64(buf))
		}
	}
	return val, nil
}

// Chain wraps a Cursor with deferred error checking, so a run of reads can be
// written without an "if err != nil" after each one.
type Chain struct {
	*Cursor
	err error
}

// NewChain creates a Chain over the given cursor.
func NewChain(c *Cursor) *Chain {
	return &Chain{Cursor: c}
}

// ChainBE reads a big-endian value, accumulating any error.
func ChainBE[T uint8 | uint16 | uint32 | uint64](ch *Chain, what string) T {
	if ch.err != nil {
		var zero T
		return zero
	}
	val, err := BE[T](ch.Cursor, what)
	if err != nil {
		ch.err = err
	}
	return val
}

// ChainLE reads a little-endian value, accumulating any error.
func ChainLE[T uint8 | uint16 | uint32 | uint64](ch *Chain, what string) T {
	if ch.err != nil {
		var zero T
		return zero
	}
	val, err := LE[T](ch.Cursor, what)
	if err != nil {
		ch.err = err
	}
	return val
}

// ChainBytes reads n bytes, accumulating any error.
func (ch *Chain) ChainBytes(n int64, what string) []byte {
	if ch.err != nil {
		return nil
	}
	buf, err := ch.Cursor.Bytes(n, what)
	if err != nil {
		ch.err = err
		return nil
	}
	return buf
}

// Err returns the first error encountered by any chained read.
func (ch *Chain) Err() error {
	return ch.err
}
