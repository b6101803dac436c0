package binary

import (
	"bytes"
	"encoding/binary"
)

// Writer builds a byte buffer with position tracking.
//
// Writes to the in-memory buffer cannot fail, so unlike Cursor the methods
// return nothing; callers check sizes once with Offset or Len.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 {
	return int64(w.buf.Len())
}

// Bytes returns the accumulated buffer. The slice is owned by the Writer
// until the Writer is discarded.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// PutBytes appends raw bytes.
func (w *Writer) PutBytes(b []byte) {
	w.buf.Write(b)
}

// PutString appends a string as raw bytes.
func (w *Writer) PutString(s string) {
	w.buf.WriteString(s)
}

// PutByte appends a single byte.
func (w *Writer) PutByte(b byte) {
	w.buf.WriteByte(b)
}

// PutZeros appends n zero bytes.
func (w *Writer) PutZeros(n int) {
	w.buf.Write(make([]byte, n))
}

// PutBE appends a value of type T in big-endian byte order.
func PutBE[T uint8 | uint16 | uint32 | uint64](w *Writer, val T) {
	w.buf.Write(encode(val, false))
}

// PutLE appends a value of type T in little-endian byte order.
func PutLE[T uint8 | uint16 | uint32 | uint64](w *Writer, val T) {
	w.buf.Write(encode(val, true))
}

func encode[T uint8 | uint16 | uint32 | uint64](val T, little bool) []byte {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return []byte{byte(val)}
	case uint16:
		buf := make([]byte, 2)
		if little {
			binary.LittleEndian.PutUint16(buf, uint16(val))
		} else {
			binary.BigEndian.PutUint16(buf, uint16(val))
		}
		return buf
	case uint32:
		buf := make([]byte, 4)
		if little {
			binary.LittleEndian.PutUint32(buf, uint32(val))
		} else {
			binary.BigEndian.PutUint32(buf, uint32(val))
		}
		return buf
	default:
		buf := make([]byte, 8)
		if little {
			binary.LittleEndian.PutUint64(buf, uint64(val))
		} else {
			binary.BigEndian.PutUint64(buf, uint64(val))
		}
		return buf
	}
}
