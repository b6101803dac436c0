// Package mp4 implements the MP4/M4A codec: iTunes-style metadata under
// moov/udta/meta/ilst, with chunk-offset tables repatched when the moov atom
// changes size.
package mp4

import (
	"fmt"

	"github.com/octavetools/tagcodec/internal/types"
)

// atom is one box in the tree. Offsets are absolute in the source buffer.
type atom struct {
	typ    string
	off    int64
	size   int64 // total, header included
	header int64 // 8, or 16 with an extended size
}

func (a atom) dataOff() int64 { return a.off + a.header }
func (a atom) end() int64     { return a.off + a.size }
func (a atom) data(buf []byte) []byte {
	return buf[a.dataOff():a.end()]
}

// childOffset returns where a container's child atoms begin. The meta atom
// is a full box and carries a 4-byte version/flags prefix before its
// children.
func (a atom) childOffset() int64 {
	if a.typ == "meta" {
		return a.dataOff() + 4
	}
	return a.dataOff()
}

func malformed(off int64, format string, args ...any) error {
	return &types.MalformedContainerError{
		Format: types.FormatMP4,
		Offset: off,
		Reason: fmt.Sprintf(format, args...),
	}
}

// readAtom decodes the atom header at off. end bounds the enclosing
// container.
func readAtom(buf []byte, off, end int64) (atom, error) {
	if off+8 > end {
		return atom{}, malformed(off, "truncated atom header")
	}
	a := atom{
		typ:    string(buf[off+4 : off+8]),
		off:    off,
		size:   int64(be32(buf[off:])),
		header: 8,
	}
	switch a.size {
	case 0:
		// Atom extends to the end of the container.
		a.size = end - off
	case 1:
		if off+16 > end {
			return atom{}, malformed(off, "truncated extended atom header")
		}
		a.size = int64(be64(buf[off+8:]))
		a.header = 16
	}
	if a.size < a.header || off+a.size > end {
		return atom{}, malformed(off, "atom %q size %d exceeds container", a.typ, a.size)
	}
	return a, nil
}

// walk invokes fn for each atom in [start, end). fn returning false stops
// the walk.
func walk(buf []byte, start, end int64, fn func(atom) bool) error {
	for off := start; off < end; {
		a, err := readAtom(buf, off, end)
		if err != nil {
			return err
		}
		if !fn(a) {
			return nil
		}
		off = a.end()
	}
	return nil
}

// find returns the first child atom of the given type in [start, end).
func find(buf []byte, start, end int64, typ string) (atom, bool, error) {
	var found atom
	var ok bool
	err := walk(buf, start, end, func(a atom) bool {
		if a.typ == typ {
			found, ok = a, true
			return false
		}
		return true
	})
	return found, ok, err
}

// findPath descends a container path from the top level of buf.
func findPath(buf []byte, path ...string) (atom, bool, error) {
	start, end := int64(0), int64(len(buf))
	var cur atom
	for _, typ := range path {
		a, ok, err := find(buf, start, end, typ)
		if err != nil || !ok {
			return atom{}, false, err
		}
		cur = a
		start, end = a.childOffset(), a.end()
	}
	return cur, true, nil
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func be64(b []byte) uint64 {
	return uint64(be32(b))<<32 | uint64(be32(b[4:]))
}

func putBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func putBE64(b []byte, v uint64) {
	putBE32(b, uint32(v>>32))
	putBE32(b[4:], uint32(v))
}
