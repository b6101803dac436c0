// Package ogg implements the Ogg Vorbis codec: header packets reassembled
// from the leading pages, with the comment packet rebuilt and re-paginated
// on write.
package ogg

import (
	"fmt"

	"github.com/octavetools/tagcodec/internal/binary"
	"github.com/octavetools/tagcodec/internal/types"
)

const (
	capture        = "OggS"
	pageHeaderSize = 27

	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04
)

// page is one Ogg page decoded from the source buffer. body aliases the
// buffer.
type page struct {
	off      int64
	size     int64
	flags    byte
	granule  uint64
	serial   uint32
	seq      uint32
	segments []byte
	body     []byte
}

// complete reports whether the last packet on the page ends there (the final
// lacing value is < 255).
func (p page) complete() bool {
	return len(p.segments) > 0 && p.segments[len(p.segments)-1] < 255
}

func malformed(off int64, format string, args ...any) error {
	return &types.MalformedContainerError{
		Format: types.FormatOgg,
		Offset: off,
		Reason: fmt.Sprintf(format, args...),
	}
}

// readPage decodes the page at the cursor's position and advances past it.
func readPage(c *binary.Cursor) (page, error) {
	off := c.Offset()

	header, err := c.Bytes(pageHeaderSize, "page header")
	if err != nil {
		return page{}, malformed(off, "truncated page header")
	}
	if string(header[:4]) != capture {
		return page{}, malformed(off, "missing OggS capture pattern")
	}
	if header[4] != 0 {
		return page{}, malformed(off, "unsupported stream structure version %d", header[4])
	}

	p := page{
		off:     off,
		flags:   header[5],
		granule: le64(header[6:]),
		serial:  le32(header[14:]),
		seq:     le32(header[18:]),
	}

	segCount := int64(header[26])
	p.segments, err = c.Bytes(segCount, "segment table")
	if err != nil {
		return page{}, malformed(off, "truncated segment table")
	}

	var bodyLen int64
	for _, lace := range p.segments {
		bodyLen += int64(lace)
	}
	p.body, err = c.Bytes(bodyLen, "page body")
	if err != nil {
		return page{}, malformed(off, "page body of %d bytes exceeds buffer", bodyLen)
	}

	p.size = c.Offset() - off
	return p, nil
}

// renderPage emits a page with a freshly computed CRC.
func renderPage(w *binary.Writer, flags byte, granule uint64, serial, seq uint32, segments, body []byte) {
	raw := make([]byte, 0, pageHeaderSize+len(segments)+len(body))
	raw = append(raw, capture...)
	raw = append(raw, 0, flags)
	raw = appendLE64(raw, granule)
	raw = appendLE32(raw, serial)
	raw = appendLE32(raw, seq)
	raw = append(raw, 0, 0, 0, 0) // CRC placeholder
	raw = append(raw, byte(len(segments)))
	raw = append(raw, segments...)
	raw = append(raw, body...)

	crc := pageCRC(raw)
	raw[22] = byte(crc)
	raw[23] = byte(crc >> 8)
	raw[24] = byte(crc >> 16)
	raw[25] = byte(crc >> 24)
	w.PutBytes(raw)
}

// restampPage re-emits an existing page with a new sequence number.
func restampPage(w *binary.Writer, p page, seq uint32) {
	renderPage(w, p.flags, p.granule, p.serial, seq, p.segments, p.body)
}

// crcTable implements the Ogg page checksum: polynomial 0x04C11DB7, not
// reflected, zero initial value, zero final XOR. Direct CRC-32 poly, so
// hash/crc32 (reflected) does not apply.
var crcTable = func() [256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04C11DB7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}()

func pageCRC(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func le64(b []byte) uint64 {
	return uint64(le32(b)) | uint64(le32(b[4:]))<<32
}

func appendLE32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendLE64(dst []byte, v uint64) []byte {
	dst = appendLE32(dst, uint32(v))
	return appendLE32(dst, uint32(v>>32))
}
