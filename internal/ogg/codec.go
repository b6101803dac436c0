package ogg

import (
	"bytes"
	"time"

	"github.com/octavetools/tagcodec/internal/binary"
	"github.com/octavetools/tagcodec/internal/registry"
	"github.com/octavetools/tagcodec/internal/types"
	"github.com/octavetools/tagcodec/internal/vorbis"
)

// Vorbis header packet type bytes.
const (
	packetIdent   = 0x01
	packetComment = 0x03
	packetSetup   = 0x05
)

func init() {
	registry.Register(types.FormatOgg, registry.Codec{
		Read:       readTag,
		Write:      writeTag,
		Properties: readProperties,
	})
}

// headers is the decoded leading section of a Vorbis stream: the BOS page
// carrying the identification packet, then the pages carrying the comment
// and setup packets. All byte slices alias the source buffer.
type headers struct {
	first       page
	headerPages []page
	ident       []byte
	comment     []byte
	setup       []byte
	audioOff    int64
}

// parseHeaders decodes the three Vorbis header packets. The identification
// packet must sit alone on the BOS page and the audio packets must start on
// a fresh page, both per the Vorbis I framing rules.
func parseHeaders(buf []byte) (headers, error) {
	c := binary.NewCursor(buf)

	first, err := readPage(c)
	if err != nil {
		return headers{}, err
	}
	if first.flags&flagBOS == 0 {
		return headers{}, malformed(0, "first page is not a stream begin page")
	}
	if !first.complete() {
		return headers{}, malformed(0, "identification packet spans multiple pages")
	}
	if err := checkPacket(first.body, packetIdent, first.off); err != nil {
		return headers{}, err
	}

	h := headers{first: first, ident: first.body}

	var packets [][]byte
	var partial []byte
	for len(packets) < 2 {
		p, err := readPage(c)
		if err != nil {
			return headers{}, err
		}
		h.headerPages = append(h.headerPages, p)

		off := 0
		for _, lace := range p.segments {
			if len(packets) == 2 {
				return headers{}, malformed(p.off, "audio data shares a header page")
			}
			partial = append(partial, p.body[off:off+int(lace)]...)
			off += int(lace)
			if lace < 255 {
				packets = append(packets, partial)
				partial = nil
			}
		}
	}
	if partial != nil {
		return headers{}, malformed(h.audioOff, "audio data shares a header page")
	}

	if err := checkPacket(packets[0], packetComment, 0); err != nil {
		return headers{}, err
	}
	if err := checkPacket(packets[1], packetSetup, 0); err != nil {
		return headers{}, err
	}
	h.comment = packets[0]
	h.setup = packets[1]
	h.audioOff = c.Offset()
	return h, nil
}

func checkPacket(pkt []byte, typ byte, off int64) error {
	if len(pkt) < 7 || pkt[0] != typ || string(pkt[1:7]) != "vorbis" {
		return malformed(off, "missing vorbis header packet of type %d", typ)
	}
	return nil
}

func readTag(buf []byte) (*types.Tag, types.Layout, error) {
	h, err := parseHeaders(buf)
	if err != nil {
		return nil, types.Layout{}, err
	}

	tag := types.NewTag()
	if _, err := vorbis.ParseBody(h.comment[7:], tag); err != nil {
		return nil, types.Layout{}, malformed(h.first.size, "%v", err)
	}

	layout := types.Layout{
		Metadata: []types.Span{{Off: h.first.size, Len: h.audioOff - h.first.size}},
		Audio:    types.Span{Off: h.audioOff, Len: int64(len(buf)) - h.audioOff},
	}
	return tag, layout, nil
}

// writeTag keeps the BOS page byte for byte, re-paginates a rebuilt comment
// packet together with the untouched setup packet, and carries the audio
// pages over. When re-pagination changes the header page count every audio
// page is restamped with a shifted sequence number and a fresh checksum.
func writeTag(tag *types.Tag, buf []byte, layout types.Layout, opts registry.WriteOptions) ([]byte, error) {
	h, err := parseHeaders(buf)
	if err != nil {
		return nil, err
	}

	vendor := opts.Vendor
	if vendor == "" {
		if v, err := vorbis.ParseBody(h.comment[7:], types.NewTag()); err == nil {
			vendor = v
		}
	}

	body, err := vorbis.RenderBody(vendor, tag, true)
	if err != nil {
		return nil, &types.SerializationError{Format: types.FormatOgg, Reason: err.Error()}
	}
	comment := make([]byte, 0, 7+len(body)+1)
	comment = append(comment, packetComment)
	comment = append(comment, "vorbis"...)
	comment = append(comment, body...)
	comment = append(comment, 0x01) // framing bit

	w := binary.NewWriter()
	w.PutBytes(buf[:h.first.size])

	headerPages := paginate([][]byte{comment, h.setup})
	for i, p := range headerPages {
		var flags byte
		if p.continued {
			flags = flagContinued
		}
		renderPage(w, flags, 0, h.first.serial, uint32(i+1), p.segments, p.body)
	}

	delta := int64(len(headerPages)) - int64(len(h.headerPages))
	if delta == 0 {
		w.PutBytes(layout.AudioBytes(buf))
		return w.Bytes(), nil
	}

	c := binary.NewCursor(buf)
	c.Seek(h.audioOff)
	for c.Remaining() > 0 {
		p, err := readPage(c)
		if err != nil {
			return nil, err
		}
		restampPage(w, p, uint32(int64(p.seq)+delta))
	}
	return w.Bytes(), nil
}

// pending is one not-yet-emitted page produced by paginate.
type pending struct {
	segments  []byte
	body      []byte
	continued bool
}

// paginate lays packets out into pages: each packet becomes a run of 255
// lacing values ending in a short one (possibly zero), and a page holds at
// most 255 lacing values.
func paginate(packets [][]byte) []pending {
	var pages []pending
	var cur pending

	for _, pkt := range packets {
		var laces []byte
		for n := len(pkt); ; n -= 255 {
			if n < 255 {
				laces = append(laces, byte(n))
				break
			}
			laces = append(laces, 255)
		}

		off := 0
		for i, lace := range laces {
			if len(cur.segments) == 255 {
				pages = append(pages, cur)
				cur = pending{continued: i > 0}
			}
			cur.segments = append(cur.segments, lace)
			cur.body = append(cur.body, pkt[off:off+int(lace)]...)
			off += int(lace)
		}
	}
	return append(pages, cur)
}

// readProperties decodes the identification header and derives the duration
// from the final page's granule position.
func readProperties(buf []byte) (*types.AudioProperties, error) {
	h, err := parseHeaders(buf)
	if err != nil {
		return nil, err
	}
	ident := h.ident
	if len(ident) < 28 {
		return nil, malformed(0, "identification packet is %d bytes, want at least 28", len(ident))
	}

	c := binary.NewCursor(ident)
	sampleRate, err := binary.LEAt[uint32](c, 12, "sample rate")
	if err != nil {
		return nil, malformed(0, "%v", err)
	}
	nominal, err := binary.LEAt[uint32](c, 20, "nominal bitrate")
	if err != nil {
		return nil, malformed(0, "%v", err)
	}

	props := &types.AudioProperties{
		Codec:      "Vorbis",
		Channels:   int(ident[11]),
		SampleRate: int(sampleRate),
		Bitrate:    int(int32(nominal)) / 1000,
	}

	if granule, ok := lastGranule(buf); ok && props.SampleRate > 0 {
		secs := float64(granule) / float64(props.SampleRate)
		props.Duration = time.Duration(secs * float64(time.Second))
		if props.Bitrate <= 0 && secs > 0 {
			audioBytes := int64(len(buf)) - h.audioOff
			props.Bitrate = int(float64(audioBytes*8) / secs / 1000)
		}
	}
	if props.Bitrate < 0 {
		props.Bitrate = 0
	}
	return props, nil
}

// lastGranule scans backward for the final page header and returns its
// granule position, the total sample count of the stream.
func lastGranule(buf []byte) (uint64, bool) {
	for at := len(buf) - pageHeaderSize; at >= 0; {
		idx := bytes.LastIndex(buf[:at+4], []byte(capture))
		if idx < 0 {
			return 0, false
		}
		if idx+pageHeaderSize <= len(buf) && buf[idx+4] == 0 {
			return le64(buf[idx+6:]), true
		}
		at = idx - 1
	}
	return 0, false
}
