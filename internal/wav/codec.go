// Package wav implements the RIFF/WAVE codec. Tag data lives in an "id3 "
// chunk holding a complete ID3v2 tag, the convention most tag editors share.
package wav

import (
	"fmt"
	"math"
	"time"

	"github.com/octavetools/tagcodec/internal/binary"
	"github.com/octavetools/tagcodec/internal/id3"
	"github.com/octavetools/tagcodec/internal/registry"
	"github.com/octavetools/tagcodec/internal/types"
)

const riffHeaderSize = 12

func init() {
	registry.Register(types.FormatWAV, registry.Codec{
		Read:       readTag,
		Write:      writeTag,
		Properties: readProperties,
	})
}

// chunk is one RIFF chunk. body aliases the source buffer; size excludes
// the pad byte that follows an odd-sized body.
type chunk struct {
	id   string
	off  int64
	body []byte
}

// padded returns the total chunk size on disk, header and pad included.
func (c chunk) padded() int64 {
	n := int64(8 + len(c.body))
	if len(c.body)%2 == 1 {
		n++
	}
	return n
}

func (c chunk) isTag() bool {
	return c.id == "id3 " || c.id == "ID3 "
}

func malformed(off int64, format string, args ...any) error {
	return &types.MalformedContainerError{
		Format: types.FormatWAV,
		Offset: off,
		Reason: fmt.Sprintf(format, args...),
	}
}

// walkChunks parses the chunk chain after the RIFF header. A declared RIFF
// size smaller than the real buffer is tolerated; chunks are bounded by the
// buffer itself, matching how players treat appended data.
func walkChunks(buf []byte) ([]chunk, error) {
	if len(buf) < riffHeaderSize || string(buf[:4]) != "RIFF" || string(buf[8:12]) != "WAVE" {
		return nil, malformed(0, "missing RIFF/WAVE header")
	}

	var chunks []chunk
	off := int64(riffHeaderSize)
	for off+8 <= int64(len(buf)) {
		size := int64(le32(buf[off+4:]))
		if off+8+size > int64(len(buf)) {
			return nil, malformed(off, "chunk %q size %d exceeds buffer", string(buf[off:off+4]), size)
		}
		c := chunk{
			id:   string(buf[off : off+4]),
			off:  off,
			body: buf[off+8 : off+8+size],
		}
		chunks = append(chunks, c)
		off += c.padded()
	}
	return chunks, nil
}

func readTag(buf []byte) (*types.Tag, types.Layout, error) {
	chunks, err := walkChunks(buf)
	if err != nil {
		return nil, types.Layout{}, err
	}

	tag := types.NewTag()
	var layout types.Layout
	for _, c := range chunks {
		switch {
		case c.isTag():
			if _, err := id3.Parse(c.body, tag); err != nil {
				return nil, types.Layout{}, malformed(c.off, "%v", err)
			}
			layout.Metadata = append(layout.Metadata, types.Span{Off: c.off, Len: c.padded()})
		case c.id == "data":
			layout.Audio = types.Span{Off: c.off, Len: c.padded()}
		}
	}
	return tag, layout, nil
}

// writeTag rebuilds the chunk chain, dropping any existing tag chunk and
// appending a fresh "id3 " chunk at the end, then restamps the RIFF size.
func writeTag(tag *types.Tag, buf []byte, layout types.Layout, opts registry.WriteOptions) ([]byte, error) {
	chunks, err := walkChunks(buf)
	if err != nil {
		return nil, err
	}

	rendered, err := id3.Render(tag, opts.Padding)
	if err != nil {
		return nil, &types.SerializationError{Format: types.FormatWAV, Reason: err.Error()}
	}

	out := make([]byte, riffHeaderSize)
	copy(out, "RIFF")
	copy(out[8:], "WAVE")

	for _, c := range chunks {
		if c.isTag() {
			continue
		}
		out = append(out, buf[c.off:c.off+c.padded()]...)
	}
	if rendered != nil {
		hdr := make([]byte, 8)
		copy(hdr, "id3 ")
		putLE32(hdr[4:], uint32(len(rendered)))
		out = append(out, hdr...)
		out = append(out, rendered...)
		if len(rendered)%2 == 1 {
			out = append(out, 0)
		}
	}

	riffSize := int64(len(out)) - 8
	if riffSize > math.MaxUint32 {
		return nil, &types.SerializationError{
			Format: types.FormatWAV,
			Reason: fmt.Sprintf("RIFF size %d exceeds 32-bit size field", riffSize),
		}
	}
	putLE32(out[4:], uint32(riffSize))
	return out, nil
}

// readProperties decodes the fmt chunk, with the duration derived from the
// data chunk size and byte rate.
func readProperties(buf []byte) (*types.AudioProperties, error) {
	chunks, err := walkChunks(buf)
	if err != nil {
		return nil, err
	}

	var fmtChunk, dataChunk *chunk
	for i := range chunks {
		switch chunks[i].id {
		case "fmt ":
			fmtChunk = &chunks[i]
		case "data":
			dataChunk = &chunks[i]
		}
	}
	if fmtChunk == nil {
		return nil, nil
	}
	ch := binary.NewChain(binary.NewCursor(fmtChunk.body))
	audioFormat := binary.ChainLE[uint16](ch, "audio format")
	channels := binary.ChainLE[uint16](ch, "channel count")
	sampleRate := binary.ChainLE[uint32](ch, "sample rate")
	byteRate := int64(binary.ChainLE[uint32](ch, "byte rate"))
	ch.Skip(2) // block align
	bitDepth := binary.ChainLE[uint16](ch, "bits per sample")
	if err := ch.Err(); err != nil {
		return nil, malformed(fmtChunk.off, "fmt chunk: %v", err)
	}

	props := &types.AudioProperties{
		Channels:   int(channels),
		SampleRate: int(sampleRate),
		BitDepth:   int(bitDepth),
		Bitrate:    int(byteRate * 8 / 1000),
	}
	switch audioFormat {
	case 1:
		props.Codec = "PCM"
	case 3:
		props.Codec = "IEEE float"
	case 0xFFFE:
		props.Codec = "WAVE extensible"
	default:
		props.Codec = fmt.Sprintf("WAVE format %d", audioFormat)
	}
	if dataChunk != nil && byteRate > 0 {
		secs := float64(len(dataChunk.body)) / float64(byteRate)
		props.Duration = time.Duration(secs * float64(time.Second))
	}
	return props, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
