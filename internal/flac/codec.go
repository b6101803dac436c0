// Package flac implements the FLAC codec: the metadata block chain between
// the stream magic and the first audio frame.
package flac

import (
	"fmt"
	"time"

	"github.com/octavetools/tagcodec/internal/binary"
	"github.com/octavetools/tagcodec/internal/registry"
	"github.com/octavetools/tagcodec/internal/types"
	"github.com/octavetools/tagcodec/internal/vorbis"
)

// Metadata block types.
const (
	blockStreamInfo    = 0
	blockPadding       = 1
	blockVorbisComment = 4
	blockPicture       = 6
)

const magic = "fLaC"

// maxBlockSize is the largest body a 24-bit block length field can carry.
const maxBlockSize = 1<<24 - 1

// block is one metadata block in the source buffer. Body aliases the buffer.
type block struct {
	typ  byte
	off  int64
	body []byte
}

func init() {
	registry.Register(types.FormatFLAC, registry.Codec{
		Read:       readTag,
		Write:      writeTag,
		Properties: readProperties,
	})
}

func malformed(off int64, format string, args ...any) error {
	return &types.MalformedContainerError{
		Format: types.FormatFLAC,
		Offset: off,
		Reason: fmt.Sprintf(format, args...),
	}
}

// walkBlocks parses the metadata block chain. Returns the blocks and the
// offset of the first audio frame.
func walkBlocks(buf []byte) ([]block, int64, error) {
	if len(buf) < len(magic) || string(buf[:4]) != magic {
		return nil, 0, malformed(0, "missing fLaC stream marker")
	}

	c := binary.NewCursor(buf)
	c.Seek(4)

	var blocks []block
	for {
		off := c.Offset()
		header, err := binary.BE[uint8](c, "block header")
		if err != nil {
			return nil, 0, malformed(off, "truncated block header")
		}
		length := int64(0)
		for i := 0; i < 3; i++ {
			b, err := binary.BE[uint8](c, "block length")
			if err != nil {
				return nil, 0, malformed(off, "truncated block header")
			}
			length = length<<8 | int64(b)
		}

		body, err := c.Bytes(length, "block body")
		if err != nil {
			return nil, 0, malformed(off, "block length %d exceeds buffer", length)
		}
		blocks = append(blocks, block{typ: header & 0x7F, off: off, body: body})

		if header&0x80 != 0 {
			break
		}
	}

	if len(blocks) == 0 || blocks[0].typ != blockStreamInfo {
		return nil, 0, malformed(4, "first metadata block is not STREAMINFO")
	}
	if len(blocks[0].body) != 34 {
		return nil, 0, malformed(blocks[0].off, "STREAMINFO block is %d bytes, want 34", len(blocks[0].body))
	}
	return blocks, c.Offset(), nil
}

func readTag(buf []byte) (*types.Tag, types.Layout, error) {
	blocks, audioStart, err := walkBlocks(buf)
	if err != nil {
		return nil, types.Layout{}, err
	}

	tag := types.NewTag()
	for _, b := range blocks {
		switch b.typ {
		case blockVorbisComment:
			if _, err := vorbis.ParseBody(b.body, tag); err != nil {
				return nil, types.Layout{}, malformed(b.off, "%v", err)
			}
		case blockPicture:
			pic, err := vorbis.ParsePicture(b.body)
			if err != nil {
				return nil, types.Layout{}, malformed(b.off, "%v", err)
			}
			tag.AddPicture(pic)
		}
	}

	layout := types.Layout{
		Metadata: []types.Span{{Off: 0, Len: audioStart}},
		Audio:    types.Span{Off: audioStart, Len: int64(len(buf)) - audioStart},
	}
	return tag, layout, nil
}

// writeTag rebuilds the block chain: STREAMINFO and unrecognized blocks are
// carried over verbatim in their original order, the comment and picture
// blocks are regenerated from the tag, and old padding is replaced by the
// requested amount.
func writeTag(tag *types.Tag, buf []byte, layout types.Layout, opts registry.WriteOptions) ([]byte, error) {
	blocks, _, err := walkBlocks(buf)
	if err != nil {
		return nil, err
	}

	vendor := opts.Vendor
	if vendor == "" {
		for _, b := range blocks {
			if b.typ == blockVorbisComment {
				if v, err := vorbis.ParseBody(b.body, types.NewTag()); err == nil {
					vendor = v
				}
				break
			}
		}
	}

	w := binary.NewWriter()
	w.PutString(magic)

	var out []block
	for _, b := range blocks {
		if b.typ == blockVorbisComment || b.typ == blockPicture || b.typ == blockPadding {
			continue
		}
		out = append(out, b)
	}

	body, err := vorbis.RenderBody(vendor, tag, false)
	if err != nil {
		return nil, &types.SerializationError{Format: types.FormatFLAC, Reason: err.Error()}
	}
	out = append(out, block{typ: blockVorbisComment, body: body})

	for _, pic := range tag.Pictures {
		out = append(out, block{typ: blockPicture, body: vorbis.RenderPicture(pic)})
	}
	if opts.Padding > 0 {
		out = append(out, block{typ: blockPadding, body: make([]byte, opts.Padding)})
	}

	for i, b := range out {
		if len(b.body) > maxBlockSize {
			return nil, &types.SerializationError{
				Format: types.FormatFLAC,
				Reason: fmt.Sprintf("metadata block of %d bytes exceeds 24-bit length field", len(b.body)),
			}
		}
		header := b.typ
		if i == len(out)-1 {
			header |= 0x80
		}
		w.PutByte(header)
		w.PutByte(byte(len(b.body) >> 16))
		w.PutByte(byte(len(b.body) >> 8))
		w.PutByte(byte(len(b.body)))
		w.PutBytes(b.body)
	}

	w.PutBytes(layout.AudioBytes(buf))
	return w.Bytes(), nil
}

// readProperties decodes the STREAMINFO block.
func readProperties(buf []byte) (*types.AudioProperties, error) {
	blocks, audioStart, err := walkBlocks(buf)
	if err != nil {
		return nil, err
	}
	si := blocks[0].body

	sampleRate := int(si[10])<<12 | int(si[11])<<4 | int(si[12])>>4
	channels := int(si[12])>>1&0x07 + 1
	bitDepth := int(si[12])&0x01<<4 | int(si[13])>>4 + 1
	totalSamples := int64(si[13]&0x0F)<<32 | int64(si[14])<<24 |
		int64(si[15])<<16 | int64(si[16])<<8 | int64(si[17])

	props := &types.AudioProperties{
		Codec:      "FLAC",
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}
	if sampleRate > 0 && totalSamples > 0 {
		secs := float64(totalSamples) / float64(sampleRate)
		props.Duration = time.Duration(secs * float64(time.Second))
		audioBytes := int64(len(buf)) - audioStart
		props.Bitrate = int(float64(audioBytes*8) / secs / 1000)
	}
	return props, nil
}
