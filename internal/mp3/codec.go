// Package mp3 implements the MP3 codec: ID3v2 and ID3v1 tag regions around a
// raw MPEG frame stream.
package mp3

import (
	"github.com/octavetools/tagcodec/internal/id3"
	"github.com/octavetools/tagcodec/internal/registry"
	"github.com/octavetools/tagcodec/internal/types"
)

func init() {
	registry.Register(types.FormatMP3, registry.Codec{
		Read:       readTag,
		Write:      writeTag,
		Properties: readProperties,
	})
}

// readTag maps the buffer into leading ID3v2 tag, audio frames, and trailing
// ID3v1 tag. The v2 tag is authoritative; the v1 trailer only fills fields
// the v2 tag left empty.
func readTag(buf []byte) (*types.Tag, types.Layout, error) {
	tag := types.NewTag()
	var layout types.Layout

	audioEnd := int64(len(buf))
	if id3.HasV1(buf) {
		layout.Trailer = types.Span{Off: audioEnd - id3.V1Size, Len: id3.V1Size}
		audioEnd -= id3.V1Size
	}

	var audioStart int64
	if id3.TagSize(buf) > 0 {
		n, err := id3.Parse(buf, tag)
		if err != nil {
			return nil, types.Layout{}, &types.MalformedContainerError{
				Format: types.FormatMP3,
				Reason: err.Error(),
			}
		}
		layout.Metadata = []types.Span{{Off: 0, Len: n}}
		audioStart = n
	}

	if !layout.Trailer.IsZero() {
		id3.ParseV1(buf[layout.Trailer.Off:layout.Trailer.End()], tag)
	}

	if audioEnd < audioStart {
		audioEnd = audioStart
	}
	layout.Audio = types.Span{Off: audioStart, Len: audioEnd - audioStart}
	return tag, layout, nil
}

// writeTag rebuilds the buffer as ID3v2 tag, untouched audio frames, ID3v1
// trailer. An empty tag drops both regions, leaving a bare frame stream.
func writeTag(tag *types.Tag, buf []byte, layout types.Layout, opts registry.WriteOptions) ([]byte, error) {
	rendered, err := id3.Render(tag, opts.Padding)
	if err != nil {
		return nil, &types.SerializationError{Format: types.FormatMP3, Reason: err.Error()}
	}

	audio := layout.AudioBytes(buf)
	out := make([]byte, 0, len(rendered)+len(audio)+id3.V1Size)
	out = append(out, rendered...)
	out = append(out, audio...)
	if !tag.IsEmpty() && !opts.OmitID3v1 {
		out = append(out, id3.RenderV1(tag)...)
	}
	return out, nil
}
