package types

import (
	"fmt"
	"time"
)

// AudioProperties are technical properties derived from the audio payload,
// independent of tag data. A nil *AudioProperties means "absent": the buffer
// held no decodable frame or stream header, which is a valid state, not an
// error.
type AudioProperties struct {
	Duration   time.Duration
	Bitrate    int // kbps
	SampleRate int // Hz
	Channels   int
	BitDepth   int // bits per sample, 0 when the codec does not expose it
	Codec      string
}

// String returns a one-line summary, e.g. "FLAC 44.1kHz 16-bit stereo".
func (p AudioProperties) String() string {
	out := p.Codec
	if p.SampleRate > 0 {
		out += fmt.Sprintf(" %.1fkHz", float64(p.SampleRate)/1000)
	}
	if p.BitDepth > 0 {
		out += fmt.Sprintf(" %d-bit", p.BitDepth)
	}
	switch p.Channels {
	case 0:
	case 1:
		out += " mono"
	case 2:
		out += " stereo"
	default:
		out += fmt.Sprintf(" %dch", p.Channels)
	}
	if p.Bitrate > 0 {
		out += fmt.Sprintf(" %dkbps", p.Bitrate)
	}
	return out
}
