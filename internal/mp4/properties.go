package mp4

import (
	"strings"
	"time"

	"github.com/octavetools/tagcodec/internal/binary"
	tagtypes "github.com/octavetools/tagcodec/internal/types"
)

// readProperties decodes the movie header for the duration and the first
// audio sample entry for the stream parameters.
func readProperties(buf []byte) (*tagtypes.AudioProperties, error) {
	mvhd, ok, err := findPath(buf, "moov", "mvhd")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	body := mvhd.data(buf)
	if len(body) < 4 {
		return nil, malformed(mvhd.off, "truncated mvhd atom")
	}

	c := binary.NewCursor(body)
	var timescale uint32
	var duration uint64
	switch version := body[0]; version {
	case 0:
		ts, err := binary.BEAt[uint32](c, 12, "mvhd timescale")
		if err != nil {
			return nil, malformed(mvhd.off, "%v", err)
		}
		d, err := binary.BEAt[uint32](c, 16, "mvhd duration")
		if err != nil {
			return nil, malformed(mvhd.off, "%v", err)
		}
		timescale, duration = ts, uint64(d)
	case 1:
		ts, err := binary.BEAt[uint32](c, 20, "mvhd timescale")
		if err != nil {
			return nil, malformed(mvhd.off, "%v", err)
		}
		d, err := binary.BEAt[uint64](c, 24, "mvhd duration")
		if err != nil {
			return nil, malformed(mvhd.off, "%v", err)
		}
		timescale, duration = ts, d
	default:
		return nil, malformed(mvhd.off, "unsupported mvhd version %d", version)
	}

	props := &tagtypes.AudioProperties{}
	var secs float64
	if timescale > 0 {
		secs = float64(duration) / float64(timescale)
		props.Duration = time.Duration(secs * float64(time.Second))
	}

	fillSampleEntry(buf, props)

	if secs > 0 {
		if mdat, ok, err := findPath(buf, "mdat"); err == nil && ok {
			props.Bitrate = int(float64((mdat.size-mdat.header)*8) / secs / 1000)
		}
	}
	return props, nil
}

// fillSampleEntry reads codec, channel count, bit depth, and sample rate
// from the first sample description.
func fillSampleEntry(buf []byte, props *tagtypes.AudioProperties) {
	stsd, ok, err := findPath(buf, "moov", "trak", "mdia", "minf", "stbl", "stsd")
	if err != nil || !ok {
		return
	}
	body := stsd.data(buf)
	// version/flags, entry count, then the first sample entry.
	if len(body) < 8+36 || be32(body[4:]) == 0 {
		return
	}
	entry := body[8:]

	format := string(entry[4:8])
	switch format {
	case "mp4a":
		props.Codec = "AAC"
	case "alac":
		props.Codec = "ALAC"
	default:
		props.Codec = strings.ToUpper(strings.TrimSpace(format))
	}

	props.Channels = int(be16(entry[24:]))
	props.BitDepth = int(be16(entry[26:]))
	props.SampleRate = int(be16(entry[32:])) // 16.16 fixed point, integer part
}
