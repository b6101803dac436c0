package mp3

import (
	"time"

	"github.com/octavetools/tagcodec/internal/id3"
	"github.com/octavetools/tagcodec/internal/types"
)

// MPEG version and layer codes as stored in the frame header.
const (
	mpegV25 = 0
	mpegV2  = 2
	mpegV1  = 3

	layerIII = 1
	layerII  = 2
	layerI   = 3
)

// bitrateTable is indexed by [table][bitrateIndex] in kbps, with table
// selected per version and layer. Index 0 is the free-format escape and
// index 15 is forbidden; both read as 0.
var bitrateTable = [5][16]int{
	{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0}, // V1 L1
	{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},    // V1 L2
	{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},     // V1 L3
	{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},    // V2 L1
	{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},         // V2 L2+L3
}

var sampleRateTable = [4]int{44100, 48000, 32000, 0}

// frameInfo is one decoded MPEG frame header.
type frameInfo struct {
	version    byte
	layer      byte
	bitrate    int // kbps
	sampleRate int
	channels   int
	size       int64
}

// samplesPerFrame returns the PCM samples one frame decodes to.
func (f frameInfo) samplesPerFrame() int {
	switch f.layer {
	case layerI:
		return 384
	case layerII:
		return 1152
	default:
		if f.version == mpegV1 {
			return 1152
		}
		return 576
	}
}

// parseFrameHeader decodes the 4-byte header at the start of data, or
// returns false when data does not hold a valid frame.
func parseFrameHeader(data []byte) (frameInfo, bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1]&0xE0 != 0xE0 {
		return frameInfo{}, false
	}

	var f frameInfo
	f.version = data[1] >> 3 & 0x03
	f.layer = data[1] >> 1 & 0x03
	if f.version == 1 || f.layer == 0 {
		return frameInfo{}, false
	}

	bitrateIdx := data[2] >> 4
	rateIdx := data[2] >> 2 & 0x03

	table := 4
	if f.version == mpegV1 {
		table = layerI - int(f.layer) // L1 -> 0, L2 -> 1, L3 -> 2
	} else if f.layer == layerI {
		table = 3
	}
	f.bitrate = bitrateTable[table][bitrateIdx]

	f.sampleRate = sampleRateTable[rateIdx]
	switch f.version {
	case mpegV2:
		f.sampleRate /= 2
	case mpegV25:
		f.sampleRate /= 4
	}
	if f.bitrate == 0 || f.sampleRate == 0 {
		return frameInfo{}, false
	}

	f.channels = 2
	if data[3]>>6 == 3 {
		f.channels = 1
	}

	padding := int64(data[2] >> 1 & 0x01)
	if f.layer == layerI {
		f.size = (12*int64(f.bitrate)*1000/int64(f.sampleRate) + padding) * 4
	} else {
		slots := int64(f.samplesPerFrame() / 8)
		f.size = slots*int64(f.bitrate)*1000/int64(f.sampleRate) + padding
	}
	return f, true
}

// findFirstFrame scans forward from off for a decodable frame header,
// bounded so a buffer of junk does not cost a full pass. A candidate only
// counts when the next frame header lines up at its computed size, which
// filters out sync patterns occurring inside frame data.
func findFirstFrame(buf []byte, off int64) (frameInfo, int64, bool) {
	const scanLimit = 64 * 1024
	end := int64(len(buf))
	if end > off+scanLimit {
		end = off + scanLimit
	}
	for ; off+4 <= end; off++ {
		f, ok := parseFrameHeader(buf[off:])
		if !ok {
			continue
		}
		if next := off + f.size; next+4 <= int64(len(buf)) {
			if _, ok := parseFrameHeader(buf[next:]); !ok {
				continue
			}
		}
		return f, off, true
	}
	return frameInfo{}, 0, false
}

// readProperties derives technical properties from the frame stream. A VBR
// header (Xing or VBRI) in the first frame gives an exact frame count;
// otherwise the stream is assumed CBR at the first frame's bitrate. Returns
// (nil, nil) when no frame is decodable.
func readProperties(buf []byte) (*types.AudioProperties, error) {
	audioStart := id3.TagSize(buf)
	audioEnd := int64(len(buf))
	if id3.HasV1(buf) {
		audioEnd -= id3.V1Size
	}
	if audioStart >= audioEnd {
		return nil, nil
	}

	frame, frameOff, ok := findFirstFrame(buf[:audioEnd], audioStart)
	if !ok {
		return nil, nil
	}
	audioBytes := audioEnd - frameOff

	props := &types.AudioProperties{
		Codec:      "MP3",
		SampleRate: frame.sampleRate,
		Channels:   frame.channels,
		Bitrate:    frame.bitrate,
	}

	if frames, ok := vbrFrameCount(buf[frameOff:audioEnd], frame); ok {
		samples := int64(frames) * int64(frame.samplesPerFrame())
		props.Duration = time.Duration(samples) * time.Second / time.Duration(frame.sampleRate)
		if secs := props.Duration.Seconds(); secs > 0 {
			props.Bitrate = int(float64(audioBytes*8) / secs / 1000)
		}
	} else if frame.bitrate > 0 {
		props.Duration = time.Duration(audioBytes*8) * time.Second /
			time.Duration(frame.bitrate*1000)
	}
	return props, nil
}

// vbrFrameCount extracts the total frame count from a Xing/Info or VBRI
// header inside the first frame.
func vbrFrameCount(frame []byte, info frameInfo) (uint32, bool) {
	// Xing sits after the side information block.
	xingOff := 4 + 32
	if info.channels == 1 {
		xingOff = 4 + 17
	}
	if info.version != mpegV1 {
		xingOff = 4 + 17
		if info.channels == 1 {
			xingOff = 4 + 9
		}
	}
	if len(frame) >= xingOff+12 {
		magic := string(frame[xingOff : xingOff+4])
		if magic == "Xing" || magic == "Info" {
			flags := be32(frame[xingOff+4:])
			if flags&0x01 != 0 {
				return be32(frame[xingOff+8:]), true
			}
		}
	}

	// VBRI sits at a fixed 32-byte offset; the frame count at +14.
	const vbriOff = 4 + 32
	if len(frame) >= vbriOff+18 && string(frame[vbriOff:vbriOff+4]) == "VBRI" {
		return be32(frame[vbriOff+14:]), true
	}
	return 0, false
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
