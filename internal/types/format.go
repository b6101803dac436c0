// Package types provides the core data structures of the tag engine: the
// format-agnostic tag model, picture attachments, the layout map, audio
// properties, format detection, and the error taxonomy.
package types

// Format identifies a supported container kind.
type Format int

const (
	// FormatUnknown represents an unrecognized or unsupported container.
	FormatUnknown Format = iota
	// FormatMP3 represents MP3 streams with optional ID3v2/ID3v1 tags.
	FormatMP3
	// FormatMP4 represents MP4/M4A atom-tree containers.
	FormatMP4
	// FormatFLAC represents FLAC metadata block chains.
	FormatFLAC
	// FormatOgg represents Ogg Vorbis page streams.
	FormatOgg
	// FormatWAV represents RIFF/WAVE chunk chains.
	FormatWAV
)

func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "MP3"
	case FormatMP4:
		return "MP4"
	case FormatFLAC:
		return "FLAC"
	case FormatOgg:
		return "Ogg"
	case FormatWAV:
		return "WAV"
	default:
		return "Unknown"
	}
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatMP3:
		return []string{".mp3"}
	case FormatMP4:
		return []string{".m4a", ".mp4", ".m4b"}
	case FormatFLAC:
		return []string{".flac"}
	case FormatOgg:
		return []string{".ogg", ".oga"}
	case FormatWAV:
		return []string{".wav"}
	default:
		return nil
	}
}

// Detect classifies a buffer by its leading bytes.
//
// Every format except MP3 has a fixed-offset magic. For MP3 an optional
// leading ID3v2 tag is skipped (its size field is synchsafe) before testing
// for the frame-sync pattern, so tagged files without an audible preamble
// still classify without scanning the whole buffer.
func Detect(buf []byte) Format {
	if len(buf) < 4 {
		return FormatUnknown
	}

	if string(buf[:4]) == "fLaC" {
		return FormatFLAC
	}

	if string(buf[:4]) == "OggS" {
		return FormatOgg
	}

	if string(buf[:4]) == "RIFF" && len(buf) >= 12 && string(buf[8:12]) == "WAVE" {
		return FormatWAV
	}

	// MP4: a 4-byte size followed by "ftyp" at offset 4.
	if len(buf) >= 8 && string(buf[4:8]) == "ftyp" {
		return FormatMP4
	}

	// MP3 with a leading ID3v2 tag. Skip the tag per its synchsafe size
	// field, then test for frame sync; a tag that consumes the remaining
	// buffer still counts (a freshly tagged file may carry no frames yet).
	if string(buf[:3]) == "ID3" && len(buf) >= 10 {
		size := int64(buf[6]&0x7F)<<21 | int64(buf[7]&0x7F)<<14 |
			int64(buf[8]&0x7F)<<7 | int64(buf[9]&0x7F)
		after := 10 + size
		if buf[5]&0x10 != 0 {
			after += 10 // footer present
		}
		if after+2 > int64(len(buf)) || isFrameSync(buf[after:]) {
			return FormatMP3
		}
		return FormatUnknown
	}

	if isFrameSync(buf) {
		return FormatMP3
	}

	return FormatUnknown
}

// isFrameSync reports whether data starts with an MPEG frame-sync pattern
// (11 set bits).
func isFrameSync(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}
