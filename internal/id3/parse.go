package id3

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/octavetools/tagcodec/internal/types"
)

// HeaderSize is the fixed size of the ID3v2 tag header.
const HeaderSize = 10

// textFrameID matches native text frame identifiers other than TXXX.
var textFrameID = regexp.MustCompile(`^T[A-Z0-9]{3}$`)

// decodeSynchsafe unpacks a 28-bit synchsafe integer from 4 bytes.
func decodeSynchsafe(b []byte) int64 {
	return int64(b[0]&0x7F)<<21 | int64(b[1]&0x7F)<<14 |
		int64(b[2]&0x7F)<<7 | int64(b[3]&0x7F)
}

// TagSize returns the total size of an ID3v2 tag at the start of buf,
// including header and footer, or 0 when buf does not start with one.
func TagSize(buf []byte) int64 {
	if len(buf) < HeaderSize || string(buf[:3]) != "ID3" {
		return 0
	}
	size := HeaderSize + decodeSynchsafe(buf[6:10])
	if buf[5]&0x10 != 0 {
		size += HeaderSize // footer mirrors the header
	}
	return size
}

// Parse decodes an ID3v2.3 or ID3v2.4 tag at the start of buf into tag and
// returns the number of bytes the tag occupies.
func Parse(buf []byte, tag *types.Tag) (int64, error) {
	total := TagSize(buf)
	if total == 0 {
		return 0, fmt.Errorf("missing ID3v2 header")
	}
	if total > int64(len(buf)) {
		return 0, fmt.Errorf("tag size %d exceeds buffer size %d", total, len(buf))
	}

	version := buf[3]
	if version != 3 && version != 4 {
		return 0, fmt.Errorf("unsupported ID3v2.%d tag", version)
	}
	flags := buf[5]

	body := buf[HeaderSize : HeaderSize+decodeSynchsafe(buf[6:10])]
	if flags&0x80 != 0 {
		// Whole-tag unsynchronization (v2.3 style).
		body = removeUnsync(body)
	}
	if flags&0x40 != 0 {
		// Extended header: v2.4 stores a synchsafe size that includes the
		// size field itself, v2.3 a plain size that excludes it.
		if len(body) < 4 {
			return 0, fmt.Errorf("truncated extended header")
		}
		var extSize int64
		if version == 4 {
			extSize = decodeSynchsafe(body[:4])
		} else {
			extSize = 4 + (int64(body[0])<<24 | int64(body[1])<<16 |
				int64(body[2])<<8 | int64(body[3]))
		}
		if extSize < 4 || extSize > int64(len(body)) {
			return 0, fmt.Errorf("extended header size %d out of range", extSize)
		}
		body = body[extSize:]
	}

	if err := parseFrames(body, version, tag); err != nil {
		return 0, err
	}
	return total, nil
}

func parseFrames(body []byte, version byte, tag *types.Tag) error {
	off := 0
	for off+HeaderSize <= len(body) {
		if body[off] == 0 {
			break // padding
		}
		id := string(body[off : off+4])

		var size int64
		if version == 4 {
			size = decodeSynchsafe(body[off+4 : off+8])
		} else {
			size = int64(body[off+4])<<24 | int64(body[off+5])<<16 |
				int64(body[off+6])<<8 | int64(body[off+7])
		}
		formatFlags := body[off+9]

		start := off + HeaderSize
		if size < 0 || int64(start)+size > int64(len(body)) {
			return fmt.Errorf("frame %s size %d exceeds tag body", id, size)
		}
		frame := body[start : int64(start)+size]
		if version == 4 && formatFlags&0x02 != 0 {
			frame = removeUnsync(frame)
		}

		if err := applyFrame(id, frame, tag); err != nil {
			return fmt.Errorf("frame %s: %w", id, err)
		}
		off = start + int(size)
	}
	return nil
}

// applyFrame maps one frame onto the tag. Unknown text frames are preserved
// as extended properties under their frame ID; unknown binary frames are
// dropped.
func applyFrame(id string, frame []byte, tag *types.Tag) error {
	switch id {
	case "COMM":
		return applyComment(frame, tag)
	case "TXXX":
		return applyUserText(frame, tag)
	case "APIC":
		return applyPicture(frame, tag)
	}

	if !textFrameID.MatchString(id) {
		return nil
	}
	if len(frame) < 1 {
		return fmt.Errorf("empty text frame")
	}
	text, err := trimText(frame[1:], frame[0])
	if err != nil {
		return err
	}

	switch id {
	case "TIT2":
		tag.Title = text
	case "TPE1":
		tag.Artist = text
	case "TALB":
		tag.Album = text
	case "TCON":
		tag.Genre = resolveGenre(text)
	case "TYER", "TDRC":
		if len(text) >= 4 {
			if year, err := strconv.Atoi(text[:4]); err == nil {
				tag.Year = year
			}
		}
	case "TRCK":
		num := text
		if slash := strings.IndexByte(num, '/'); slash >= 0 {
			num = num[:slash]
		}
		if track, err := strconv.Atoi(num); err == nil {
			tag.Track = track
		}
	default:
		tag.SetProperty(id, text)
	}
	return nil
}

// resolveGenre turns numeric TCON content ("(13)" in v2.3, plain "13" in
// v2.4) into the table name. Non-numeric content passes through.
func resolveGenre(text string) string {
	ref := text
	if strings.HasPrefix(ref, "(") {
		if close := strings.IndexByte(ref, ')'); close > 0 {
			ref = ref[1:close]
		}
	}
	if code, err := strconv.Atoi(ref); err == nil {
		if name := GenreName(code); name != "" {
			return name
		}
	}
	return text
}

// applyComment decodes a COMM frame: encoding, 3-byte language, terminated
// description, text.
func applyComment(frame []byte, tag *types.Tag) error {
	if len(frame) < 4 {
		return fmt.Errorf("truncated comment frame")
	}
	encoding := frame[0]
	_, rest, err := splitTerminated(frame[4:], encoding)
	if err != nil {
		return err
	}
	text, err := trimText(rest, encoding)
	if err != nil {
		return err
	}
	// Keep the first comment; iTunes-style extra COMM frames lose.
	if tag.Comment == "" {
		tag.Comment = text
	}
	return nil
}

// applyUserText decodes a TXXX frame into an extended property keyed by its
// description.
func applyUserText(frame []byte, tag *types.Tag) error {
	if len(frame) < 1 {
		return fmt.Errorf("truncated user text frame")
	}
	encoding := frame[0]
	desc, rest, err := splitTerminated(frame[1:], encoding)
	if err != nil {
		return err
	}
	value, err := trimText(rest, encoding)
	if err != nil {
		return err
	}
	if desc != "" {
		tag.SetProperty(desc, value)
	}
	return nil
}

// applyPicture decodes an APIC frame: encoding, terminated Latin-1 MIME,
// type byte, terminated description, image data.
func applyPicture(frame []byte, tag *types.Tag) error {
	if len(frame) < 1 {
		return fmt.Errorf("truncated picture frame")
	}
	encoding := frame[0]

	mime, rest, err := splitTerminated(frame[1:], encLatin1)
	if err != nil {
		return err
	}
	if len(rest) < 1 {
		return fmt.Errorf("truncated picture frame")
	}
	picType := rest[0]

	desc, data, err := splitTerminated(rest[1:], encoding)
	if err != nil {
		return err
	}

	tag.AddPicture(types.Picture{
		Type:        types.PictureType(picType),
		MIME:        mime,
		Description: desc,
		Data:        data,
	})
	return nil
}

// removeUnsync reverses ID3 unsynchronization by dropping the stuffed zero
// byte after each 0xFF.
func removeUnsync(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		out = append(out, data[i])
		if data[i] == 0xFF && i+1 < len(data) && data[i+1] == 0x00 {
			i++
		}
	}
	return out
}
