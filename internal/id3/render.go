package id3

import (
	"fmt"
	"strconv"

	"github.com/octavetools/tagcodec/internal/binary"
	"github.com/octavetools/tagcodec/internal/types"
)

// maxFrameSize is the largest body a synchsafe frame size field can carry.
const maxFrameSize = 1<<28 - 1

// reservedFrameIDs are text frame ids the reader maps to well-known fields
// (or, for TXXX, to the description key). A property with one of these names
// must not be emitted as a native frame or it would shadow the field on
// read-back.
var reservedFrameIDs = map[string]bool{
	"TXXX": true,
	"TIT2": true,
	"TPE1": true,
	"TALB": true,
	"TCON": true,
	"TDRC": true,
	"TYER": true,
	"TRCK": true,
}

// Render serializes the tag as an ID3v2.4 tag with the given number of
// trailing padding bytes. All text is written as UTF-8. Returns nil when the
// tag is empty, so callers can drop the region instead of writing a bare
// header.
func Render(tag *types.Tag, padding int) ([]byte, error) {
	frames := binary.NewWriter()

	if err := putTextFrame(frames, "TIT2", tag.Title); err != nil {
		return nil, err
	}
	if err := putTextFrame(frames, "TPE1", tag.Artist); err != nil {
		return nil, err
	}
	if err := putTextFrame(frames, "TALB", tag.Album); err != nil {
		return nil, err
	}
	if err := putTextFrame(frames, "TCON", tag.Genre); err != nil {
		return nil, err
	}
	if tag.Year > 0 {
		if err := putTextFrame(frames, "TDRC", strconv.Itoa(tag.Year)); err != nil {
			return nil, err
		}
	}
	if tag.Track > 0 {
		if err := putTextFrame(frames, "TRCK", strconv.Itoa(tag.Track)); err != nil {
			return nil, err
		}
	}
	if tag.Comment != "" {
		if !types.TextSafe(tag.Comment) {
			return nil, fmt.Errorf("control character in COMM text")
		}
		body := binary.NewWriter()
		body.PutByte(encUTF8)
		body.PutString("eng")
		body.PutByte(0) // empty description
		body.PutString(tag.Comment)
		if err := putFrame(frames, "COMM", body.Bytes()); err != nil {
			return nil, err
		}
	}

	for key, value := range tag.Properties() {
		if !types.TextSafe(key) {
			return nil, fmt.Errorf("control character in property key %q", key)
		}
		if !types.TextSafe(value) {
			return nil, fmt.Errorf("control character in %s value", key)
		}
		// Properties named like native text frames round-trip as such,
		// except ids the reader maps elsewhere; everything else becomes
		// a TXXX frame keyed by description.
		if textFrameID.MatchString(key) && !reservedFrameIDs[key] {
			if err := putTextFrame(frames, key, value); err != nil {
				return nil, err
			}
			continue
		}
		body := binary.NewWriter()
		body.PutByte(encUTF8)
		body.PutString(key)
		body.PutByte(0)
		body.PutString(value)
		if err := putFrame(frames, "TXXX", body.Bytes()); err != nil {
			return nil, err
		}
	}

	for _, pic := range tag.Pictures {
		if !types.TextSafe(pic.MIME) {
			return nil, fmt.Errorf("control character in picture MIME type %q", pic.MIME)
		}
		if !types.TextSafe(pic.Description) {
			return nil, fmt.Errorf("control character in picture description")
		}
		body := binary.NewWriter()
		body.PutByte(encUTF8)
		body.PutString(pic.MIME)
		body.PutByte(0)
		body.PutByte(byte(pic.Type))
		body.PutString(pic.Description)
		body.PutByte(0)
		body.PutBytes(pic.Data)
		if err := putFrame(frames, "APIC", body.Bytes()); err != nil {
			return nil, err
		}
	}

	if frames.Offset() == 0 {
		return nil, nil
	}

	bodySize := frames.Offset() + int64(padding)
	if bodySize > maxFrameSize {
		return nil, fmt.Errorf("tag body size %d exceeds synchsafe limit", bodySize)
	}

	w := binary.NewWriter()
	w.PutString("ID3")
	w.PutByte(4) // version 2.4.0
	w.PutByte(0)
	w.PutByte(0) // no flags
	putSynchsafe(w, bodySize)
	w.PutBytes(frames.Bytes())
	w.PutZeros(padding)
	return w.Bytes(), nil
}

func putTextFrame(w *binary.Writer, id, text string) error {
	if text == "" {
		return nil
	}
	if !types.TextSafe(text) {
		return fmt.Errorf("control character in %s text", id)
	}
	body := binary.NewWriter()
	body.PutByte(encUTF8)
	body.PutString(text)
	return putFrame(w, id, body.Bytes())
}

func putFrame(w *binary.Writer, id string, body []byte) error {
	if len(body) > maxFrameSize {
		return fmt.Errorf("frame %s size %d exceeds synchsafe limit", id, len(body))
	}
	w.PutString(id)
	putSynchsafe(w, int64(len(body)))
	w.PutZeros(2) // frame flags
	w.PutBytes(body)
	return nil
}

func putSynchsafe(w *binary.Writer, v int64) {
	w.PutByte(byte(v >> 21 & 0x7F))
	w.PutByte(byte(v >> 14 & 0x7F))
	w.PutByte(byte(v >> 7 & 0x7F))
	w.PutByte(byte(v & 0x7F))
}
