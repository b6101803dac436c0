// Package id3 implements the ID3v2.3/2.4 and ID3v1 tag codecs. MP3 buffers
// carry these tags directly; WAV buffers embed an ID3v2 tag inside a RIFF
// chunk, so both format packages share this one.
//
// Errors returned here are plain; callers wrap them with their container
// context.
package id3

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Text encoding bytes as defined by ID3v2.4 (v2.3 defines only the first two).
const (
	encLatin1  = 0
	encUTF16   = 1 // with BOM
	encUTF16BE = 2
	encUTF8    = 3
)

// decodeText converts a frame text body in the given encoding to a Go string.
func decodeText(data []byte, encoding byte) (string, error) {
	switch encoding {
	case encLatin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decoding Latin-1 text: %w", err)
		}
		return string(out), nil
	case encUTF16:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decoding UTF-16 text: %w", err)
		}
		return string(out), nil
	case encUTF16BE:
		out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decoding UTF-16BE text: %w", err)
		}
		return string(out), nil
	case encUTF8:
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown text encoding %d", encoding)
	}
}

// terminatorSize returns the width of a NUL terminator in the given encoding.
func terminatorSize(encoding byte) int {
	if encoding == encUTF16 || encoding == encUTF16BE {
		return 2
	}
	return 1
}

// findTerminator returns the index of the first NUL terminator in data for
// the given encoding, or -1. UTF-16 terminators are scanned on even
// boundaries so a code unit with a zero low byte does not split the string.
func findTerminator(data []byte, encoding byte) int {
	if terminatorSize(encoding) == 1 {
		for i, b := range data {
			if b == 0 {
				return i
			}
		}
		return -1
	}
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			return i
		}
	}
	return -1
}

// splitTerminated splits data at its first NUL terminator, decoding the head
// and returning the remainder. Without a terminator the whole body is the
// head and the remainder is empty.
func splitTerminated(data []byte, encoding byte) (string, []byte, error) {
	idx := findTerminator(data, encoding)
	if idx < 0 {
		head, err := decodeText(data, encoding)
		return head, nil, err
	}
	head, err := decodeText(data[:idx], encoding)
	if err != nil {
		return "", nil, err
	}
	return head, data[idx+terminatorSize(encoding):], nil
}

// trimText decodes a text frame body, dropping a trailing terminator if the
// encoder padded one on.
func trimText(data []byte, encoding byte) (string, error) {
	if idx := findTerminator(data, encoding); idx >= 0 {
		data = data[:idx]
	}
	return decodeText(data, encoding)
}
