package id3

import (
	"bytes"

	"github.com/octavetools/tagcodec/internal/types"
)

// V1Size is the fixed size of an ID3v1 trailer.
const V1Size = 128

// HasV1 reports whether buf ends in an ID3v1 trailer.
func HasV1(buf []byte) bool {
	return len(buf) >= V1Size && string(buf[len(buf)-V1Size:len(buf)-V1Size+3]) == "TAG"
}

// ParseV1 decodes a 128-byte ID3v1 trailer into tag. Fields already set on
// the tag win: a v2 tag in the same buffer is authoritative and the trailer
// only fills gaps. Returns false when block is not an ID3v1 trailer.
func ParseV1(block []byte, tag *types.Tag) bool {
	if len(block) != V1Size || string(block[:3]) != "TAG" {
		return false
	}

	setIfEmpty := func(dst *string, raw []byte) {
		if *dst == "" {
			*dst = v1Field(raw)
		}
	}
	setIfEmpty(&tag.Title, block[3:33])
	setIfEmpty(&tag.Artist, block[33:63])
	setIfEmpty(&tag.Album, block[63:93])
	if tag.Year == 0 {
		year := 0
		for _, b := range block[93:97] {
			if b < '0' || b > '9' {
				year = 0
				break
			}
			year = year*10 + int(b-'0')
		}
		tag.Year = year
	}

	// ID3v1.1: a zero byte at comment[28] marks the last byte as the track.
	comment := block[97:127]
	if comment[28] == 0 && comment[29] != 0 {
		if tag.Track == 0 {
			tag.Track = int(comment[29])
		}
		comment = comment[:28]
	}
	setIfEmpty(&tag.Comment, comment)

	if tag.Genre == "" {
		tag.Genre = GenreName(int(block[127]))
	}
	return true
}

// v1Field decodes a fixed-width ID3v1 field, trimming NUL and space padding.
func v1Field(b []byte) string {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		b = b[:idx]
	}
	return string(bytes.TrimRight(b, " "))
}

// RenderV1 encodes the tag as a 128-byte ID3v1.1 trailer. Field overflow is
// truncated rather than rejected; the trailer is a lossy legacy companion to
// the authoritative v2 tag.
func RenderV1(tag *types.Tag) []byte {
	block := make([]byte, V1Size)
	copy(block, "TAG")
	putV1Field(block[3:33], tag.Title)
	putV1Field(block[33:63], tag.Artist)
	putV1Field(block[63:93], tag.Album)
	if tag.Year >= 1 && tag.Year <= 9999 {
		copy(block[93:97], []byte{
			'0' + byte(tag.Year/1000%10),
			'0' + byte(tag.Year/100%10),
			'0' + byte(tag.Year/10%10),
			'0' + byte(tag.Year%10),
		})
	}
	if tag.Track > 0 && tag.Track <= 255 {
		putV1Field(block[97:125], tag.Comment)
		block[126] = byte(tag.Track)
	} else {
		putV1Field(block[97:127], tag.Comment)
	}
	block[127] = GenreCode(tag.Genre)
	return block
}

func putV1Field(dst []byte, s string) {
	copy(dst, s)
}
