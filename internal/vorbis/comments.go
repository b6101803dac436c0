// Package vorbis implements the Vorbis comment codec shared by FLAC and Ogg,
// plus the FLAC picture record that both formats embed (FLAC as a PICTURE
// block, Ogg as a base64 METADATA_BLOCK_PICTURE comment).
package vorbis

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/octavetools/tagcodec/internal/binary"
	"github.com/octavetools/tagcodec/internal/types"
)

// DefaultVendor is written when the source buffer carried no vendor string.
const DefaultVendor = "octavetools tagcodec"

// PictureKey is the extended key Ogg streams use to carry picture records.
const PictureKey = "METADATA_BLOCK_PICTURE"

// ParseBody decodes a comment block body (vendor string plus KEY=VALUE
// entries, all length fields little-endian) into the tag. Returns the vendor
// string so writers can carry it forward.
func ParseBody(body []byte, tag *types.Tag) (string, error) {
	c := binary.NewCursor(body)

	vendorLen, err := binary.LE[uint32](c, "vendor string length")
	if err != nil {
		return "", err
	}
	vendor, err := c.String(int64(vendorLen), "vendor string")
	if err != nil {
		return "", err
	}

	count, err := binary.LE[uint32](c, "comment count")
	if err != nil {
		return "", err
	}

	for i := uint32(0); i < count; i++ {
		entryLen, err := binary.LE[uint32](c, "comment length")
		if err != nil {
			return "", fmt.Errorf("comment %d: %w", i, err)
		}
		entry, err := c.String(int64(entryLen), "comment")
		if err != nil {
			return "", fmt.Errorf("comment %d: %w", i, err)
		}
		if err := applyComment(entry, tag); err != nil {
			return "", fmt.Errorf("comment %d: %w", i, err)
		}
	}

	return vendor, nil
}

// applyComment maps a single KEY=VALUE entry onto the tag. Field names are
// case-insensitive per the Vorbis spec; unmapped keys land in the extended
// property map uppercase.
func applyComment(entry string, tag *types.Tag) error {
	eq := strings.IndexByte(entry, '=')
	if eq < 0 {
		return fmt.Errorf("missing '=' in comment %q", entry)
	}
	key := strings.ToUpper(entry[:eq])
	value := entry[eq+1:]

	switch key {
	case "TITLE":
		tag.Title = value
	case "ARTIST":
		tag.Artist = value
	case "ALBUM":
		tag.Album = value
	case "COMMENT":
		tag.Comment = value
	case "GENRE":
		tag.Genre = value
	case "DATE":
		if len(value) >= 4 {
			if year, err := strconv.Atoi(value[:4]); err == nil {
				tag.Year = year
			}
		}
	case "TRACKNUMBER":
		num := value
		if slash := strings.IndexByte(num, '/'); slash >= 0 {
			num = num[:slash]
		}
		if track, err := strconv.Atoi(num); err == nil {
			tag.Track = track
		}
	case PictureKey:
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return fmt.Errorf("invalid %s base64: %w", PictureKey, err)
		}
		pic, err := ParsePicture(raw)
		if err != nil {
			return err
		}
		tag.Pictures = append(tag.Pictures, pic)
	default:
		tag.SetProperty(key, value)
	}
	return nil
}

// validKey reports whether key is legal as a comment field name: printable
// ASCII 0x20 through 0x7D, excluding '=' which terminates the key on read.
func validKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x20 || key[i] > 0x7D || key[i] == '=' {
			return false
		}
	}
	return true
}

// RenderBody encodes the tag into a comment block body. Pictures are included
// as METADATA_BLOCK_PICTURE entries only when withPictures is set (FLAC
// stores them in dedicated blocks instead).
func RenderBody(vendor string, tag *types.Tag, withPictures bool) ([]byte, error) {
	if vendor == "" {
		vendor = DefaultVendor
	}

	var entries []string
	add := func(key, value string) error {
		if value == "" {
			return nil
		}
		if !types.TextSafe(value) {
			return fmt.Errorf("control character in %s value", key)
		}
		entries = append(entries, key+"="+value)
		return nil
	}

	if err := add("TITLE", tag.Title); err != nil {
		return nil, err
	}
	if err := add("ARTIST", tag.Artist); err != nil {
		return nil, err
	}
	if err := add("ALBUM", tag.Album); err != nil {
		return nil, err
	}
	if err := add("COMMENT", tag.Comment); err != nil {
		return nil, err
	}
	if err := add("GENRE", tag.Genre); err != nil {
		return nil, err
	}
	if tag.Year > 0 {
		entries = append(entries, "DATE="+strconv.Itoa(tag.Year))
	}
	if tag.Track > 0 {
		entries = append(entries, "TRACKNUMBER="+strconv.Itoa(tag.Track))
	}
	for key, value := range tag.Properties() {
		if !validKey(key) {
			return nil, fmt.Errorf("comment key %q contains characters outside 0x20-0x7D or '='", key)
		}
		if err := add(key, value); err != nil {
			return nil, err
		}
	}
	if withPictures {
		for _, pic := range tag.Pictures {
			record := RenderPicture(pic)
			entries = append(entries, PictureKey+"="+base64.StdEncoding.EncodeToString(record))
		}
	}

	w := binary.NewWriter()
	binary.PutLE(w, uint32(len(vendor)))
	w.PutString(vendor)
	binary.PutLE(w, uint32(len(entries)))
	for _, entry := range entries {
		binary.PutLE(w, uint32(len(entry)))
		w.PutString(entry)
	}
	return w.Bytes(), nil
}

// ParsePicture decodes a FLAC picture record: type, MIME, description,
// dimensions, then the image blob, all length-prefixed big-endian.
func ParsePicture(data []byte) (types.Picture, error) {
	ch := binary.NewChain(binary.NewCursor(data))

	picType := binary.ChainBE[uint32](ch, "picture type")
	mimeLen := binary.ChainBE[uint32](ch, "MIME length")
	mime := ch.ChainBytes(int64(mimeLen), "MIME type")
	descLen := binary.ChainBE[uint32](ch, "description length")
	desc := ch.ChainBytes(int64(descLen), "description")
	binary.ChainBE[uint32](ch, "width")
	binary.ChainBE[uint32](ch, "height")
	binary.ChainBE[uint32](ch, "color depth")
	binary.ChainBE[uint32](ch, "color count")
	dataLen := binary.ChainBE[uint32](ch, "picture data length")
	blob := ch.ChainBytes(int64(dataLen), "picture data")

	if err := ch.Err(); err != nil {
		return types.Picture{}, err
	}

	return types.Picture{
		Type:        types.PictureType(picType),
		MIME:        string(mime),
		Description: string(desc),
		Data:        blob,
	}, nil
}

// RenderPicture encodes a picture into the FLAC picture record layout.
// Width, height, depth, and color count are written as zero: the engine
// treats image data as opaque and decodes nothing.
func RenderPicture(pic types.Picture) []byte {
	w := binary.NewWriter()
	binary.PutBE(w, uint32(pic.Type))
	binary.PutBE(w, uint32(len(pic.MIME)))
	w.PutString(pic.MIME)
	binary.PutBE(w, uint32(len(pic.Description)))
	w.PutString(pic.Description)
	binary.PutBE(w, uint32(0)) // width
	binary.PutBE(w, uint32(0)) // height
	binary.PutBE(w, uint32(0)) // color depth
	binary.PutBE(w, uint32(0)) // color count
	binary.PutBE(w, uint32(len(pic.Data)))
	w.PutBytes(pic.Data)
	return w.Bytes()
}
