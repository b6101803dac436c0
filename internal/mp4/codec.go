package mp4

import (
	"strconv"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"

	"github.com/octavetools/tagcodec/internal/id3"
	"github.com/octavetools/tagcodec/internal/registry"
	tagtypes "github.com/octavetools/tagcodec/internal/types"
)

// freeformMean is the reverse-DNS namespace written on freeform items.
const freeformMean = "com.apple.iTunes"

// Well-known data atom type codes.
const (
	dataImplicit = 0
	dataUTF8     = 1
	dataJPEG     = 13
	dataPNG      = 14
)

func init() {
	registry.Register(tagtypes.FormatMP4, registry.Codec{
		Read:       readTag,
		Write:      writeTag,
		Properties: readProperties,
	})
}

func readTag(buf []byte) (*tagtypes.Tag, tagtypes.Layout, error) {
	moov, ok, err := findPath(buf, "moov")
	if err != nil {
		return nil, tagtypes.Layout{}, err
	}
	if !ok {
		return nil, tagtypes.Layout{}, malformed(0, "missing moov atom")
	}

	tag := tagtypes.NewTag()
	ilst, ok, err := findPath(buf, "moov", "udta", "meta", "ilst")
	if err != nil {
		return nil, tagtypes.Layout{}, err
	}
	if ok {
		var itemErr error
		walkErr := walk(buf, ilst.childOffset(), ilst.end(), func(item atom) bool {
			itemErr = parseItem(buf, item, tag)
			return itemErr == nil
		})
		if walkErr != nil {
			return nil, tagtypes.Layout{}, walkErr
		}
		if itemErr != nil {
			return nil, tagtypes.Layout{}, itemErr
		}
	}

	layout := tagtypes.Layout{
		Metadata: []tagtypes.Span{{Off: moov.off, Len: moov.size}},
	}
	if mdat, ok, err := findPath(buf, "mdat"); err == nil && ok {
		layout.Audio = tagtypes.Span{Off: mdat.off, Len: mdat.size}
	}
	return tag, layout, nil
}

// parseItem maps one ilst child onto the tag.
func parseItem(buf []byte, item atom, tag *tagtypes.Tag) error {
	if item.typ == "----" {
		return parseFreeform(buf, item, tag)
	}

	data, ok, err := find(buf, item.childOffset(), item.end(), "data")
	if err != nil || !ok {
		return err
	}
	body := data.data(buf)
	if len(body) < 8 {
		return malformed(data.off, "data atom body is %d bytes, want at least 8", len(body))
	}
	typeCode := be32(body) & 0xFFFFFF
	payload := body[8:]

	switch item.typ {
	case "covr":
		pic := tagtypes.Picture{Type: tagtypes.PictureFrontCover, Data: payload}
		switch typeCode {
		case dataJPEG:
			pic.MIME = "image/jpeg"
		case dataPNG:
			pic.MIME = "image/png"
		default:
			if kind, err := filetype.Match(payload); err == nil && kind != types.Unknown {
				pic.MIME = kind.MIME.Value
			}
		}
		tag.AddPicture(pic)
		return nil
	case "trkn":
		if len(payload) >= 4 {
			tag.Track = int(be16(payload[2:]))
		}
		return nil
	case "gnre":
		// Legacy genre atom: ID3v1 genre code plus one.
		if len(payload) >= 2 {
			tag.Genre = id3.GenreName(int(be16(payload)) - 1)
		}
		return nil
	}

	if typeCode != dataUTF8 && typeCode != dataImplicit {
		return nil
	}
	text := string(payload)
	switch item.typ {
	case "\xA9nam":
		tag.Title = text
	case "\xA9ART":
		tag.Artist = text
	case "\xA9alb":
		tag.Album = text
	case "\xA9cmt":
		tag.Comment = text
	case "\xA9gen":
		tag.Genre = text
	case "\xA9day":
		if len(text) >= 4 {
			if year, err := strconv.Atoi(text[:4]); err == nil {
				tag.Year = year
			}
		}
	default:
		if typeCode == dataUTF8 {
			tag.SetProperty(item.typ, text)
		}
	}
	return nil
}

// parseFreeform decodes a ---- item: mean and name atoms identify the key,
// the data atom holds the value.
func parseFreeform(buf []byte, item atom, tag *tagtypes.Tag) error {
	name, ok, err := find(buf, item.childOffset(), item.end(), "name")
	if err != nil || !ok {
		return err
	}
	data, ok, err := find(buf, item.childOffset(), item.end(), "data")
	if err != nil || !ok {
		return err
	}

	nameBody := name.data(buf)
	dataBody := data.data(buf)
	if len(nameBody) < 4 || len(dataBody) < 8 {
		return nil
	}
	key := string(nameBody[4:])
	if key == "" || be32(dataBody)&0xFFFFFF != dataUTF8 {
		return nil
	}
	tag.SetProperty(key, string(dataBody[8:]))
	return nil
}
