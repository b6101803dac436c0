package mp4

import (
	"fmt"
	"math"
	"strconv"

	"github.com/h2non/filetype"

	"github.com/octavetools/tagcodec/internal/registry"
	tagtypes "github.com/octavetools/tagcodec/internal/types"
)

func serr(format string, args ...any) error {
	return &tagtypes.SerializationError{
		Format: tagtypes.FormatMP4,
		Reason: fmt.Sprintf(format, args...),
	}
}

// writeTag rebuilds the moov atom with a fresh udta/meta/ilst subtree,
// splices it over the old one, and shifts every chunk offset that pointed
// past the old moov by the size difference. Everything outside moov is
// carried over byte for byte.
func writeTag(tag *tagtypes.Tag, buf []byte, layout tagtypes.Layout, opts registry.WriteOptions) ([]byte, error) {
	moov, ok, err := findPath(buf, "moov")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, malformed(0, "missing moov atom")
	}

	newMoov, err := rebuildMoov(buf, moov, tag, opts.Padding)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, int64(len(buf))+int64(len(newMoov))-moov.size)
	out = append(out, buf[:moov.off]...)
	out = append(out, newMoov...)
	out = append(out, buf[moov.end():]...)

	delta := int64(len(newMoov)) - moov.size
	if delta != 0 {
		if err := patchChunkOffsets(out, moov.off, moov.off+int64(len(newMoov)), moov.end(), delta); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// rebuildMoov reassembles moov with every child except udta carried over
// verbatim. A missing udta (or meta, or ilst) level is created.
func rebuildMoov(buf []byte, moov atom, tag *tagtypes.Tag, padding int) ([]byte, error) {
	var body []byte
	var udta *atom
	err := walk(buf, moov.childOffset(), moov.end(), func(a atom) bool {
		if a.typ == "udta" {
			cp := a
			udta = &cp
			return true
		}
		body = append(body, buf[a.off:a.end()]...)
		return true
	})
	if err != nil {
		return nil, err
	}

	newUdta, err := rebuildUdta(buf, udta, tag)
	if err != nil {
		return nil, err
	}
	body = append(body, newUdta...)
	if padding > 0 {
		free, err := wrapAtom("free", make([]byte, padding))
		if err != nil {
			return nil, err
		}
		body = append(body, free...)
	}
	return wrapAtom("moov", body)
}

func rebuildUdta(buf []byte, udta *atom, tag *tagtypes.Tag) ([]byte, error) {
	var body []byte
	var meta *atom
	if udta != nil {
		err := walk(buf, udta.childOffset(), udta.end(), func(a atom) bool {
			if a.typ == "meta" {
				cp := a
				meta = &cp
				return true
			}
			body = append(body, buf[a.off:a.end()]...)
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	newMeta, err := rebuildMeta(buf, meta, tag)
	if err != nil {
		return nil, err
	}
	return wrapAtom("udta", append(body, newMeta...))
}

func rebuildMeta(buf []byte, meta *atom, tag *tagtypes.Tag) ([]byte, error) {
	body := make([]byte, 4) // version and flags
	hasHandler := false
	if meta != nil {
		copy(body, buf[meta.dataOff():meta.dataOff()+4])
		err := walk(buf, meta.childOffset(), meta.end(), func(a atom) bool {
			if a.typ == "ilst" {
				return true
			}
			if a.typ == "hdlr" {
				hasHandler = true
			}
			body = append(body, buf[a.off:a.end()]...)
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	if !hasHandler {
		hdlr, err := wrapAtom("hdlr", handlerBody())
		if err != nil {
			return nil, err
		}
		body = append(body, hdlr...)
	}

	ilst, err := renderIlst(tag)
	if err != nil {
		return nil, err
	}
	return wrapAtom("meta", append(body, ilst...))
}

// handlerBody is the metadata handler reference iTunes writes: handler type
// "mdir", manufacturer "appl", empty name.
func handlerBody() []byte {
	body := make([]byte, 25)
	copy(body[8:], "mdir")
	copy(body[12:], "appl")
	return body
}

func renderIlst(tag *tagtypes.Tag) ([]byte, error) {
	var body []byte
	appendItem := func(typ string, data []byte) error {
		item, err := wrapAtom(typ, data)
		if err != nil {
			return err
		}
		body = append(body, item...)
		return nil
	}
	appendText := func(typ, value string) error {
		if value == "" {
			return nil
		}
		if !tagtypes.TextSafe(value) {
			return serr("control character in %q value", typ)
		}
		data, err := wrapAtom("data", dataBody(dataUTF8, []byte(value)))
		if err != nil {
			return err
		}
		return appendItem(typ, data)
	}

	if err := appendText("\xA9nam", tag.Title); err != nil {
		return nil, err
	}
	if err := appendText("\xA9ART", tag.Artist); err != nil {
		return nil, err
	}
	if err := appendText("\xA9alb", tag.Album); err != nil {
		return nil, err
	}
	if err := appendText("\xA9cmt", tag.Comment); err != nil {
		return nil, err
	}
	if err := appendText("\xA9gen", tag.Genre); err != nil {
		return nil, err
	}
	if tag.Year > 0 {
		if err := appendText("\xA9day", strconv.Itoa(tag.Year)); err != nil {
			return nil, err
		}
	}
	if tag.Track > 0 {
		if tag.Track > math.MaxUint16 {
			return nil, serr("track number %d exceeds 16-bit field", tag.Track)
		}
		payload := make([]byte, 8)
		payload[2] = byte(tag.Track >> 8)
		payload[3] = byte(tag.Track)
		data, err := wrapAtom("data", dataBody(dataImplicit, payload))
		if err != nil {
			return nil, err
		}
		if err := appendItem("trkn", data); err != nil {
			return nil, err
		}
	}

	for key, value := range tag.Properties() {
		if !tagtypes.TextSafe(value) {
			return nil, serr("control character in %q value", key)
		}
		item, err := renderFreeform(key, value)
		if err != nil {
			return nil, err
		}
		body = append(body, item...)
	}

	for _, pic := range tag.Pictures {
		data, err := wrapAtom("data", dataBody(coverTypeCode(pic), pic.Data))
		if err != nil {
			return nil, err
		}
		if err := appendItem("covr", data); err != nil {
			return nil, err
		}
	}

	return wrapAtom("ilst", body)
}

// renderFreeform encodes an extended property as a ---- item under the
// com.apple.iTunes namespace.
func renderFreeform(key, value string) ([]byte, error) {
	mean, err := wrapAtom("mean", append(make([]byte, 4), freeformMean...))
	if err != nil {
		return nil, err
	}
	name, err := wrapAtom("name", append(make([]byte, 4), key...))
	if err != nil {
		return nil, err
	}
	data, err := wrapAtom("data", dataBody(dataUTF8, []byte(value)))
	if err != nil {
		return nil, err
	}

	body := append(mean, name...)
	body = append(body, data...)
	return wrapAtom("----", body)
}

// coverTypeCode picks the data atom type code for an image, sniffing the
// blob when the declared MIME type does not settle it.
func coverTypeCode(pic tagtypes.Picture) uint32 {
	mime := pic.MIME
	if mime == "" {
		if kind, err := filetype.Match(pic.Data); err == nil {
			mime = kind.MIME.Value
		}
	}
	switch mime {
	case "image/jpeg":
		return dataJPEG
	case "image/png":
		return dataPNG
	default:
		return dataImplicit
	}
}

// dataBody builds a data atom body: type code, locale, payload.
func dataBody(typeCode uint32, payload []byte) []byte {
	body := make([]byte, 8+len(payload))
	putBE32(body, typeCode)
	copy(body[8:], payload)
	return body
}

// wrapAtom prefixes body with a 32-bit size header. Sizes needing the
// 64-bit extended form are refused rather than generated.
func wrapAtom(typ string, body []byte) ([]byte, error) {
	size := int64(len(body)) + 8
	if size > math.MaxUint32 {
		return nil, serr("atom %q size %d exceeds 32-bit size field", typ, size)
	}
	out := make([]byte, 8, size)
	putBE32(out, uint32(size))
	copy(out[4:], typ)
	return append(out, body...), nil
}

// patchChunkOffsets walks the stbl atoms inside [moovOff, moovEnd) of out
// and shifts every stco/co64 entry at or past threshold by delta. threshold
// is the end of the moov atom in the coordinate space the offsets were
// written against, so chunks located before the metadata stay put.
func patchChunkOffsets(out []byte, moovOff, moovEnd, threshold, delta int64) error {
	containers := map[string]bool{"moov": true, "trak": true, "mdia": true, "minf": true, "stbl": true}

	var patch func(start, end int64) error
	patch = func(start, end int64) error {
		return walkErr(out, start, end, func(a atom) error {
			switch {
			case containers[a.typ]:
				return patch(a.childOffset(), a.end())
			case a.typ == "stco":
				return patchTable(out, a, threshold, delta, false)
			case a.typ == "co64":
				return patchTable(out, a, threshold, delta, true)
			}
			return nil
		})
	}
	return patch(moovOff, moovEnd)
}

func patchTable(out []byte, a atom, threshold, delta int64, wide bool) error {
	body := a.data(out)
	if len(body) < 8 {
		return malformed(a.off, "truncated chunk offset table")
	}
	count := int64(be32(body[4:]))
	entrySize := int64(4)
	if wide {
		entrySize = 8
	}
	if 8+count*entrySize > int64(len(body)) {
		return malformed(a.off, "chunk offset table count %d exceeds atom", count)
	}

	for i := int64(0); i < count; i++ {
		entry := body[8+i*entrySize:]
		if wide {
			off := int64(be64(entry))
			if off >= threshold {
				putBE64(entry, uint64(off+delta))
			}
			continue
		}
		off := int64(be32(entry))
		if off >= threshold {
			if off+delta > math.MaxUint32 {
				return serr("chunk offset %d exceeds 32-bit stco entry", off+delta)
			}
			putBE32(entry, uint32(off+delta))
		}
	}
	return nil
}

// walkErr is walk with an error-returning visitor.
func walkErr(buf []byte, start, end int64, fn func(atom) error) error {
	var inner error
	err := walk(buf, start, end, func(a atom) bool {
		inner = fn(a)
		return inner == nil
	})
	if err != nil {
		return err
	}
	return inner
}
