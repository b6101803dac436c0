package id3

import (
	"bytes"
	"testing"

	"github.com/octavetools/tagcodec/internal/binary"
	"github.com/octavetools/tagcodec/internal/types"
)

func TestSynchsafeRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, 127, 128, 0x0FFFFF, maxFrameSize} {
		w := binary.NewWriter()
		putSynchsafe(w, v)
		b := w.Bytes()
		if got := decodeSynchsafe(b); got != v {
			t.Errorf("decodeSynchsafe(putSynchsafe(%d)) = %d", v, got)
		}
		for _, raw := range b {
			if raw&0x80 != 0 {
				t.Errorf("synchsafe encoding of %d sets a high bit: % x", v, b)
			}
		}
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	tag := types.NewTag()
	tag.Title = "Titel mit Umlauten äöü"
	tag.Artist = "Артист"
	tag.Album = "Album"
	tag.Comment = "a comment"
	tag.Genre = "Jazz"
	tag.Year = 1997
	tag.Track = 7
	tag.SetProperty("REPLAYGAIN_TRACK_GAIN", "-6.0 dB")
	tag.SetProperty("TCOM", "Composer Name")
	tag.AddPicture(types.Picture{
		Type:        types.PictureFrontCover,
		MIME:        "image/png",
		Description: "cover",
		Data:        []byte{0x89, 'P', 'N', 'G', 0, 1, 2},
	})

	rendered, err := Render(tag, 64)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if TagSize(rendered) != int64(len(rendered)) {
		t.Fatalf("TagSize = %d, want %d", TagSize(rendered), len(rendered))
	}

	got := types.NewTag()
	n, err := Parse(rendered, got)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if n != int64(len(rendered)) {
		t.Errorf("Parse consumed %d bytes, want %d", n, len(rendered))
	}
	if !tag.Equal(got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tag)
	}
}

func TestRenderEmptyTag(t *testing.T) {
	rendered, err := Render(types.NewTag(), 128)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rendered != nil {
		t.Errorf("empty tag rendered %d bytes, want none", len(rendered))
	}
}

func TestRenderRejectsControlCharacters(t *testing.T) {
	tag := types.NewTag()
	tag.Title = "bad\x00title"
	if _, err := Render(tag, 0); err == nil {
		t.Error("expected error for NUL in title")
	}

	tag = types.NewTag()
	tag.SetProperty("KEY", "bad\x01value")
	if _, err := Render(tag, 0); err == nil {
		t.Error("expected error for control character in property")
	}
}

func TestRenderRejectsUnsafeKeysAndPictureFields(t *testing.T) {
	tag := types.NewTag()
	tag.SetProperty("BAD\x00KEY", "value")
	if _, err := Render(tag, 0); err == nil {
		t.Error("expected error for NUL in property key")
	}

	tag = types.NewTag()
	tag.AddPicture(types.Picture{Type: types.PictureFrontCover, MIME: "image/jp\x00eg", Data: []byte{1}})
	if _, err := Render(tag, 0); err == nil {
		t.Error("expected error for NUL in picture MIME type")
	}

	tag = types.NewTag()
	tag.AddPicture(types.Picture{Type: types.PictureFrontCover, MIME: "image/png", Description: "de\x00sc", Data: []byte{1}})
	if _, err := Render(tag, 0); err == nil {
		t.Error("expected error for NUL in picture description")
	}
}

func TestReservedFrameNamesStayUserText(t *testing.T) {
	tag := types.NewTag()
	tag.Title = "Real Title"
	tag.SetProperty("TIT2", "shadow")
	tag.SetProperty("TXXX", "meta")

	out, err := Render(tag, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := types.NewTag()
	if _, err := Parse(out, got); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Title != "Real Title" {
		t.Errorf("Title = %q, want %q", got.Title, "Real Title")
	}
	if got.Property("TIT2") != "shadow" {
		t.Errorf("TIT2 property = %q, want %q", got.Property("TIT2"), "shadow")
	}
	if got.Property("TXXX") != "meta" {
		t.Errorf("TXXX property = %q, want %q", got.Property("TXXX"), "meta")
	}
}

// buildFrame assembles a v2.4 frame by hand for decoder tests.
func buildFrame(id string, body []byte) []byte {
	out := []byte(id)
	out = append(out,
		byte(len(body)>>21&0x7F), byte(len(body)>>14&0x7F),
		byte(len(body)>>7&0x7F), byte(len(body)&0x7F))
	out = append(out, 0, 0)
	return append(out, body...)
}

func buildTag(version byte, frames ...[]byte) []byte {
	var body []byte
	for _, f := range frames {
		body = append(body, f...)
	}
	out := []byte("ID3")
	out = append(out, version, 0, 0,
		byte(len(body)>>21&0x7F), byte(len(body)>>14&0x7F),
		byte(len(body)>>7&0x7F), byte(len(body)&0x7F))
	return append(out, body...)
}

func TestParseTextEncodings(t *testing.T) {
	// "Ä" in each supported encoding.
	cases := []struct {
		name string
		body []byte
	}{
		{"latin1", []byte{encLatin1, 0xC4}},
		{"utf16 le bom", []byte{encUTF16, 0xFF, 0xFE, 0xC4, 0x00}},
		{"utf16 be bom", []byte{encUTF16, 0xFE, 0xFF, 0x00, 0xC4}},
		{"utf16be", []byte{encUTF16BE, 0x00, 0xC4}},
		{"utf8", []byte{encUTF8, 0xC3, 0x84}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := buildTag(4, buildFrame("TIT2", tc.body))
			tag := types.NewTag()
			if _, err := Parse(buf, tag); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if tag.Title != "Ä" {
				t.Errorf("Title = %q, want Ä", tag.Title)
			}
		})
	}
}

func TestParseV23SizesAndGenreRef(t *testing.T) {
	title := append([]byte{encLatin1}, "Name"...)
	frame := []byte("TIT2")
	frame = append(frame, 0, 0, 0, byte(len(title)), 0, 0)
	frame = append(frame, title...)

	genre := append([]byte{encLatin1}, "(17)"...)
	gf := []byte("TCON")
	gf = append(gf, 0, 0, 0, byte(len(genre)), 0, 0)
	gf = append(gf, genre...)

	buf := buildTag(3, frame, gf)
	tag := types.NewTag()
	if _, err := Parse(buf, tag); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tag.Title != "Name" {
		t.Errorf("Title = %q", tag.Title)
	}
	if tag.Genre != "Rock" {
		t.Errorf("Genre = %q, want Rock resolved from (17)", tag.Genre)
	}
}

func TestParseRejectsOversizedFrame(t *testing.T) {
	frame := buildFrame("TIT2", []byte{encUTF8, 'x'})
	frame[7] = 0x7F // size points far past the tag body
	buf := buildTag(4, frame)
	if _, err := Parse(buf, types.NewTag()); err == nil {
		t.Error("expected error for frame size exceeding tag body")
	}
}

func TestV1RoundTrip(t *testing.T) {
	tag := types.NewTag()
	tag.Title = "A Title"
	tag.Artist = "An Artist"
	tag.Album = "An Album"
	tag.Comment = "short comment"
	tag.Genre = "Blues"
	tag.Year = 2004
	tag.Track = 12

	block := RenderV1(tag)
	if len(block) != V1Size {
		t.Fatalf("RenderV1 length = %d, want %d", len(block), V1Size)
	}

	got := types.NewTag()
	if !ParseV1(block, got) {
		t.Fatal("ParseV1 rejected its own output")
	}
	if !tag.Equal(got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tag)
	}
}

func TestV1FieldTruncation(t *testing.T) {
	tag := types.NewTag()
	tag.Title = "This title is much longer than the thirty bytes ID3v1 allows"

	got := types.NewTag()
	if !ParseV1(RenderV1(tag), got) {
		t.Fatal("ParseV1 rejected rendered block")
	}
	if len(got.Title) != 30 {
		t.Errorf("Title length = %d, want truncation to 30", len(got.Title))
	}
	if !bytes.HasPrefix([]byte(tag.Title), []byte(got.Title)) {
		t.Errorf("truncated title %q is not a prefix of the original", got.Title)
	}
}

func TestV1DoesNotOverrideV2Fields(t *testing.T) {
	v1src := types.NewTag()
	v1src.Title = "Old Title"
	v1src.Year = 1990
	block := RenderV1(v1src)

	tag := types.NewTag()
	tag.Title = "New Title"
	if !ParseV1(block, tag) {
		t.Fatal("ParseV1 rejected block")
	}
	if tag.Title != "New Title" {
		t.Errorf("Title = %q, trailer should not override an existing field", tag.Title)
	}
	if tag.Year != 1990 {
		t.Errorf("Year = %d, trailer should fill missing fields", tag.Year)
	}
}

func TestGenreTable(t *testing.T) {
	if GenreName(17) != "Rock" {
		t.Errorf("GenreName(17) = %q", GenreName(17))
	}
	if GenreName(255) != "" {
		t.Errorf("GenreName(255) = %q, want empty", GenreName(255))
	}
	if GenreCode("rock") != 17 {
		t.Errorf("GenreCode(rock) = %d", GenreCode("rock"))
	}
	if GenreCode("No Such Genre") != noGenre {
		t.Errorf("GenreCode of unknown name = %d, want %d", GenreCode("No Such Genre"), noGenre)
	}
}
