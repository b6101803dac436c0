package vorbis

import (
	"bytes"
	"testing"

	"github.com/octavetools/tagcodec/internal/types"
)

func TestBodyRoundTrip(t *testing.T) {
	tag := types.NewTag()
	tag.Title = "Título"
	tag.Artist = "An Artist"
	tag.Album = "An Album"
	tag.Comment = "with = sign inside"
	tag.Genre = "Ambient"
	tag.Year = 2011
	tag.Track = 3
	tag.SetProperty("REPLAYGAIN_TRACK_GAIN", "-2.1 dB")
	tag.AddPicture(types.Picture{Type: types.PictureFrontCover, MIME: "image/jpeg", Data: []byte{0xFF, 0xD8, 1}})

	body, err := RenderBody("test vendor", tag, true)
	if err != nil {
		t.Fatalf("RenderBody: %v", err)
	}

	got := types.NewTag()
	vendor, err := ParseBody(body, got)
	if err != nil {
		t.Fatalf("ParseBody: %v", err)
	}
	if vendor != "test vendor" {
		t.Errorf("vendor = %q", vendor)
	}
	if !tag.Equal(got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tag)
	}
}

func TestRenderBodySkipsPicturesWhenAsked(t *testing.T) {
	tag := types.NewTag()
	tag.Title = "x"
	tag.AddPicture(types.Picture{MIME: "image/png", Data: []byte{1}})

	body, err := RenderBody("", tag, false)
	if err != nil {
		t.Fatalf("RenderBody: %v", err)
	}
	if bytes.Contains(body, []byte(PictureKey)) {
		t.Error("picture entry written despite withPictures=false")
	}
}

func TestRenderBodyDefaultVendor(t *testing.T) {
	body, err := RenderBody("", types.NewTag(), false)
	if err != nil {
		t.Fatalf("RenderBody: %v", err)
	}
	if !bytes.Contains(body, []byte(DefaultVendor)) {
		t.Error("empty vendor should fall back to the library default")
	}
}

func TestParseBodyRejectsMalformedEntry(t *testing.T) {
	bad := buildBody("v", []string{"NOEQUALSSIGN"})
	if _, err := ParseBody(bad, types.NewTag()); err == nil {
		t.Error("expected error for comment without '='")
	}
}

func TestRenderBodyRejectsUnsafeKeys(t *testing.T) {
	for _, key := range []string{"BAD=KEY", "BAD\x01KEY", "BAD\x00KEY", "KEY\x7F"} {
		tag := types.NewTag()
		tag.SetProperty(key, "value")
		if _, err := RenderBody("v", tag, false); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestParseBodyTruncated(t *testing.T) {
	// Vendor length claims more bytes than exist.
	bad := []byte{0xFF, 0, 0, 0}
	if _, err := ParseBody(bad, types.NewTag()); err == nil {
		t.Error("expected error for truncated vendor string")
	}
}

func TestDateAndTrackVariants(t *testing.T) {
	entries := []string{
		"DATE=2004-05-21",
		"TRACKNUMBER=4/12",
		"tracktotal=12",
	}
	body := buildBody("v", entries)
	tag := types.NewTag()
	if _, err := ParseBody(body, tag); err != nil {
		t.Fatalf("ParseBody: %v", err)
	}
	if tag.Year != 2004 {
		t.Errorf("Year = %d, want 2004 from dashed date", tag.Year)
	}
	if tag.Track != 4 {
		t.Errorf("Track = %d, want 4 from N/M form", tag.Track)
	}
	if tag.Property("TRACKTOTAL") != "12" {
		t.Errorf("lowercase key should land in properties uppercased")
	}
}

func TestPictureRecordRoundTrip(t *testing.T) {
	pic := types.Picture{
		Type:        types.PictureBackCover,
		MIME:        "image/jpeg",
		Description: "back",
		Data:        []byte{0xFF, 0xD8, 0xFF, 0xE0, 9, 9},
	}
	got, err := ParsePicture(RenderPicture(pic))
	if err != nil {
		t.Fatalf("ParsePicture: %v", err)
	}
	if !pic.Equal(got) {
		t.Errorf("round trip mismatch: got %+v", got)
	}
}

func TestParsePictureTruncated(t *testing.T) {
	raw := RenderPicture(types.Picture{MIME: "image/png", Data: []byte{1, 2, 3}})
	if _, err := ParsePicture(raw[:len(raw)-2]); err == nil {
		t.Error("expected error for truncated picture record")
	}
}

func buildBody(vendor string, entries []string) []byte {
	out := []byte{byte(len(vendor)), 0, 0, 0}
	out = append(out, vendor...)
	out = append(out, byte(len(entries)), 0, 0, 0)
	for _, e := range entries {
		out = append(out, byte(len(e)), 0, 0, 0)
		out = append(out, e...)
	}
	return out
}
