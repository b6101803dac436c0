package tagcodec_test

import (
	"context"
	"errors"
	"testing"

	"github.com/octavetools/tagcodec"
)

func open(t *testing.T, buf []byte) *tagcodec.Session {
	t.Helper()
	s, err := tagcodec.Open(buf)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func sessionTag(t *testing.T, s *tagcodec.Session) *tagcodec.Tag {
	t.Helper()
	tag, err := s.Tag()
	if err != nil {
		t.Fatalf("Tag: %v", err)
	}
	return tag
}

func TestOpenRejectsUnknownBuffers(t *testing.T) {
	for _, buf := range [][]byte{nil, {}, []byte("not an audio file at all")} {
		_, err := tagcodec.Open(buf)
		var want *tagcodec.UnrecognizedFormatError
		if !errors.As(err, &want) {
			t.Errorf("Open(%q) error = %v, want UnrecognizedFormatError", buf, err)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want tagcodec.Format
	}{
		{"mp3", mp3Fixture(), tagcodec.FormatMP3},
		{"flac", flacFixture(), tagcodec.FormatFLAC},
		{"ogg", oggFixture(), tagcodec.FormatOgg},
		{"wav", wavFixture(), tagcodec.FormatWAV},
		{"mp4", mp4Fixture(), tagcodec.FormatMP4},
		{"empty", nil, tagcodec.FormatUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tagcodec.DetectFormat(tc.buf); got != tc.want {
				t.Errorf("DetectFormat = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSessionOwnsItsBuffer(t *testing.T) {
	buf := flacFixture()
	s := open(t, buf)
	defer s.Close()

	// Corrupting the caller's slice must not affect the session.
	for i := range buf {
		buf[i] = 0
	}
	if _, err := s.Save(); err != nil {
		t.Errorf("Save after caller mutated the input: %v", err)
	}
}

func TestMP4ItemOnWrongFormat(t *testing.T) {
	s := open(t, mp3Fixture())
	defer s.Close()

	_, err := s.MP4Item("MY_FIELD")
	var want *tagcodec.UnsupportedOperationError
	if !errors.As(err, &want) {
		t.Fatalf("MP4Item error = %v, want UnsupportedOperationError", err)
	}
	if err := s.SetMP4Item("MY_FIELD", "v"); !errors.As(err, &want) {
		t.Errorf("SetMP4Item error = %v, want UnsupportedOperationError", err)
	}

	// The failed calls must not have touched the session.
	if tag := sessionTag(t, s); tag.PropertyCount() != 0 {
		t.Error("rejected accessor mutated the tag")
	}
	if _, err := s.Save(); err != nil {
		t.Errorf("Save after rejected accessor: %v", err)
	}
}

func TestMP4ItemRoundTrip(t *testing.T) {
	s := open(t, mp4Fixture())
	defer s.Close()

	if err := s.SetMP4Item("MY_APP_SETTING", "enabled"); err != nil {
		t.Fatalf("SetMP4Item: %v", err)
	}
	out, err := s.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2 := open(t, out)
	defer s2.Close()
	got, err := s2.MP4Item("MY_APP_SETTING")
	if err != nil {
		t.Fatalf("MP4Item: %v", err)
	}
	if got != "enabled" {
		t.Errorf("MP4Item = %q, want enabled", got)
	}
}

func TestUseAfterDispose(t *testing.T) {
	s := open(t, wavFixture())
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var want *tagcodec.UseAfterDisposeError
	if _, err := s.Tag(); !errors.As(err, &want) {
		t.Errorf("Tag after Close = %v", err)
	}
	if _, err := s.Properties(); !errors.As(err, &want) {
		t.Errorf("Properties after Close = %v", err)
	}
	if _, err := s.Save(); !errors.As(err, &want) {
		t.Errorf("Save after Close = %v", err)
	}
	if _, err := s.Bytes(); !errors.As(err, &want) {
		t.Errorf("Bytes after Close = %v", err)
	}
	if err := s.Close(); !errors.As(err, &want) {
		t.Errorf("second Close = %v", err)
	}
}

func TestBytesTracksSaves(t *testing.T) {
	s := open(t, mp3Fixture())
	defer s.Close()

	before, err := s.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	tag := sessionTag(t, s)
	tag.Title = "Now Tagged"
	saved, err := s.Save()
	if err != nil {
		t.Fatal(err)
	}
	after, err := s.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	if len(before) == len(after) {
		t.Error("Bytes did not change after a growing save")
	}
	if string(saved) != string(after) {
		t.Error("Bytes disagrees with the Save return value")
	}
}

func TestSavesCompose(t *testing.T) {
	s := open(t, flacFixture())
	defer s.Close()

	tag := sessionTag(t, s)
	tag.Title = "First"
	if _, err := s.Save(); err != nil {
		t.Fatal(err)
	}

	tag.Album = "Second"
	out, err := s.Save()
	if err != nil {
		t.Fatal(err)
	}

	s2 := open(t, out)
	defer s2.Close()
	got := sessionTag(t, s2)
	if got.Title != "First" || got.Album != "Second" {
		t.Errorf("composed saves lost edits: %+v", got)
	}
}

func TestOpenAll(t *testing.T) {
	buffers := [][]byte{mp3Fixture(), flacFixture(), oggFixture(), wavFixture(), mp4Fixture()}
	sessions, err := tagcodec.OpenAll(context.Background(), buffers)
	if err != nil {
		t.Fatalf("OpenAll: %v", err)
	}
	want := []tagcodec.Format{
		tagcodec.FormatMP3, tagcodec.FormatFLAC, tagcodec.FormatOgg,
		tagcodec.FormatWAV, tagcodec.FormatMP4,
	}
	for i, s := range sessions {
		if s.Format() != want[i] {
			t.Errorf("session %d format = %v, want %v", i, s.Format(), want[i])
		}
		s.Close()
	}
}

func TestOpenAllFailsFast(t *testing.T) {
	buffers := [][]byte{flacFixture(), []byte("garbage")}
	if _, err := tagcodec.OpenAll(context.Background(), buffers); err == nil {
		t.Fatal("expected error for unrecognizable buffer")
	}
}
