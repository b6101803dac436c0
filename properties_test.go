package tagcodec_test

import (
	"testing"
	"time"

	"github.com/octavetools/tagcodec"
)

func TestPropertiesMP3(t *testing.T) {
	props, err := tagcodec.Properties(mp3Fixture())
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if props == nil {
		t.Fatal("properties absent")
	}
	if props.Codec != "MP3" || props.SampleRate != 44100 || props.Channels != 2 {
		t.Errorf("stream params = %+v", props)
	}
	if props.Bitrate != 128 {
		t.Errorf("Bitrate = %d kbps, want 128", props.Bitrate)
	}
	// Two 417-byte frames at 128 kbps.
	want := time.Duration(2*417*8) * time.Second / 128000
	if diff := props.Duration - want; diff < -time.Millisecond || diff > time.Millisecond {
		t.Errorf("Duration = %v, want about %v", props.Duration, want)
	}
}

func TestPropertiesFLAC(t *testing.T) {
	props, err := tagcodec.Properties(flacFixture())
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if props.Codec != "FLAC" {
		t.Errorf("Codec = %q", props.Codec)
	}
	if props.SampleRate != 44100 || props.Channels != 2 || props.BitDepth != 16 {
		t.Errorf("stream params = %+v", props)
	}
	if got := props.Duration.Round(time.Millisecond); got != 3*time.Second {
		t.Errorf("Duration = %v, want 3s", got)
	}
}

func TestPropertiesOgg(t *testing.T) {
	props, err := tagcodec.Properties(oggFixture())
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if props.Codec != "Vorbis" || props.SampleRate != 44100 || props.Channels != 2 {
		t.Errorf("stream params = %+v", props)
	}
	if props.Bitrate != 128 {
		t.Errorf("Bitrate = %d, want 128 from the nominal field", props.Bitrate)
	}
	// Final page granule is 88200 samples.
	if got := props.Duration.Round(time.Millisecond); got != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", got)
	}
}

func TestPropertiesWAV(t *testing.T) {
	props, err := tagcodec.Properties(wavFixture())
	if err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if props.Codec != "PCM" {
		t.Errorf("Codec = %q", props.Codec)
	}
	if props.SampleRate != 44100 || props.Channels != 2 || props.BitDepth != 16 {
		t.Errorf("stream params = %+v", props)
	}
	if props.Bitrate != 1411 {
		t.Errorf("Bitrate = %d, want 1411", props.Bitrate)
	}
}

func TestPropertiesUnknownBuffer(t *testing.T) {
	props, err := tagcodec.Properties([]byte("not audio"))
	if err != nil || props != nil {
		t.Errorf("Properties on unknown buffer = (%v, %v), want (nil, nil)", props, err)
	}
}

func TestPropertiesCachedOnSession(t *testing.T) {
	s := open(t, flacFixture())
	defer s.Close()

	first, err := s.Properties()
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Properties()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("Properties should return the cached value")
	}
}

func TestEagerProperties(t *testing.T) {
	if _, err := tagcodec.Open(flacFixture(), tagcodec.WithEagerProperties()); err != nil {
		t.Errorf("Open with eager properties: %v", err)
	}
}
