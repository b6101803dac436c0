package types

// Span is a half-open byte range [Off, Off+Len) in a source buffer.
type Span struct {
	Off int64
	Len int64
}

// End returns the offset one past the last byte of the span.
func (s Span) End() int64 {
	return s.Off + s.Len
}

// IsZero reports whether the span is unset.
func (s Span) IsZero() bool {
	return s.Len == 0
}

// Layout maps one source buffer into the regions a writer must treat
// differently: structural metadata (replaced wholesale on write), the audio
// payload (preserved byte for byte, shifted only when metadata growth forces
// it), and an optional trailer (the ID3v1 footer on MP3).
//
// A Layout is valid only for the exact buffer it was built from. The facade
// discards and rebuilds it on every successful save.
type Layout struct {
	Metadata []Span
	Audio    Span
	Trailer  Span
}

// AudioBytes returns the audio payload slice of buf. The result aliases buf.
func (l Layout) AudioBytes(buf []byte) []byte {
	if l.Audio.IsZero() {
		return nil
	}
	return buf[l.Audio.Off:l.Audio.End()]
}
