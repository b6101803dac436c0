package tagcodec

import (
	"bytes"
	"strings"

	"github.com/octavetools/tagcodec/internal/registry"
	"github.com/octavetools/tagcodec/internal/types"
)

// Session is one open tag-editing transaction over a buffer.
//
// The session owns a private copy of the bytes it was opened on; mutating
// the caller's slice afterwards has no effect. A Session is not safe for
// concurrent use.
type Session struct {
	format Format
	codec  registry.Codec
	buf    []byte
	tag    *Tag
	layout types.Layout

	props      *AudioProperties
	propsKnown bool
	closed     bool
}

// Open detects the buffer's container format and parses its metadata
// region. The format with no tag present still opens, yielding an empty Tag.
func Open(buf []byte, opts ...Option) (*Session, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	format := types.Detect(buf)
	if format == FormatUnknown {
		return nil, &UnrecognizedFormatError{Reason: "no supported container signature"}
	}
	codec, ok := registry.Lookup(format)
	if !ok {
		return nil, &UnrecognizedFormatError{Reason: "no codec registered for " + format.String()}
	}

	own := bytes.Clone(buf)
	tag, layout, err := codec.Read(own)
	if err != nil {
		return nil, err
	}

	s := &Session{
		format: format,
		codec:  codec,
		buf:    own,
		tag:    tag,
		layout: layout,
	}
	if cfg.eagerProps {
		if _, err := s.Properties(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Format returns the detected container format.
func (s *Session) Format() Format {
	return s.format
}

// Tag returns the session's tag for reading and mutation. The same *Tag is
// returned on every call; edits accumulate until Save serializes them.
func (s *Session) Tag() (*Tag, error) {
	if s.closed {
		return nil, &UseAfterDisposeError{Op: "Tag"}
	}
	return s.tag, nil
}

// Properties derives technical audio properties from the payload, cached
// after the first call. A (nil, nil) return means the payload carried no
// decodable stream parameters, which is not an error.
func (s *Session) Properties() (*AudioProperties, error) {
	if s.closed {
		return nil, &UseAfterDisposeError{Op: "Properties"}
	}
	if s.propsKnown {
		return s.props, nil
	}
	props, err := s.codec.Properties(s.buf)
	if err != nil {
		return nil, err
	}
	s.props = props
	s.propsKnown = true
	return props, nil
}

// Save serializes the current tag around the preserved audio payload and
// returns the complete new buffer. The session re-parses its own output so
// subsequent edits and saves compose; the returned slice is the caller's to
// keep.
func (s *Session) Save(opts ...SaveOption) ([]byte, error) {
	if s.closed {
		return nil, &UseAfterDisposeError{Op: "Save"}
	}
	var wopts registry.WriteOptions
	for _, opt := range opts {
		opt(&wopts)
	}

	out, err := s.codec.Write(s.tag, s.buf, s.layout, wopts)
	if err != nil {
		return nil, err
	}
	_, layout, err := s.codec.Read(out)
	if err != nil {
		return nil, err
	}

	s.buf = out
	s.layout = layout
	s.props = nil
	s.propsKnown = false
	return bytes.Clone(out), nil
}

// Bytes returns a copy of the session's current buffer: the original bytes
// before the first Save, the last saved output after.
func (s *Session) Bytes() ([]byte, error) {
	if s.closed {
		return nil, &UseAfterDisposeError{Op: "Bytes"}
	}
	return bytes.Clone(s.buf), nil
}

// Close disposes the session and releases its buffer. Every operation after
// Close, including a second Close, returns a UseAfterDisposeError.
func (s *Session) Close() error {
	if s.closed {
		return &UseAfterDisposeError{Op: "Close"}
	}
	s.closed = true
	s.buf = nil
	s.tag = nil
	return nil
}

// MP4Item reads a freeform metadata item by name. Returns the empty string
// for unset items and an UnsupportedOperationError on non-MP4 sessions.
func (s *Session) MP4Item(name string) (string, error) {
	if s.closed {
		return "", &UseAfterDisposeError{Op: "MP4Item"}
	}
	if s.format != FormatMP4 {
		return "", &UnsupportedOperationError{Format: s.format, Op: "MP4 freeform item access"}
	}
	return s.tag.Property(name), nil
}

// SetMP4Item sets a freeform metadata item by name. Returns an
// UnsupportedOperationError on non-MP4 sessions.
func (s *Session) SetMP4Item(name, value string) error {
	if s.closed {
		return &UseAfterDisposeError{Op: "SetMP4Item"}
	}
	if s.format != FormatMP4 {
		return &UnsupportedOperationError{Format: s.format, Op: "MP4 freeform item access"}
	}
	if strings.TrimSpace(name) == "" {
		return &SerializationError{Format: s.format, Reason: "empty freeform item name"}
	}
	s.tag.SetProperty(name, value)
	return nil
}

// Properties derives technical audio properties from a buffer without
// opening a session. Unrecognized buffers yield (nil, nil).
func Properties(buf []byte) (*AudioProperties, error) {
	format := types.Detect(buf)
	codec, ok := registry.Lookup(format)
	if !ok {
		return nil, nil
	}
	return codec.Properties(buf)
}
