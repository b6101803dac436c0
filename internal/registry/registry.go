// Package registry maps container formats to their codec function sets.
//
// Each format package registers itself in an init function; the facade
// dispatches once at open time. There is no inheritance hierarchy and no
// runtime duck-typing, just an enum-indexed table.
package registry

import "github.com/octavetools/tagcodec/internal/types"

// WriteOptions carries serialization knobs from the facade into writers.
type WriteOptions struct {
	// Padding is the number of bytes of format-native free space appended
	// after the rewritten metadata region, so later small edits do not
	// shift the payload.
	Padding int

	// OmitID3v1 suppresses the ID3v1 trailer on MP3 writes.
	OmitID3v1 bool

	// Vendor overrides the vendor string written into Vorbis comment
	// blocks. Writers fall back to the source buffer's vendor, then to a
	// library default.
	Vendor string
}

// Codec is the function set one format contributes.
//
// Read parses the structural metadata region into a Tag and a Layout; it is
// all-or-nothing and never returns a partially populated Tag alongside an
// error. Write re-encodes the metadata region from the Tag and splices it
// into a fresh buffer, preserving the payload bytes described by the Layout.
// Properties derives technical audio properties; (nil, nil) means absent.
type Codec struct {
	Read       func(buf []byte) (*types.Tag, types.Layout, error)
	Write      func(tag *types.Tag, buf []byte, layout types.Layout, opts WriteOptions) ([]byte, error)
	Properties func(buf []byte) (*types.AudioProperties, error)
}

var codecs = make(map[types.Format]Codec)

// Register installs the codec for a format. Called from format package init
// functions only.
func Register(format types.Format, codec Codec) {
	codecs[format] = codec
}

// Lookup returns the codec for a format.
func Lookup(format types.Format) (Codec, bool) {
	c, ok := codecs[format]
	return c, ok
}
