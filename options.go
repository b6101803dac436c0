package tagcodec

import "github.com/octavetools/tagcodec/internal/registry"

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	eagerProps bool
}

// WithEagerProperties makes Open derive audio properties up front instead of
// on the first Properties call, so a malformed payload surfaces at open
// time.
func WithEagerProperties() Option {
	return func(cfg *openConfig) {
		cfg.eagerProps = true
	}
}

// SaveOption configures Save.
type SaveOption func(*registry.WriteOptions)

// WithPadding reserves n bytes of format-native free space after the
// rewritten metadata, so later edits of similar size do not shift the audio
// payload again.
func WithPadding(n int) SaveOption {
	return func(opts *registry.WriteOptions) {
		if n > 0 {
			opts.Padding = n
		}
	}
}

// WithoutID3v1 suppresses the ID3v1 trailer MP3 saves append for legacy
// readers. Other formats ignore it.
func WithoutID3v1() SaveOption {
	return func(opts *registry.WriteOptions) {
		opts.OmitID3v1 = true
	}
}

// WithVendor overrides the vendor string written into Vorbis comment blocks
// on FLAC and Ogg saves. Other formats ignore it.
func WithVendor(vendor string) SaveOption {
	return func(opts *registry.WriteOptions) {
		opts.Vendor = vendor
	}
}
