package tagcodec

import "github.com/octavetools/tagcodec/internal/types"

// Tag is the format-agnostic metadata model. See the internal/types package
// for the field semantics.
type Tag = types.Tag

// NewTag creates an empty Tag.
func NewTag() *Tag { return types.NewTag() }

// Picture is an embedded image attachment.
type Picture = types.Picture

// PictureType categorizes the role of a picture attachment.
type PictureType = types.PictureType

// Picture type codes, shared by ID3v2 APIC frames and FLAC PICTURE blocks.
const (
	PictureOther             = types.PictureOther
	PictureIcon              = types.PictureIcon
	PictureOtherIcon         = types.PictureOtherIcon
	PictureFrontCover        = types.PictureFrontCover
	PictureBackCover         = types.PictureBackCover
	PictureLeaflet           = types.PictureLeaflet
	PictureMedia             = types.PictureMedia
	PictureLeadArtist        = types.PictureLeadArtist
	PictureArtist            = types.PictureArtist
	PictureConductor         = types.PictureConductor
	PictureBand              = types.PictureBand
	PictureComposer          = types.PictureComposer
	PictureLyricist          = types.PictureLyricist
	PictureRecordingLocation = types.PictureRecordingLocation
	PictureDuringRecording   = types.PictureDuringRecording
	PictureDuringPerformance = types.PictureDuringPerformance
	PictureVideoCapture      = types.PictureVideoCapture
	PictureBrightFish        = types.PictureBrightFish
	PictureIllustration      = types.PictureIllustration
	PictureBandLogotype      = types.PictureBandLogotype
	PicturePublisherLogotype = types.PicturePublisherLogotype
)

// AudioProperties are technical properties derived from the audio payload.
type AudioProperties = types.AudioProperties

// Format identifies a supported container kind.
type Format = types.Format

// Supported container formats.
const (
	FormatUnknown = types.FormatUnknown
	FormatMP3     = types.FormatMP3
	FormatMP4     = types.FormatMP4
	FormatFLAC    = types.FormatFLAC
	FormatOgg     = types.FormatOgg
	FormatWAV     = types.FormatWAV
)

// DetectFormat classifies a buffer by its container signature without
// parsing it. FormatUnknown is a value, not an error.
func DetectFormat(buf []byte) Format {
	return types.Detect(buf)
}

// Error types returned by the package.
type (
	// UnrecognizedFormatError: the buffer matches no supported container.
	UnrecognizedFormatError = types.UnrecognizedFormatError
	// MalformedContainerError: a structural invariant of the container is
	// violated.
	MalformedContainerError = types.MalformedContainerError
	// UnsupportedOperationError: a format-specific accessor was used on
	// the wrong format.
	UnsupportedOperationError = types.UnsupportedOperationError
	// SerializationError: a tag value cannot be encoded in the target
	// format.
	SerializationError = types.SerializationError
	// UseAfterDisposeError: the session was already closed.
	UseAfterDisposeError = types.UseAfterDisposeError
)
