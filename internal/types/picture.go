package types

import (
	"bytes"
	"fmt"
)

// Picture is an embedded image attachment: an opaque, already-encoded blob
// plus its role and MIME type. The engine never decodes or re-encodes image
// data.
type Picture struct {
	Type        PictureType
	MIME        string
	Description string
	Data        []byte
}

// Clone creates a deep copy of the picture.
func (p Picture) Clone() Picture {
	clone := p
	clone.Data = bytes.Clone(p.Data)
	return clone
}

// Equal reports whether two pictures match byte for byte.
func (p Picture) Equal(other Picture) bool {
	return p.Type == other.Type &&
		p.MIME == other.MIME &&
		p.Description == other.Description &&
		bytes.Equal(p.Data, other.Data)
}

// String returns a short human-readable description, e.g.
// "Front cover (image/jpeg, 24KB)".
func (p Picture) String() string {
	size := len(p.Data)
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%s (%s, %.1fMB)", p.Type, p.MIME, float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%s (%s, %dKB)", p.Type, p.MIME, size/(1<<10))
	default:
		return fmt.Sprintf("%s (%s, %dB)", p.Type, p.MIME, size)
	}
}

// PictureType categorizes the role of a picture attachment.
//
// Values follow the ID3v2 APIC picture-type byte, which FLAC PICTURE blocks
// adopted verbatim, so the enum serializes unchanged in both.
type PictureType int

const (
	PictureOther             PictureType = iota
	PictureIcon                          // 32x32 file icon
	PictureOtherIcon
	PictureFrontCover
	PictureBackCover
	PictureLeaflet
	PictureMedia // CD/vinyl label
	PictureLeadArtist
	PictureArtist
	PictureConductor
	PictureBand
	PictureComposer
	PictureLyricist
	PictureRecordingLocation
	PictureDuringRecording
	PictureDuringPerformance
	PictureVideoCapture
	PictureBrightFish
	PictureIllustration
	PictureBandLogotype
	PicturePublisherLogotype
)

func (pt PictureType) String() string {
	switch pt {
	case PictureIcon:
		return "File icon"
	case PictureOtherIcon:
		return "Other file icon"
	case PictureFrontCover:
		return "Front cover"
	case PictureBackCover:
		return "Back cover"
	case PictureLeaflet:
		return "Leaflet page"
	case PictureMedia:
		return "Media"
	case PictureLeadArtist:
		return "Lead artist"
	case PictureArtist:
		return "Artist"
	case PictureConductor:
		return "Conductor"
	case PictureBand:
		return "Band"
	case PictureComposer:
		return "Composer"
	case PictureLyricist:
		return "Lyricist"
	case PictureRecordingLocation:
		return "Recording location"
	case PictureDuringRecording:
		return "During recording"
	case PictureDuringPerformance:
		return "During performance"
	case PictureVideoCapture:
		return "Video capture"
	case PictureBrightFish:
		return "A bright colored fish"
	case PictureIllustration:
		return "Illustration"
	case PictureBandLogotype:
		return "Band logotype"
	case PicturePublisherLogotype:
		return "Publisher logotype"
	default:
		return "Other"
	}
}
