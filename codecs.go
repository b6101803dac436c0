package tagcodec

// Pull in every format codec; each registers itself at init time.
import (
	_ "github.com/octavetools/tagcodec/internal/flac"
	_ "github.com/octavetools/tagcodec/internal/mp3"
	_ "github.com/octavetools/tagcodec/internal/mp4"
	_ "github.com/octavetools/tagcodec/internal/ogg"
	_ "github.com/octavetools/tagcodec/internal/wav"
)
