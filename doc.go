// Package tagcodec reads and writes embedded audio metadata in memory.
//
// A Session wraps one buffer holding an MP3, MP4/M4A, FLAC, Ogg Vorbis, or
// WAV stream. Opening parses the metadata region into a format-agnostic Tag;
// Save re-serializes the mutated Tag around the untouched audio payload,
// relocating it when the metadata changed size. No I/O happens anywhere:
// callers own both the input bytes and the saved output.
//
//	s, err := tagcodec.Open(buf)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	tag, _ := s.Tag()
//	tag.Title = "New Title"
//	out, err := s.Save()
package tagcodec
