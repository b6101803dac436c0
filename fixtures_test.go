package tagcodec_test

import (
	"bytes"
	"encoding/binary"
)

// Hand-assembled minimal streams for each container. Each carries a payload
// marker so tests can assert the audio region survives rewrites untouched.

const (
	mp3FrameSize = 417 // 128kbps, 44.1kHz, layer III
	flacAudio    = "FLAC-FRAME-PAYLOAD"
	wavAudio     = "WAVDATA"
	oggAudio     = "vorbis audio packet bytes"
	mp4Audio     = "MDAT-PAYLOAD"
)

// mp3Fixture is a tagless CBR stream of two frames.
func mp3Fixture() []byte {
	frame := make([]byte, mp3FrameSize)
	frame[0], frame[1], frame[2], frame[3] = 0xFF, 0xFB, 0x90, 0x00
	for i := 4; i < len(frame); i++ {
		frame[i] = byte(i)
	}
	return append(bytes.Clone(frame), frame...)
}

func flacStreamInfo() []byte {
	// 44.1kHz, stereo, 16-bit, 132300 samples (3 seconds).
	si := make([]byte, 34)
	si[10], si[11], si[12], si[13] = 0x0A, 0xC4, 0x42, 0xF0
	si[14], si[15], si[16], si[17] = 0x00, 0x02, 0x04, 0xCC
	return si
}

func flacBlock(typ byte, last bool, body []byte) []byte {
	header := typ
	if last {
		header |= 0x80
	}
	out := []byte{header, byte(len(body) >> 16), byte(len(body) >> 8), byte(len(body))}
	return append(out, body...)
}

func flacFixture() []byte {
	comment := vorbisBody("fixture vendor", "TITLE=Seed Title")
	out := []byte("fLaC")
	out = append(out, flacBlock(0, false, flacStreamInfo())...)
	out = append(out, flacBlock(4, true, comment)...)
	return append(out, flacAudio...)
}

func vorbisBody(vendor string, entries ...string) []byte {
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(vendor)))
	out = append(out, vendor...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(entries)))
	for _, e := range entries {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(e)))
		out = append(out, e...)
	}
	return out
}

// oggPage assembles a page. The checksum is left zero: the reader does not
// verify it, and a writer-produced page always carries a fresh one.
func oggPage(flags byte, granule uint64, seq uint32, packets ...[]byte) []byte {
	var segments, body []byte
	for _, pkt := range packets {
		n := len(pkt)
		for ; n >= 255; n -= 255 {
			segments = append(segments, 255)
		}
		segments = append(segments, byte(n))
		body = append(body, pkt...)
	}

	out := []byte("OggS")
	out = append(out, 0, flags)
	out = binary.LittleEndian.AppendUint64(out, granule)
	out = binary.LittleEndian.AppendUint32(out, 0x00C0FFEE) // serial
	out = binary.LittleEndian.AppendUint32(out, seq)
	out = append(out, 0, 0, 0, 0) // CRC
	out = append(out, byte(len(segments)))
	out = append(out, segments...)
	return append(out, body...)
}

func oggFixture() []byte {
	ident := []byte{0x01}
	ident = append(ident, "vorbis"...)
	ident = binary.LittleEndian.AppendUint32(ident, 0) // version
	ident = append(ident, 2)                           // channels
	ident = binary.LittleEndian.AppendUint32(ident, 44100)
	ident = binary.LittleEndian.AppendUint32(ident, 0)      // max bitrate
	ident = binary.LittleEndian.AppendUint32(ident, 128000) // nominal
	ident = binary.LittleEndian.AppendUint32(ident, 0)      // min
	ident = append(ident, 0xB8, 0x01)                       // blocksizes, framing

	comment := []byte{0x03}
	comment = append(comment, "vorbis"...)
	comment = append(comment, vorbisBody("fixture vendor", "ARTIST=Seed Artist")...)
	comment = append(comment, 0x01) // framing bit

	setup := []byte{0x05}
	setup = append(setup, "vorbis"...)
	setup = append(setup, bytes.Repeat([]byte{0x5A}, 40)...)

	out := oggPage(0x02, 0, 0, ident)
	out = append(out, oggPage(0, 0, 1, comment, setup)...)
	// Two seconds of audio at 44.1kHz, one packet per page.
	out = append(out, oggPage(0, 44100, 2, []byte(oggAudio))...)
	return append(out, oggPage(0x04, 88200, 3, []byte(oggAudio))...)
}

func wavChunk(id string, body []byte) []byte {
	out := []byte(id)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func wavFixture() []byte {
	fmtBody := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtBody, 1) // PCM
	binary.LittleEndian.PutUint16(fmtBody[2:], 2)
	binary.LittleEndian.PutUint32(fmtBody[4:], 44100)
	binary.LittleEndian.PutUint32(fmtBody[8:], 176400) // byte rate
	binary.LittleEndian.PutUint16(fmtBody[12:], 4)
	binary.LittleEndian.PutUint16(fmtBody[14:], 16)

	chunks := wavChunk("fmt ", fmtBody)
	chunks = append(chunks, wavChunk("data", []byte(wavAudio))...)

	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(4+len(chunks)))
	out = append(out, "WAVE"...)
	return append(out, chunks...)
}

func mp4Box(typ string, parts ...[]byte) []byte {
	size := 8
	for _, p := range parts {
		size += len(p)
	}
	out := binary.BigEndian.AppendUint32(nil, uint32(size))
	out = append(out, typ...)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func mp4U32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

func mp4Fixture() []byte {
	mvhd := mp4Box("mvhd", make([]byte, 12), mp4U32(1000), mp4U32(3000))

	entry := make([]byte, 36)
	binary.BigEndian.PutUint32(entry, 36)
	copy(entry[4:], "mp4a")
	entry[25] = 2
	entry[27] = 16
	binary.BigEndian.PutUint32(entry[32:], 44100<<16)
	stsd := mp4Box("stsd", make([]byte, 4), mp4U32(1), entry)
	stco := mp4Box("stco", make([]byte, 4), mp4U32(1), mp4U32(0))
	trak := mp4Box("trak", mp4Box("mdia", mp4Box("minf", mp4Box("stbl", stsd, stco))))
	moov := mp4Box("moov", mvhd, trak)

	out := mp4Box("ftyp", []byte("M4A "), mp4U32(0))
	out = append(out, moov...)
	mdatOff := len(out)
	out = append(out, mp4Box("mdat", []byte(mp4Audio))...)

	idx := bytes.Index(out, []byte("stco"))
	binary.BigEndian.PutUint32(out[idx+12:], uint32(mdatOff+8))
	return out
}
