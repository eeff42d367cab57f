package pulsecore

import (
	"fmt"
	"time"
)

// SampleFormat is the encoding of a single sample.
type SampleFormat int

const (
	SampleU8 SampleFormat = iota
	SampleS16LE
	SampleS16BE
	SampleFloat32LE
	SampleFloat32BE
	sampleFormatMax
)

// ChannelsMax bounds SampleSpec.Channels.
const ChannelsMax = 16

var sampleFormatNames = [...]string{
	SampleU8:        "u8",
	SampleS16LE:     "s16le",
	SampleS16BE:     "s16be",
	SampleFloat32LE: "float32le",
	SampleFloat32BE: "float32be",
}

func (f SampleFormat) String() string {
	if f < 0 || f >= sampleFormatMax {
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
	return sampleFormatNames[f]
}

// Valid reports whether f is a known format.
func (f SampleFormat) Valid() bool { return f >= 0 && f < sampleFormatMax }

// Size returns the number of bytes per sample.
func (f SampleFormat) Size() int {
	switch f {
	case SampleU8:
		return 1
	case SampleS16LE, SampleS16BE:
		return 2
	case SampleFloat32LE, SampleFloat32BE:
		return 4
	}
	return 0
}

// ParseSampleFormat parses a format name, including the native endian
// aliases "s16ne" and "float32ne".
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch s {
	case "s16", "s16ne":
		return SampleS16NE, nil
	case "float32", "float32ne", "float":
		return SampleFloat32NE, nil
	}
	for f, name := range sampleFormatNames {
		if name == s {
			return SampleFormat(f), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown sample format %q", ErrInvalidSampleSpec, s)
}

// SampleSpec describes a stream of interleaved samples.
type SampleSpec struct {
	Format   SampleFormat
	Rate     uint32
	Channels uint8
}

// Valid reports whether ss can describe a stream.
func (ss SampleSpec) Valid() bool {
	return ss.Format.Valid() &&
		ss.Rate > 0 &&
		ss.Channels > 0 &&
		ss.Channels <= ChannelsMax
}

// FrameSize returns the number of bytes of one sample for every channel.
func (ss SampleSpec) FrameSize() int {
	return ss.Format.Size() * int(ss.Channels)
}

func (ss SampleSpec) BytesPerSecond() int {
	return ss.FrameSize() * int(ss.Rate)
}

// BytesToDuration returns the playback time of n bytes.
func (ss SampleSpec) BytesToDuration(n int) time.Duration {
	bps := ss.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(bps))
}

// DurationToBytes returns the number of bytes, rounded down to whole frames,
// played in d.
func (ss SampleSpec) DurationToBytes(d time.Duration) int {
	fs := ss.FrameSize()
	if fs == 0 {
		return 0
	}
	frames := int64(d) * int64(ss.Rate) / int64(time.Second)
	return int(frames) * fs
}

func (ss SampleSpec) String() string {
	if !ss.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%s %dch %dHz", ss.Format, ss.Channels, ss.Rate)
}

// MemChunk is a slice of sample data.
type MemChunk struct {
	Data   []byte
	Index  int
	Length int
}

// NewMemChunk returns a chunk spanning all of p.
func NewMemChunk(p []byte) MemChunk {
	return MemChunk{Data: p, Length: len(p)}
}

func (c MemChunk) Bytes() []byte {
	return c.Data[c.Index : c.Index+c.Length]
}
