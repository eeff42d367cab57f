// Package sconv converts between signed 16 bit little endian samples and
// native float32 samples.
package sconv

import (
	"encoding/binary"
	"math"

	"github.com/go-audio/audio"
)

const scale = 0x7FFF

// S16LEToFloat32NE converts s16le samples in src to float32 in dst, returning
// the number of samples converted.
func S16LEToFloat32NE(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/2)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(src[2*i:]))
		dst[i] = float32(v) / scale
	}
	return n
}

// S16LEFromFloat32NE converts float32 samples in src to s16le in dst,
// clamping to [-1, 1]. NaN becomes silence. It returns the number of samples
// converted.
func S16LEFromFloat32NE(dst []byte, src []float32) int {
	n := min(len(dst)/2, len(src))
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(fromFloat(src[i])))
	}
	return n
}

func fromFloat(v float32) int16 {
	switch {
	case math.IsNaN(float64(v)):
		return 0
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return int16(v * scale)
}

// ToFloat32Buffer decodes s16le bytes into a go-audio float buffer.
func ToFloat32Buffer(p []byte, f *audio.Format) *audio.Float32Buffer {
	data := make([]float32, len(p)/2)
	S16LEToFloat32NE(data, p)
	return &audio.Float32Buffer{
		Format:         f,
		Data:           data,
		SourceBitDepth: 16,
	}
}

// FromFloat32Buffer encodes a go-audio float buffer as s16le bytes.
func FromFloat32Buffer(b *audio.Float32Buffer) []byte {
	p := make([]byte, 2*len(b.Data))
	S16LEFromFloat32NE(p, b.Data)
	return p
}

// ToIntBuffer decodes s16le bytes into a 16 bit go-audio int buffer.
func ToIntBuffer(p []byte, f *audio.Format) *audio.IntBuffer {
	data := make([]int, len(p)/2)
	for i := range data {
		data[i] = int(int16(binary.LittleEndian.Uint16(p[2*i:])))
	}
	return &audio.IntBuffer{
		Format:         f,
		Data:           data,
		SourceBitDepth: 16,
	}
}
