package ioline

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer_GrowsToExactSize(t *testing.T) {
	b := newBuffer(64)

	require.Equal(t, 3, b.append([]byte("abc")))
	require.Len(t, b.data, 3)

	require.Equal(t, 2, b.append([]byte("de")))
	require.Len(t, b.data, 5)
	require.Equal(t, "abcde", string(b.bytes()))
}

func TestBuffer_CompactsBeforeGrowing(t *testing.T) {
	b := newBuffer(64)
	b.append([]byte("abcdef"))
	b.consume(4)
	require.Equal(t, 4, b.index)

	// 2 valid + 4 new fits the existing 6 bytes once compacted
	require.Equal(t, 4, b.append([]byte("ghij")))
	require.Len(t, b.data, 6)
	require.Equal(t, 0, b.index)
	require.Equal(t, "efghij", string(b.bytes()))
}

func TestBuffer_ConsumeAllResetsIndex(t *testing.T) {
	b := newBuffer(64)
	b.append([]byte("abc"))
	b.consume(2)
	require.Equal(t, 2, b.index)
	b.consume(1)
	require.Equal(t, 0, b.index)
	require.Equal(t, 0, b.length)
}

func TestBuffer_AppendTruncatesAtLimit(t *testing.T) {
	b := newBuffer(8)
	require.Equal(t, 5, b.append([]byte("12345")))
	require.Equal(t, 3, b.append([]byte("67890")))
	require.Equal(t, 0, b.append([]byte("x")))
	require.Equal(t, "12345678", string(b.bytes()))
	require.Len(t, b.data, 8)
}

func TestBuffer_EnsureRoomCappedAtLimit(t *testing.T) {
	b := newBuffer(10)
	b.append([]byte("1234567"))

	room := b.ensureRoom(1024)
	require.Len(t, room, 3)
	require.Len(t, b.data, 10)
	require.Equal(t, "1234567", string(b.bytes()))

	copy(room, "89")
	b.extend(2)
	require.Equal(t, "123456789", string(b.bytes()))
}

func TestBuffer_Reset(t *testing.T) {
	b := newBuffer(16)
	b.append([]byte("abc"))
	b.consume(1)
	b.reset()
	require.Equal(t, 0, b.index)
	require.Equal(t, 0, b.length)
	require.Empty(t, b.bytes())
}

// Relocation must never reorder or corrupt the valid region, whatever the
// interleaving of appends and consumes.
func TestBuffer_RandomInterleaving(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	b := newBuffer(256)
	var model []byte
	var next byte

	for i := 0; i < 10000; i++ {
		if rng.Intn(2) == 0 {
			p := make([]byte, rng.Intn(64))
			for j := range p {
				p[j] = next
				next++
			}
			n := b.append(p)
			want := min(len(p), 256-len(model))
			require.Equal(t, want, n)
			model = append(model, p[:n]...)
			// truncated bytes are gone, keep the sequence continuous
			next -= byte(len(p) - n)
		} else if len(model) > 0 {
			n := rng.Intn(len(model)) + 1
			b.consume(n)
			model = model[n:]
		}

		require.True(t, bytes.Equal(model, b.bytes()), "iteration %d", i)
		require.LessOrEqual(t, b.length, len(b.data)-b.index)
		require.LessOrEqual(t, len(b.data), 256)
		if b.length == 0 {
			require.Equal(t, 0, b.index)
		}
	}
}
