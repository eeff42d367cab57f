package pulsecore

import (
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/somdoron/pulseaudio/sconv"
)

// WAVRecorder is a source output writing 16 bit PCM WAV.
type WAVRecorder struct {
	Output *SourceOutput

	enc    *wav.Encoder
	format *audio.Format
	bytes  int
	err    error
	closed bool

	// OnClose, if set, is called once the recorder was closed, including
	// when the source goes away.
	OnClose func(r *WAVRecorder)
}

// NewWAVRecorder attaches a recorder to s, writing to w. Float sources are
// converted to s16le.
func NewWAVRecorder(s *Source, name string, w io.WriteSeeker) (*WAVRecorder, error) {
	spec := s.SampleSpec
	spec.Format = SampleS16LE

	o, err := NewSourceOutput(s, spec, name)
	if err != nil {
		return nil, err
	}

	r := &WAVRecorder{
		Output: o,
		enc:    wav.NewEncoder(w, int(spec.Rate), 16, int(spec.Channels), 1),
		format: &audio.Format{
			NumChannels: int(spec.Channels),
			SampleRate:  int(spec.Rate),
		},
	}
	o.Userdata = r
	o.Push = func(_ *SourceOutput, chunk MemChunk) { r.write(chunk) }
	o.Kill = func(*SourceOutput) { r.Close() }
	return r, nil
}

func (r *WAVRecorder) write(chunk MemChunk) {
	if r.err != nil || r.closed {
		return
	}
	if err := r.enc.Write(sconv.ToIntBuffer(chunk.Bytes(), r.format)); err != nil {
		r.err = fmt.Errorf("wav write: %w", err)
		r.Output.Source.Core.Logger.Err().
			Str("output", r.Output.Name).
			Err(err).
			Log("recording failed")
		return
	}
	r.bytes += chunk.Length
}

// Duration returns the length of the recorded audio.
func (r *WAVRecorder) Duration() time.Duration {
	return r.Output.SampleSpec.BytesToDuration(r.bytes)
}

// Err returns the first write error.
func (r *WAVRecorder) Err() error { return r.err }

// Close detaches the recorder, and finalizes the WAV header. It does not
// close the underlying writer.
func (r *WAVRecorder) Close() error {
	if r.closed {
		return r.err
	}
	r.closed = true
	r.Output.Free()

	if err := r.enc.Close(); err != nil && r.err == nil {
		r.err = fmt.Errorf("wav close: %w", err)
	}
	if r.OnClose != nil {
		r.OnClose(r)
	}
	return r.err
}
