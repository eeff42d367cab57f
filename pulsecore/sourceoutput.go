package pulsecore

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/somdoron/pulseaudio/sconv"
)

// SourceOutput is a record stream attached to a Source.
type SourceOutput struct {
	Index      uint32
	Name       string
	Source     *Source
	SampleSpec SampleSpec

	// Push receives every chunk posted to the source, already converted to
	// SampleSpec.
	Push func(o *SourceOutput, chunk MemChunk)

	// Kill asks the owner to tear the output down, e.g. because the source
	// goes away.
	Kill func(o *SourceOutput)

	Userdata any

	sourceIndex uint32
	convert     func(p []byte) []byte
	freed       bool
}

// NewSourceOutput attaches an output to s. The spec must match the
// source's, except that s16le and native float32 may be converted into each
// other.
func NewSourceOutput(s *Source, spec SampleSpec, name string) (*SourceOutput, error) {
	if !spec.Valid() {
		return nil, fmt.Errorf("%w: output %s", ErrInvalidSampleSpec, name)
	}

	convert, err := converter(s.SampleSpec, spec)
	if err != nil {
		return nil, fmt.Errorf("output %s on source %s: %w", name, s.Name, err)
	}

	o := &SourceOutput{
		Name:       name,
		Source:     s,
		SampleSpec: spec,
		convert:    convert,
	}
	o.Index = s.Core.SourceOutputs.Put(o)
	o.sourceIndex = s.Outputs.Put(o)

	s.Core.Logger.Info().
		Str("output", name).
		Str("source", s.Name).
		Stringer("sample_spec", spec).
		Log("created source output")
	return o, nil
}

// Free detaches the output from its source and the core.
func (o *SourceOutput) Free() {
	if o.freed {
		return
	}
	o.freed = true
	o.Source.Outputs.Remove(o.sourceIndex)
	o.Source.Core.SourceOutputs.Remove(o.Index)
}

// KillOutput invokes the Kill callback, if any.
func (o *SourceOutput) KillOutput() {
	if o.Kill != nil && !o.freed {
		o.Kill(o)
	}
}

func (o *SourceOutput) push(chunk MemChunk) {
	if o.Push == nil {
		return
	}
	if o.convert != nil {
		chunk = NewMemChunk(o.convert(chunk.Bytes()))
	}
	o.Push(o, chunk)
}

// SourceOutputListString renders the core's source outputs for humans.
func SourceOutputListString(c *Core) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d source output(s) available.\n", c.SourceOutputs.Len())
	c.SourceOutputs.Each(func(idx uint32, o *SourceOutput) bool {
		fmt.Fprintf(&sb, "    index: %d, name: <%s>, source: <%d>, sample_spec: <%s>\n",
			idx, o.Name, o.Source.Index, o.SampleSpec)
		return true
	})
	return sb.String()
}

func converter(from, to SampleSpec) (func([]byte) []byte, error) {
	if from.Rate != to.Rate || from.Channels != to.Channels {
		return nil, fmt.Errorf("%w: %s to %s", ErrIncompatibleSpec, from, to)
	}

	switch {
	case from.Format == to.Format:
		return nil, nil
	case from.Format == SampleS16LE && to.Format == SampleFloat32NE:
		return s16leToFloat32NE, nil
	case from.Format == SampleFloat32NE && to.Format == SampleS16LE:
		return float32NEToS16LE, nil
	}
	return nil, fmt.Errorf("%w: %s to %s", ErrIncompatibleSpec, from, to)
}

func s16leToFloat32NE(p []byte) []byte {
	f := make([]float32, len(p)/2)
	sconv.S16LEToFloat32NE(f, p)

	out := make([]byte, 4*len(f))
	for i, v := range f {
		binary.NativeEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func float32NEToS16LE(p []byte) []byte {
	f := make([]float32, len(p)/4)
	for i := range f {
		f[i] = math.Float32frombits(binary.NativeEndian.Uint32(p[4*i:]))
	}

	out := make([]byte, 2*len(f))
	sconv.S16LEFromFloat32NE(out, f)
	return out
}
