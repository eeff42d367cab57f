package pulsecore

import "fmt"

// Source produces sample data, forwarded to each of its outputs.
type Source struct {
	Core       *Core
	Index      uint32
	Name       string
	SampleSpec SampleSpec
	Outputs    *IdxSet[*SourceOutput]

	// Owner is the module that created the source, if any.
	Owner *Module

	freed bool
}

// NewSource registers a source under a unique name.
func NewSource(c *Core, name string, spec SampleSpec) (*Source, error) {
	if !spec.Valid() {
		return nil, fmt.Errorf("%w: source %s", ErrInvalidSampleSpec, name)
	}
	if c.SourceByName(name) != nil {
		return nil, fmt.Errorf("%w: source %s", ErrNameExists, name)
	}

	s := &Source{
		Core:       c,
		Name:       name,
		SampleSpec: spec,
		Outputs:    NewIdxSet[*SourceOutput](),
	}
	s.Index = c.Sources.Put(s)

	c.Logger.Info().
		Str("source", name).
		Stringer("sample_spec", spec).
		Log("created source")
	return s, nil
}

// SourceByName returns the source registered as name, or nil.
func (c *Core) SourceByName(name string) *Source {
	var found *Source
	c.Sources.Each(func(_ uint32, s *Source) bool {
		if s.Name == name {
			found = s
			return false
		}
		return true
	})
	return found
}

// Post forwards chunk to every output. Chunks are not mixed or resampled.
func (s *Source) Post(chunk MemChunk) {
	s.Outputs.Each(func(_ uint32, o *SourceOutput) bool {
		o.push(chunk)
		return true
	})
}

// Free kills all outputs, and unregisters the source.
func (s *Source) Free() {
	if s.freed {
		return
	}
	s.freed = true

	s.Outputs.Each(func(_ uint32, o *SourceOutput) bool {
		o.KillOutput()
		// outputs without a Kill callback are detached here
		o.Free()
		return true
	})

	s.Core.Sources.Remove(s.Index)
	s.Core.Logger.Info().
		Str("source", s.Name).
		Log("freed source")
}
