package modules

import (
	"fmt"
	"os"

	"github.com/somdoron/pulseaudio/pulsecore"
)

const WAVRecorderName = "module-wav-recorder"

var wavRecorderArgs = []string{"source", "file"}

type wavRecorder struct {
	recorder *pulsecore.WAVRecorder
	file     *os.File
	owner    *pulsecore.Module
	stopping bool
}

func init() {
	pulsecore.RegisterModule(pulsecore.ModuleDefinition{
		Name: WAVRecorderName,
		Info: pulsecore.ModuleInfo{
			Author:      "palined",
			Description: "Records a source to a 16 bit WAV file",
			Usage:       "source=<name> file=<path>",
			Version:     "1.0",
		},
		Init: wavRecorderInit,
		Done: wavRecorderDone,
	})
}

func wavRecorderInit(c *pulsecore.Core, m *pulsecore.Module) error {
	ma, err := pulsecore.ParseModargs(m.Argument, wavRecorderArgs)
	if err != nil {
		return err
	}
	path := ma.Get("file", "")
	if path == "" {
		return fmt.Errorf("%w: file is required", pulsecore.ErrInvalidModargs)
	}
	name := ma.Get("source", "")
	s := c.SourceByName(name)
	if s == nil {
		return fmt.Errorf("%w: %q", pulsecore.ErrSourceNotFound, name)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	r, err := pulsecore.NewWAVRecorder(s, "wav-recorder:"+path, f)
	if err != nil {
		f.Close()
		return err
	}

	u := &wavRecorder{recorder: r, file: f, owner: s.Owner}
	if u.owner != nil {
		u.owner.SetUsed(u.owner.Used() + 1)
	}
	r.OnClose = func(r *pulsecore.WAVRecorder) {
		if err := u.file.Close(); err != nil {
			c.Logger.Err().Err(err).Str("file", path).Log("closing recording failed")
		}
		if u.owner != nil {
			u.owner.SetUsed(u.owner.Used() - 1)
		}
		// the source went away, nothing left to record
		if !u.stopping {
			m.RequestUnload()
		}
	}

	m.Userdata = u
	return nil
}

func wavRecorderDone(c *pulsecore.Core, m *pulsecore.Module) {
	u, ok := m.Userdata.(*wavRecorder)
	if !ok {
		return
	}
	u.stopping = true
	if err := u.recorder.Close(); err != nil {
		c.Logger.Err().Err(err).Str("module", m.Name).Log("recording incomplete")
	}
}
