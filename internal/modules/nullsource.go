// Package modules holds the modules built into palined. Importing it
// registers them with pulsecore.
package modules

import (
	"fmt"
	"time"

	"github.com/somdoron/pulseaudio/mainloop"
	"github.com/somdoron/pulseaudio/pulsecore"
)

const NullSourceName = "module-null-source"

var nullSourceArgs = []string{"source_name", "rate", "channels", "format", "period_msec", "auto_unload"}

var defaultNullSpec = pulsecore.SampleSpec{
	Format:   pulsecore.SampleS16LE,
	Rate:     44100,
	Channels: 2,
}

type nullSource struct {
	source *pulsecore.Source
	timer  mainloop.TimeEvent
	period time.Duration
	chunk  []byte
	next   time.Time
}

func init() {
	pulsecore.RegisterModule(pulsecore.ModuleDefinition{
		Name: NullSourceName,
		Info: pulsecore.ModuleInfo{
			Author:      "palined",
			Description: "Clocked source producing silence",
			Usage:       "source_name=<name> rate=<hz> channels=<n> format=<fmt> period_msec=<ms> auto_unload=<bool>",
			Version:     "1.0",
		},
		Init: nullSourceInit,
		Done: nullSourceDone,
	})
}

func nullSourceInit(c *pulsecore.Core, m *pulsecore.Module) error {
	ma, err := pulsecore.ParseModargs(m.Argument, nullSourceArgs)
	if err != nil {
		return err
	}
	spec, err := ma.GetSampleSpec(defaultNullSpec)
	if err != nil {
		return err
	}
	periodMsec, err := ma.GetUint32("period_msec", 100)
	if err != nil {
		return err
	}
	if periodMsec == 0 {
		return fmt.Errorf("%w: period_msec must be positive", pulsecore.ErrInvalidModargs)
	}
	if m.AutoUnload, err = ma.GetBool("auto_unload", false); err != nil {
		return err
	}

	s, err := pulsecore.NewSource(c, ma.Get("source_name", "null"), spec)
	if err != nil {
		return err
	}
	s.Owner = m

	u := &nullSource{
		source: s,
		period: time.Duration(periodMsec) * time.Millisecond,
	}
	u.chunk = make([]byte, spec.DurationToBytes(u.period))
	if spec.Format == pulsecore.SampleU8 {
		for i := range u.chunk {
			u.chunk[i] = 0x80
		}
	}
	u.next = time.Now().Add(u.period)
	u.timer = c.API.TimeNew(u.next, u.tick)

	m.Userdata = u
	return nil
}

func (u *nullSource) tick(e mainloop.TimeEvent) {
	u.source.Post(pulsecore.NewMemChunk(u.chunk))
	u.next = u.next.Add(u.period)
	e.Restart(u.next)
}

func nullSourceDone(c *pulsecore.Core, m *pulsecore.Module) {
	u, ok := m.Userdata.(*nullSource)
	if !ok {
		return
	}
	u.timer.Free()
	u.source.Free()
}
