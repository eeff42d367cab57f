package pulsecore

import (
	"time"

	"github.com/joeycumines/logiface"
	"github.com/somdoron/pulseaudio/mainloop"
)

const (
	// DefaultModuleIdleTime is how long an auto-unload module may stay
	// unused before it is unloaded.
	DefaultModuleIdleTime = 20 * time.Second

	// DefaultUnloadPollInterval is the period of the unused module check.
	DefaultUnloadPollInterval = 10 * time.Second
)

type CoreConfig struct {
	Logger             *logiface.Logger[logiface.Event]
	ModuleIdleTime     time.Duration
	UnloadPollInterval time.Duration

	// Now overrides the clock used for module idle accounting.
	Now func() time.Time
}

// Core is the root object of the server. It is not safe for concurrent use,
// all access happens from the mainloop goroutine.
type Core struct {
	API    mainloop.API
	Logger *logiface.Logger[logiface.Event]

	Modules       *IdxSet[*Module]
	Sources       *IdxSet[*Source]
	SourceOutputs *IdxSet[*SourceOutput]

	ModuleIdleTime     time.Duration
	UnloadPollInterval time.Duration

	now              func() time.Time
	autoUnloadEvent  mainloop.TimeEvent
	deferUnloadEvent mainloop.DeferEvent
	closed           bool
}

func NewCore(api mainloop.API, cfg CoreConfig) *Core {
	c := &Core{
		API:                api,
		Logger:             cfg.Logger,
		Modules:            NewIdxSet[*Module](),
		Sources:            NewIdxSet[*Source](),
		SourceOutputs:      NewIdxSet[*SourceOutput](),
		ModuleIdleTime:     cfg.ModuleIdleTime,
		UnloadPollInterval: cfg.UnloadPollInterval,
		now:                cfg.Now,
	}
	if c.ModuleIdleTime <= 0 {
		c.ModuleIdleTime = DefaultModuleIdleTime
	}
	if c.UnloadPollInterval <= 0 {
		c.UnloadPollInterval = DefaultUnloadPollInterval
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Now returns the current time of the core's clock.
func (c *Core) Now() time.Time { return c.now() }

// Close unloads all modules and frees any sources left behind.
func (c *Core) Close() {
	if c.closed {
		return
	}
	c.closed = true

	c.UnloadAllModules()

	c.Sources.Each(func(_ uint32, s *Source) bool {
		s.Free()
		return true
	})

	c.Logger.Debug().Log("core closed")
}
