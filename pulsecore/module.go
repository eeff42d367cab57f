package pulsecore

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/somdoron/pulseaudio/mainloop"
)

// ModuleInfo describes a module to users.
type ModuleInfo struct {
	Author      string
	Description string
	Usage       string
	Version     string
}

// ModuleDefinition is the entry point of a module. Init sets up the module,
// typically storing its state in Module.Userdata. Done, if set, tears it
// down again.
type ModuleDefinition struct {
	Name string
	Info ModuleInfo
	Init func(c *Core, m *Module) error
	Done func(c *Core, m *Module)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ModuleDefinition)
)

// RegisterModule makes a module available to LoadModule. It panics if the
// name is empty, taken, or Init is nil.
func RegisterModule(def ModuleDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Name == "" || def.Init == nil {
		panic("pulsecore: RegisterModule requires a name and Init")
	}
	if _, dup := registry[def.Name]; dup {
		panic("pulsecore: RegisterModule called twice for " + def.Name)
	}
	registry[def.Name] = def
}

// RegisteredModules returns every registered module, sorted by name.
func RegisteredModules() []ModuleDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	defs := make([]ModuleDefinition, 0, len(registry))
	for _, def := range registry {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b ModuleDefinition) int {
		return strings.Compare(a.Name, b.Name)
	})
	return defs
}

func lookupModule(name string) (ModuleDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := registry[name]
	return def, ok
}

// Module is a loaded instance of a ModuleDefinition.
type Module struct {
	Core     *Core
	Name     string
	Argument string
	Index    uint32
	Userdata any

	// AutoUnload makes the module eligible for unloading once it has been
	// unused for the core's ModuleIdleTime.
	AutoUnload bool

	def             ModuleDefinition
	nUsed           int
	lastUsed        time.Time
	unloadRequested bool
	loaded          bool
}

// Info returns the module's description.
func (m *Module) Info() ModuleInfo { return m.def.Info }

// Used returns the usage count last set with SetUsed.
func (m *Module) Used() int { return m.nUsed }

// SetUsed updates the usage count. Dropping to zero starts the idle clock.
func (m *Module) SetUsed(used int) {
	if m.nUsed != used && used == 0 {
		m.lastUsed = m.Core.now()
	}
	m.nUsed = used
}

// RequestUnload schedules the module for unloading on the next mainloop
// iteration. It is safe to call from within the module's own callbacks.
func (m *Module) RequestUnload() {
	m.unloadRequested = true
	c := m.Core
	if c.deferUnloadEvent == nil {
		c.deferUnloadEvent = c.API.DeferNew(c.deferUnloadCallback)
	}
	c.deferUnloadEvent.Enable(true)
}

// LoadModule instantiates the registered module name with argument.
func (c *Core) LoadModule(name, argument string) (*Module, error) {
	def, ok := lookupModule(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}

	m := &Module{
		Core:     c,
		Name:     name,
		Argument: argument,
		def:      def,
		lastUsed: c.now(),
	}

	if err := def.Init(c, m); err != nil {
		c.Logger.Err().
			Str("module", name).
			Str("argument", argument).
			Err(err).
			Log("failed to load module")
		return nil, fmt.Errorf("%w: %s: %w", ErrModuleInitFailed, name, err)
	}

	m.Index = c.Modules.Put(m)
	m.loaded = true

	if c.autoUnloadEvent == nil {
		c.autoUnloadEvent = c.API.TimeNew(c.now().Add(c.UnloadPollInterval), c.autoUnloadCallback)
	}

	c.Logger.Info().
		Str("module", name).
		Str("argument", argument).
		Int64("index", int64(m.Index)).
		Log("loaded module")

	return m, nil
}

// UnloadModule unloads m. Unloading a module twice is a no-op.
func (c *Core) UnloadModule(m *Module) {
	if !m.loaded {
		return
	}
	if _, ok := c.Modules.Remove(m.Index); !ok {
		return
	}
	c.freeModule(m)
}

// UnloadModuleByIndex unloads the module with the given index.
func (c *Core) UnloadModuleByIndex(idx uint32) error {
	m, ok := c.Modules.Get(idx)
	if !ok {
		return fmt.Errorf("%w: index %d", ErrModuleNotFound, idx)
	}
	c.UnloadModule(m)
	return nil
}

// UnloadAllModules unloads every module, and releases the events used for
// scheduling unloads.
func (c *Core) UnloadAllModules() {
	c.Modules.Each(func(_ uint32, m *Module) bool {
		c.UnloadModule(m)
		return true
	})

	if c.autoUnloadEvent != nil {
		c.autoUnloadEvent.Free()
		c.autoUnloadEvent = nil
	}
	if c.deferUnloadEvent != nil {
		c.deferUnloadEvent.Free()
		c.deferUnloadEvent = nil
	}
}

// UnloadUnusedModules unloads the auto-unload modules that have been unused
// for at least ModuleIdleTime.
func (c *Core) UnloadUnusedModules() {
	now := c.now()
	c.Modules.Each(func(_ uint32, m *Module) bool {
		if m.nUsed > 0 || !m.AutoUnload {
			return true
		}
		if !m.lastUsed.Add(c.ModuleIdleTime).After(now) {
			c.UnloadModule(m)
		}
		return true
	})
}

func (c *Core) freeModule(m *Module) {
	m.loaded = false
	c.Logger.Info().
		Str("module", m.Name).
		Int64("index", int64(m.Index)).
		Log("unloading module")

	if m.def.Done != nil {
		m.def.Done(c, m)
	}
	m.Userdata = nil
}

func (c *Core) autoUnloadCallback(e mainloop.TimeEvent) {
	c.UnloadUnusedModules()
	e.Restart(c.now().Add(c.UnloadPollInterval))
}

func (c *Core) deferUnloadCallback(e mainloop.DeferEvent) {
	e.Enable(false)
	c.Modules.Each(func(_ uint32, m *Module) bool {
		if m.unloadRequested {
			c.UnloadModule(m)
		}
		return true
	})
}
