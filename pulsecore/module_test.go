package pulsecore

import (
	"errors"
	"testing"
	"time"

	"github.com/somdoron/pulseaudio/mainloop"
	"github.com/stretchr/testify/require"
)

var errTestInit = errors.New("init refused")

type testModuleState struct {
	args Modargs
	done int
}

var testModuleDone []string

func init() {
	RegisterModule(ModuleDefinition{
		Name: "module-test",
		Info: ModuleInfo{
			Author:      "test",
			Description: "Records its arguments",
			Usage:       "fail=<bool>",
			Version:     "1.0",
		},
		Init: func(c *Core, m *Module) error {
			ma, err := ParseModargs(m.Argument, []string{"fail", "auto"})
			if err != nil {
				return err
			}
			if fail, _ := ma.GetBool("fail", false); fail {
				return errTestInit
			}
			m.AutoUnload, _ = ma.GetBool("auto", false)
			m.Userdata = &testModuleState{args: ma}
			return nil
		},
		Done: func(c *Core, m *Module) {
			m.Userdata.(*testModuleState).done++
			testModuleDone = append(testModuleDone, m.Argument)
		},
	})
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestCore(t *testing.T) (*Core, *mainloop.Mainloop, *fakeClock) {
	t.Helper()
	m, err := mainloop.New()
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := NewCore(m, CoreConfig{Now: clock.now})
	t.Cleanup(c.Close)
	return c, m, clock
}

func TestCore_Defaults(t *testing.T) {
	c := NewCore(nil, CoreConfig{})
	require.Equal(t, DefaultModuleIdleTime, c.ModuleIdleTime)
	require.Equal(t, DefaultUnloadPollInterval, c.UnloadPollInterval)
	require.WithinDuration(t, time.Now(), c.Now(), time.Minute)
}

func TestLoadModule(t *testing.T) {
	c, _, _ := newTestCore(t)

	m, err := c.LoadModule("module-test", "auto=false")
	require.NoError(t, err)
	require.Equal(t, "module-test", m.Name)
	require.Equal(t, "Records its arguments", m.Info().Description)
	require.Equal(t, 1, c.Modules.Len())

	got, ok := c.Modules.Get(m.Index)
	require.True(t, ok)
	require.Same(t, m, got)

	state := m.Userdata.(*testModuleState)
	c.UnloadModule(m)
	require.Equal(t, 1, state.done)
	require.Zero(t, c.Modules.Len())

	c.UnloadModule(m)
	require.Equal(t, 1, state.done)
}

func TestLoadModule_Errors(t *testing.T) {
	c, _, _ := newTestCore(t)

	_, err := c.LoadModule("module-missing", "")
	require.ErrorIs(t, err, ErrModuleNotFound)

	_, err = c.LoadModule("module-test", "fail=1")
	require.ErrorIs(t, err, ErrModuleInitFailed)
	require.ErrorIs(t, err, errTestInit)

	_, err = c.LoadModule("module-test", "bogus=1")
	require.ErrorIs(t, err, ErrModuleInitFailed)
	require.ErrorIs(t, err, ErrInvalidModargs)

	require.Zero(t, c.Modules.Len())
}

func TestUnloadModuleByIndex(t *testing.T) {
	c, _, _ := newTestCore(t)

	m, err := c.LoadModule("module-test", "")
	require.NoError(t, err)
	require.NoError(t, c.UnloadModuleByIndex(m.Index))
	require.ErrorIs(t, c.UnloadModuleByIndex(m.Index), ErrModuleNotFound)
}

func TestUnloadAllModules(t *testing.T) {
	c, _, _ := newTestCore(t)
	testModuleDone = nil

	for _, arg := range []string{"auto=0", "auto=1", ""} {
		_, err := c.LoadModule("module-test", arg)
		require.NoError(t, err)
	}
	c.UnloadAllModules()
	require.Zero(t, c.Modules.Len())
	require.Equal(t, []string{"auto=0", "auto=1", ""}, testModuleDone)
}

func TestUnloadUnusedModules(t *testing.T) {
	c, _, clock := newTestCore(t)
	c.ModuleIdleTime = 10 * time.Second

	pinned, err := c.LoadModule("module-test", "auto=0")
	require.NoError(t, err)
	auto, err := c.LoadModule("module-test", "auto=1")
	require.NoError(t, err)
	used, err := c.LoadModule("module-test", "auto=1")
	require.NoError(t, err)
	used.SetUsed(1)

	clock.t = clock.t.Add(9 * time.Second)
	c.UnloadUnusedModules()
	require.Equal(t, 3, c.Modules.Len())

	clock.t = clock.t.Add(time.Second)
	c.UnloadUnusedModules()
	require.Equal(t, 2, c.Modules.Len())
	_, ok := c.Modules.Get(auto.Index)
	require.False(t, ok)

	// dropping to zero restarts the idle clock
	used.SetUsed(0)
	require.Zero(t, used.Used())
	clock.t = clock.t.Add(5 * time.Second)
	c.UnloadUnusedModules()
	_, ok = c.Modules.Get(used.Index)
	require.True(t, ok)

	clock.t = clock.t.Add(5 * time.Second)
	c.UnloadUnusedModules()
	_, ok = c.Modules.Get(used.Index)
	require.False(t, ok)

	_, ok = c.Modules.Get(pinned.Index)
	require.True(t, ok)
}

func TestModule_RequestUnload(t *testing.T) {
	c, m, _ := newTestCore(t)

	mod, err := c.LoadModule("module-test", "")
	require.NoError(t, err)

	mod.RequestUnload()
	require.Equal(t, 1, c.Modules.Len(), "unload is deferred")

	_, err = m.Iterate(false)
	require.NoError(t, err)
	require.Zero(t, c.Modules.Len())
}

func TestAutoUnloadTimer(t *testing.T) {
	m, err := mainloop.New()
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	c := NewCore(m, CoreConfig{
		ModuleIdleTime:     time.Millisecond,
		UnloadPollInterval: 5 * time.Millisecond,
	})
	t.Cleanup(c.Close)

	_, err = c.LoadModule("module-test", "auto=1")
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for c.Modules.Len() > 0 {
		require.True(t, time.Now().Before(deadline), "timeout waiting for auto unload")
		_, err := m.Iterate(true)
		require.NoError(t, err)
	}
}

func TestRegisteredModules(t *testing.T) {
	var names []string
	for _, def := range RegisteredModules() {
		names = append(names, def.Name)
	}
	require.Contains(t, names, "module-test")

	require.Panics(t, func() {
		RegisterModule(ModuleDefinition{Name: "module-test", Init: func(*Core, *Module) error { return nil }})
	})
	require.Panics(t, func() { RegisterModule(ModuleDefinition{Name: "module-noinit"}) })
}
