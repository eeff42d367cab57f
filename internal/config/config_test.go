package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
module_idle_time: 5s
line:
  delimiter: ";"
  buffer_limit: 1024
modules:
  - name: module-null-source
    argument: rate=8000
  - name: module-wav-recorder
`))
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []ModuleConfig{
		{Name: "module-null-source", Argument: "rate=8000"},
		{Name: "module-wav-recorder"},
	}, cfg.Modules)

	d, err := cfg.IdleTime()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, d)

	opts := cfg.LineOptions(nil)
	require.Equal(t, byte(';'), opts.Delimiter)
	require.Equal(t, 1024, opts.BufferLimit)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`log_level: info`))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, byte('\n'), cfg.LineOptions(nil).Delimiter)
}

func TestParse_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"level":     `log_level: loud`,
		"idle":      `module_idle_time: soon`,
		"delimiter": `line: {delimiter: "ab"}`,
		"limit":     `line: {buffer_limit: -1}`,
		"module":    `modules: [{argument: x}]`,
		"yaml":      `modules: [`,
	} {
		_, err := Parse([]byte(doc))
		require.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palined.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, logiface.LevelInformational)

	logger.Debug().Log("hidden")
	logger.Info().Str("module", "m").Log("loaded module")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"msg":"loaded module"`)
	require.Contains(t, out, `"module":"m"`)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("err")
	require.NoError(t, err)
	require.Equal(t, logiface.LevelError, lvl)
	require.Equal(t, "err", lvl.String())

	_, err = ParseLevel("chatty")
	require.Error(t, err)
}
