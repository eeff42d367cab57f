package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/somdoron/pulseaudio/internal/config"
	"github.com/somdoron/pulseaudio/iochannel"
	"github.com/somdoron/pulseaudio/ioline"
	"github.com/somdoron/pulseaudio/mainloop"
	"github.com/somdoron/pulseaudio/pulsecore"
)

var (
	configFile string
	noStdio    bool
)

var runDaemonCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon",
	Long: `Run the daemon until interrupted, or until stdin is closed.

Examples:
  palined run --config palined.yaml
  palined run --no-stdio`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if configFile != "" {
			var err error
			if cfg, err = config.Load(configFile); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := daemonOptions{In: 0, Out: 1, Log: cmd.ErrOrStderr()}
		if noStdio {
			opts.In, opts.Out = -1, -1
		}
		return runDaemon(ctx, cfg, opts)
	},
}

func init() {
	runDaemonCmd.Flags().StringVarP(&configFile, "config", "c", "", "configuration file (YAML)")
	runDaemonCmd.Flags().BoolVar(&noStdio, "no-stdio", false, "do not serve a line channel on stdin/stdout")
	rootCmd.AddCommand(runDaemonCmd)
}

type daemonOptions struct {
	// In and Out are the fds lines are read from and echoed to, -1 disables
	// either. The fds are not closed.
	In, Out int
	Log     io.Writer
}

func runDaemon(ctx context.Context, cfg *config.Config, opts daemonOptions) error {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	idle, err := cfg.IdleTime()
	if err != nil {
		return err
	}
	logger := config.NewLogger(opts.Log, level)

	m, err := mainloop.New(mainloop.WithLogger(logger))
	if err != nil {
		return err
	}
	defer m.Close()

	core := pulsecore.NewCore(m, pulsecore.CoreConfig{
		Logger:         logger,
		ModuleIdleTime: idle,
	})
	defer core.Close()

	for _, mc := range cfg.Modules {
		if _, err := core.LoadModule(mc.Name, mc.Argument); err != nil {
			return err
		}
	}

	lineCfg := cfg.LineOptions(logger)
	delim := lineCfg.Delimiter
	if delim == 0 {
		delim = '\n'
	}

	// Output gets its own line, so that echoes still queued when input hits
	// EOF are written before the daemon stops.
	var out *ioline.Line
	if opts.Out >= 0 {
		ch, err := iochannel.New(m, -1, opts.Out)
		if err != nil {
			return fmt.Errorf("stdout channel: %w", err)
		}
		ch.SetNoClose(true)

		out = ioline.NewWithConfig(ch, lineCfg)
		defer out.Unref()

		out.SetHandler(ioline.HandlerFunc(func(l *ioline.Line, ev ioline.Event) {
			if !ev.Closed {
				return
			}
			b := logger.Info()
			if ev.Err != nil {
				b = b.Err(ev.Err)
			}
			b.Log("line channel closed")
			m.Quit(0)
		}))
	}

	if opts.In >= 0 {
		ch, err := iochannel.New(m, opts.In, -1)
		if err != nil {
			return fmt.Errorf("stdin channel: %w", err)
		}
		ch.SetNoClose(true)

		in := ioline.NewWithConfig(ch, lineCfg)
		defer in.Unref()

		in.SetHandler(ioline.HandlerFunc(func(l *ioline.Line, ev ioline.Event) {
			if !ev.Closed {
				if out != nil {
					out.Printf("%s%c", ev.Text, delim)
				}
				return
			}
			b := logger.Debug()
			if ev.Err != nil {
				b = b.Err(ev.Err)
			}
			b.Log("input closed")
			if out != nil && !out.Dead() {
				out.DeferClose()
				return
			}
			m.Quit(0)
		}))
	}

	logger.Info().
		Int("modules", core.Modules.Len()).
		Log("daemon started")

	ret, err := m.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if ret != 0 {
		return fmt.Errorf("mainloop exited with %d", ret)
	}
	return nil
}
