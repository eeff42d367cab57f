package commands

import (
	"github.com/spf13/cobra"

	_ "github.com/somdoron/pulseaudio/internal/modules"
)

var rootCmd = &cobra.Command{
	Use:   "palined",
	Short: "Sound server core daemon",
	Long: `palined - the sound server core.

It loads the modules listed in its configuration file, and exposes a line
channel on stdin/stdout. Each line received is echoed back, end of input
stops the daemon.

Examples:
  # Run with the built-in defaults
  palined run

  # Run with a configuration file
  palined run --config palined.yaml

  # List the built-in modules
  palined modules`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
