// Command palined runs the sound server core: it loads the configured
// modules, and serves a line channel on stdin/stdout.
//
// Usage:
//
//	palined [command] [flags]
//
// Commands:
//
//	run       - Run the daemon
//	modules   - List the built-in modules
package main

import (
	"fmt"
	"os"

	"github.com/somdoron/pulseaudio/cmd/palined/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
