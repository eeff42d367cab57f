package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/somdoron/pulseaudio/pulsecore"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the built-in modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVERSION\tDESCRIPTION")
		for _, def := range pulsecore.RegisteredModules() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", def.Name, def.Info.Version, def.Info.Description)
			if def.Info.Usage != "" {
				fmt.Fprintf(w, "\t\tusage: %s\n", def.Info.Usage)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
}
