// Command klish is the client for klishd: it connects over a unix
// socket and speaks the wire protocol in internal/ktp/client to run,
// complete, or get help on commands, plus a few convenience surfaces
// (interactive repl, fuzzy picker, scaffold wizard, deploy dump) built
// from the same third-party stack the rest of the retrieved corpus
// uses for its own CLIs.
package main

import (
	"github.com/spf13/cobra"

	"klish/internal/kcli"
)

var (
	flagConfig string
	flagSocket string
)

func main() {
	root := &cobra.Command{
		Use:   "klish",
		Short: "klish CLI-framework client",
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to klish.toml")
	root.PersistentFlags().StringVar(&flagSocket, "socket", "", "unix socket path (overrides config)")

	root.AddCommand(
		execCmd(),
		completeCmd(),
		helpCmd(),
		replCmd(),
		deployCmd(),
		pickCmd(),
		wizardCmd(),
	)

	if err := root.Execute(); err != nil {
		kcli.Exit(kcli.BadArgs, err)
	}
}
