package main

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
}

// NewRootCommand creates the root command of the oracle CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "oracle",
		Short: "Fact publishing oracle",
		Long: `Publishes real-world facts onto the ledger exactly once and notifies every
requester once the publication is stable.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to a yaml, json or dotenv config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportConfigCommand())

	return cmd
}
