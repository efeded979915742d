package main

import (
	"fmt"

	"github.com/4chain-ag/go-feed-oracle/pkg/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ExportConfigOptions holds flags for the export-config command.
type ExportConfigOptions struct {
	OutputFile string
	RegenToken bool
}

// NewExportConfigCommand creates the export-config command writing the default
// configuration to a file.
func NewExportConfigCommand() *cobra.Command {
	opts := &ExportConfigOptions{}

	cmd := &cobra.Command{
		Use:   "export-config",
		Short: "Write the default configuration to a file",
		Long: `Write the default configuration to a yaml, json or dotenv file. The format
follows the extension of the output file.

Example:
  oracle export-config -o config.yaml
  oracle export-config -o oracle.env --regen-token`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportConfig(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultConfigFilePath, "output configuration file path")
	cmd.Flags().BoolVarP(&opts.RegenToken, "regen-token", "t", false, "regenerate the admin bearer and ARC callback tokens")

	return cmd
}

func exportConfig(cmd *cobra.Command, opts *ExportConfigOptions) error {
	cfg := config.Defaults()
	if opts.RegenToken {
		cfg.Server.AdminBearerToken = uuid.NewString()
		cfg.Server.ARCCallbackToken = uuid.NewString()
	}

	if err := config.Export(cfg, opts.OutputFile, config.EnvPrefix); err != nil {
		return fmt.Errorf("error writing configuration: %w", err)
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", opts.OutputFile)
	return err
}
