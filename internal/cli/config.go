package cli

import (
	"github.com/spf13/cobra"
)

// configCommand prints the effective configuration as TOML. The output can
// be saved and passed back with --config.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Config.Write(cmd.OutOrStdout())
		},
	}
}
