package commands

import (
	"github.com/spf13/cobra"

	"github.com/sukyun02/2026-autonomous-driving/internal/version"
)

var (
	buildVersion = "dev"
	buildSHA     = "unknown"
	buildTime    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info(cmd.OutOrStdout(), "%s", version.String("navctl", buildVersion, buildSHA, buildTime))
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
