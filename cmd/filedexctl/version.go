package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridia-cloud/filedex/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print filedexctl version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "filedexctl %s (commit: %s, built: %s)\n",
				version.Version, version.Commit, version.Date)
			return err
		},
	}
}
