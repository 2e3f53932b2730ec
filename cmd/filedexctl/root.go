package main

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root filedexctl command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "filedexctl",
		Short:         "filedexctl — CLI for the filedex file similarity service",
		Long:          "filedexctl uploads files, runs similarity queries, and manages records in a running filedex server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("server", envOr("FILEDEX_SERVER", "http://127.0.0.1:8080"), "filedex server base URL")
	root.PersistentFlags().String("api-key", os.Getenv("FILEDEX_API_KEY"), "bearer token for authenticated servers")

	root.AddCommand(
		newUploadCmd(),
		newUploadBatchCmd(),
		newQueryCmd(),
		newListCmd(),
		newInfoCmd(),
		newDownloadCmd(),
		newDeleteCmd(),
		newHealthCmd(),
		newVersionCmd(),
	)

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
