package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}
}

func runHealth(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	server, _ := cmd.Flags().GetString("server")

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	client := clientFromFlags(cmd)
	if err := client.getJSON("/health", &body); err != nil {
		if errors.Is(err, ErrServerNotRunning) {
			_, _ = fmt.Fprintf(out, "Server at %s is not running (connection refused)\n", server)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Server at %s: %s\n", server, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Server at %s: %s\n", server, body.Status)
	for name, result := range body.Checks {
		_, _ = fmt.Fprintf(out, "  %s: %s\n", name, result)
	}
	return nil
}
