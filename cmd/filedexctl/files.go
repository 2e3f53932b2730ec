package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type recordListView struct {
	Items []recordView `json:"items"`
	Total int          `json:"total"`
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed files",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	cmd.Flags().Int("limit", 100, "maximum number of records to list")

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	out := cmd.OutOrStdout()

	var resp recordListView
	client := clientFromFlags(cmd)
	if err := client.getJSON(fmt.Sprintf("/files?limit=%d", limit), &resp); err != nil {
		return err
	}

	if resp.Total == 0 {
		_, err := fmt.Fprintln(out, "No files indexed")
		return err
	}
	for _, rec := range resp.Items {
		_, _ = fmt.Fprintf(out, "%s  %-30s  %s\n", rec.ID, rec.FileName, rec.ContentType)
	}
	_, err := fmt.Fprintf(out, "%d file(s)\n", resp.Total)
	return err
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show a record with its full metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec recordView
			client := clientFromFlags(cmd)
			if err := client.getJSON("/files/"+args[0], &rec); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the original file content of a record",
		Args:  cobra.ExactArgs(1),
		RunE:  runDownload,
	}

	cmd.Flags().StringP("output", "o", "", "output path (defaults to the stored file name)")

	return cmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	client := clientFromFlags(cmd)

	if output == "" {
		var rec recordView
		if err := client.getJSON("/files/"+args[0], &rec); err != nil {
			return err
		}
		output = rec.FileName
	}

	data, _, err := client.download("/files/" + args[0] + "/content")
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s\n", len(data), output)
	return err
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record and its stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFromFlags(cmd)
			if err := client.delete("/files/" + args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return err
		},
	}
}
