package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// recordView mirrors the server's record response.
type recordView struct {
	ID          string         `json:"id"`
	FileName    string         `json:"file_name"`
	ContentType string         `json:"content_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type batchItemView struct {
	FileName string      `json:"file_name"`
	Record   *recordView `json:"record,omitempty"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type batchUploadView struct {
	Items     []batchItemView `json:"items"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
}

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file and index its embedding",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpload,
	}

	cmd.Flags().String("metadata", "", "extra metadata as a JSON object")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	metadata, _ := cmd.Flags().GetString("metadata")

	var rec recordView
	client := clientFromFlags(cmd)
	if err := client.uploadFiles("/upload", "file", args, metadata, 201, &rec); err != nil {
		return err
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s\n  id: %s\n  type: %s\n",
		rec.FileName, rec.ID, rec.ContentType)
	return err
}

func newUploadBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload-batch <path>...",
		Short: "Upload multiple files in a single batch",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runUploadBatch,
	}

	cmd.Flags().String("metadata", "", "extra metadata as a JSON object, applied to every file")

	return cmd
}

func runUploadBatch(cmd *cobra.Command, args []string) error {
	metadata, _ := cmd.Flags().GetString("metadata")
	out := cmd.OutOrStdout()

	var resp batchUploadView
	client := clientFromFlags(cmd)
	if err := client.uploadFiles("/upload-batch", "files", args, metadata, 200, &resp); err != nil {
		return err
	}

	for _, item := range resp.Items {
		if item.Error != nil {
			_, _ = fmt.Fprintf(out, "FAIL %s: %s\n", item.FileName, item.Error.Message)
			continue
		}
		_, _ = fmt.Fprintf(out, "OK   %s -> %s\n", item.FileName, item.Record.ID)
	}
	_, err := fmt.Fprintf(out, "%d succeeded, %d failed\n", resp.Succeeded, resp.Failed)
	return err
}

func readLocalFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
