package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type queryResultView struct {
	RecordID    string         `json:"record_id"`
	Score       float64        `json:"score"`
	ContentType string         `json:"content_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type queryView struct {
	Items []queryResultView `json:"items"`
	Total int               `json:"total"`
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a similarity query against indexed files",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}

	cmd.Flags().Int("top-k", 0, "maximum number of results (server default if 0)")
	cmd.Flags().Float64("min-score", -1, "minimum similarity score (server default if negative)")
	cmd.Flags().String("filter", "", "metadata filter as a JSON object")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	topK, _ := cmd.Flags().GetInt("top-k")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	rawFilter, _ := cmd.Flags().GetString("filter")
	out := cmd.OutOrStdout()

	body := map[string]any{"text": args[0]}
	if topK > 0 {
		body["top_k"] = topK
	}
	if minScore >= 0 {
		body["min_score"] = minScore
	}
	if rawFilter != "" {
		var filter map[string]any
		if err := json.Unmarshal([]byte(rawFilter), &filter); err != nil {
			return fmt.Errorf("--filter must be a JSON object: %w", err)
		}
		body["filter"] = filter
	}

	var resp queryView
	client := clientFromFlags(cmd)
	if err := client.postJSON("/query", body, &resp); err != nil {
		return err
	}

	if resp.Total == 0 {
		_, err := fmt.Fprintln(out, "No results")
		return err
	}
	for i, item := range resp.Items {
		name := "unknown"
		if n, ok := item.Metadata["file_name"].(string); ok {
			name = n
		}
		_, _ = fmt.Fprintf(out, "%2d. %.4f  %s  (%s, %s)\n",
			i+1, item.Score, name, item.RecordID, item.ContentType)
	}
	return nil
}
