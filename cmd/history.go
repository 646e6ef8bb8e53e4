package cmd

import (
	"collsync/internal/model"
	"collsync/internal/repository"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent sync passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyFailed {
			return printFailedFiles()
		}

		url := fmt.Sprintf("%s?n=%d", daemonURL("/history"), historyN)
		resp, err := http.Get(url)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(body io.ReadCloser) {
			_ = body.Close()
		}(resp.Body)

		var hist struct {
			Stats  repository.Stats   `json:"stats"`
			Passes []model.PassRecord `json:"passes"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
			return err
		}

		if len(hist.Passes) == 0 {
			fmt.Println("no passes yet")
			return nil
		}

		fmt.Printf("%d passes total, %d succeeded, %d failed\n\n",
			hist.Stats.Passes, hist.Stats.Success, hist.Stats.Failed)

		for _, r := range hist.Passes {
			status := "✓"
			if r.Status == model.StatusFailed {
				status = "✗"
			}

			fmt.Printf("%s [%s] %d up, %d down, %d unchanged, %d failed\n",
				status,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Uploaded, r.Downloaded, r.Skipped, r.Failed)

			if r.ErrMsg != "" {
				fmt.Printf("    %s\n", r.ErrMsg)
			}
		}

		return nil
	},
}

func printFailedFiles() error {
	resp, err := http.Get(daemonURL("/history/failed"))
	if err != nil {
		return fmt.Errorf("daemon not running: %w", err)
	}

	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	var files []model.History
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Println("no failed files")
		return nil
	}

	for _, f := range files {
		fmt.Printf("[%s] %s %s: %s\n",
			f.SyncedAt.Format("2006-01-02 15:04:05"),
			f.Op, f.LocalPath, f.ErrMsg)
	}

	return nil
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of passes to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "list failed files instead of passes")
	rootCmd.AddCommand(historyCmd)
}
