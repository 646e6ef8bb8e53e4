package cmd

import (
	"collsync/internal/model"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(body io.ReadCloser) {
			_ = body.Close()
		}(resp.Body)

		var snap model.EngineSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return err
		}

		fmt.Printf("state:   %s\n", snap.State)
		fmt.Printf("started: %s\n", snap.StartedAt.Format("2006-01-02 15:04:05"))

		if snap.LastError != "" {
			fmt.Printf("error:   %s\n", snap.LastError)
		}

		if snap.LastPass != nil {
			p := snap.LastPass
			fmt.Printf("last pass: %s, %d up, %d down, %d unchanged, %d failed\n",
				p.FinishedAt.Format("15:04:05"),
				p.Uploaded, p.Downloaded, p.Skipped, p.Failed)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
