package cmd

import (
	"collsync/internal/auth"
	"collsync/internal/config"
	"collsync/internal/logger"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var (
	loginURL   string
	loginToken string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Acquire credentials via the server login flow",
	Long: `Starts a browser-based login flow against the remote server and
stores the resulting app password. With --token, stores a bearer token
instead and skips the flow. The two credential modes are exclusive:
setting one clears the other.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		if loginURL != "" {
			cfg.RemoteURL = loginURL
		}
		if cfg.RemoteURL == "" {
			return fmt.Errorf("--url is required, no remote url configured")
		}

		if loginToken != "" {
			if err := auth.SaveToken(&oauth2.Token{AccessToken: loginToken}); err != nil {
				return err
			}

			cfg.UseToken = true
			cfg.Password = ""
			if err := config.Save(cfg); err != nil {
				return err
			}

			fmt.Println("Token saved.")
			return nil
		}

		flow := auth.NewLoginFlow(cfg.RemoteURL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		session, err := flow.Start(ctx)
		if err != nil {
			return err
		}

		fmt.Println("Open this URL in a browser to log in:")
		fmt.Println()
		fmt.Println(session.LoginURL)
		fmt.Println()
		fmt.Println("Waiting for the login to complete...")

		creds, err := flow.Poll(ctx, session)
		if err != nil {
			return fmt.Errorf("login failed (%s): %w", session.State, err)
		}

		cfg.Username = creds.Username
		cfg.Password = creds.Password
		cfg.UseToken = false
		if err := config.Save(cfg); err != nil {
			return err
		}

		fmt.Printf("Logged in as %s.\n", creds.Username)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginURL, "url", "", "remote server url")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "store a bearer token instead of running the login flow")
	rootCmd.AddCommand(loginCmd)
}
