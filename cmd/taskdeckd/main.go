// taskdeckd is the sync backend for taskdeck, plus its admin commands.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nissyi-gh/taskdeck/internal/config"
	"github.com/nissyi-gh/taskdeck/internal/server"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "taskdeckd",
		Short:   "taskdeckd - sync server for taskdeck",
		Version: Version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(recategorizeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultServerDB() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".local", "share", "taskdeck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dir, "taskdeckd.db"), nil
}

func openStorage(dbPath string) (*server.Storage, error) {
	if dbPath == "" {
		cfg, err := config.Load("")
		if err != nil {
			return nil, err
		}
		dbPath = cfg.ServerDB
	}
	if dbPath == "" {
		var err error
		dbPath, err = defaultServerDB()
		if err != nil {
			return nil, err
		}
	}
	return server.OpenStorage(dbPath)
}

func serveCmd() *cobra.Command {
	var addr, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sync server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := config.Load("")
				if err != nil {
					return err
				}
				addr = cfg.Listen
			}
			storage, err := openStorage(dbPath)
			if err != nil {
				return err
			}
			defer storage.Close()

			fmt.Printf("taskdeckd listening on %s\n", addr)
			return server.NewServer(storage).Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default from config)")

	return cmd
}

func checkCmd() *cobra.Command {
	var remoteURL string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that a running server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			if remoteURL == "" {
				cfg, err := config.Load("")
				if err != nil {
					return err
				}
				remoteURL = cfg.RemoteURL
			}

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(remoteURL + "/api/health")
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server unhealthy: %s", resp.Status)
			}
			fmt.Printf("%s is healthy\n", remoteURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&remoteURL, "remote", "", "server base URL (default from config)")

	return cmd
}

func recategorizeCmd() *cobra.Command {
	var owner, dbPath string

	cmd := &cobra.Command{
		Use:   "recategorize",
		Short: "Move overdue and due-today tasks into the must-finish-today section",
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" {
				cfg, err := config.Load("")
				if err != nil {
					return err
				}
				owner = cfg.Owner
			}
			storage, err := openStorage(dbPath)
			if err != nil {
				return err
			}
			defer storage.Close()

			moved, err := storage.RecategorizeDueToday(owner, time.Now().Format("2006-01-02"))
			if err != nil {
				return err
			}
			fmt.Printf("moved %d tasks\n", moved)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner to recategorize (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (default from config)")

	return cmd
}
