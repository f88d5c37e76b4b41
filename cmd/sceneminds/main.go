// Command sceneminds starts the editor companion backend: the REST and
// websocket server that bridges the editor plugin with file watching,
// git status tracking, and code index updates.
//
// Usage:
//
//	sceneminds serve
//	sceneminds serve --addr 127.0.0.1:9005 --repo /path/to/project
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8005/v1/health
//
//	# Working tree status with delta session
//	curl 'http://localhost:8005/v1/git/status?client_id=dev1'
//
//	# Start watching a project
//	curl -X POST http://localhost:8005/v1/watcher/start \
//	  -H "Content-Type: application/json" -d '{"path": "."}'
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sceneminds/sceneminds/pkg/config"
	"github.com/sceneminds/sceneminds/pkg/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "sceneminds",
		Short:        "Editor companion backend with live sync and command bridging",
		SilenceUsage: true,
	}

	var (
		addr string
		repo string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the backend server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}

			level := slog.LevelInfo
			if cfg.Debug {
				level = slog.LevelDebug
			}
			logging.Setup(logging.Config{Level: level})

			return runServer(cfg, repo)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides SCENEMINDS_ADDR)")
	serveCmd.Flags().StringVar(&repo, "repo", ".", "project repository root")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
