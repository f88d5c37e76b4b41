package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sceneminds/sceneminds/pkg/config"
	"github.com/sceneminds/sceneminds/services/gitstatus"
	"github.com/sceneminds/sceneminds/services/realtime"
	"github.com/sceneminds/sceneminds/services/server"
	"github.com/sceneminds/sceneminds/services/session"
	"github.com/sceneminds/sceneminds/services/watch"
)

// shutdownGrace bounds how long in-flight requests get on SIGTERM.
const shutdownGrace = 10 * time.Second

// runServer wires every component, starts the HTTP server, and tears
// everything down in reverse order on SIGINT/SIGTERM. All components
// are constructed here and passed down explicitly; nothing is a
// package-level singleton.
func runServer(cfg config.Config, repo string) error {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := realtime.NewHub(realtime.HubOptions{
		IdleTimeout:  cfg.IdleTimeout,
		ReapInterval: cfg.ReapInterval,
	})
	bridge := realtime.NewBridge(cfg.CommandTimeout)
	dispatcher := realtime.NewDispatcher(cfg.DispatchQueue)

	git, err := gitstatus.New(repo)
	if err != nil {
		return err
	}
	sessions := session.NewStore(session.Options{
		TTL: cfg.SessionTTL,
		Cap: cfg.SessionCap,
	})

	fileWatcher := watch.NewFileWatcher(&chunkCountIndexer{}, hub, dispatcher, watch.FileWatcherOptions{
		QuietPeriod:     cfg.DebounceQuiet,
		Extensions:      cfg.WatchExtensions,
		IgnoreDirs:      cfg.IgnoreDirs,
		PendingCapacity: cfg.PendingCap,
	})
	gitWatcher := watch.NewGitWatcher(server.NewStatusSource(git), hub, dispatcher, cfg.DebounceQuiet)

	dispatcher.Start()
	hub.StartReaper()

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Debug {
		router.Use(gin.Logger())
	}

	handlers := &server.Handlers{
		Editor:   server.NewEditorHandlers(bridge),
		Git:      server.NewGitHandlers(git, sessions),
		Watch:    server.NewWatchHandlers(fileWatcher, gitWatcher, cfg.WatchExtensions, cfg.IgnoreDirs),
		Realtime: realtime.NewHandlers(hub, bridge, unconfiguredCompleter{}),
	}
	server.RegisterRoutes(router.Group("/v1"), handlers)
	server.RegisterMetrics(router)

	srv := &http.Server{Addr: cfg.Addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", cfg.Addr, "repo", git.Root())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}

	// Stop producers before the things they feed.
	fileWatcher.Stop()
	gitWatcher.Stop()
	hub.StopReaper()
	dispatcher.Stop()

	slog.Info("Shutdown complete")
	return nil
}
