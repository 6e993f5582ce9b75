package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/youruser/profileart/internal/api"
	"github.com/youruser/profileart/internal/config"
	imagepkg "github.com/youruser/profileart/internal/image"
	"github.com/youruser/profileart/internal/visits"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve decorated avatars, the selection table and the visitor banner",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func openVisits(c config.VisitsConfig) (visits.Store, error) {
	switch c.Driver {
	case "sqlite":
		return visits.OpenSQLite(c.Path)
	default:
		return visits.OpenFile(c.Path)
	}
}

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	store, err := openVisits(cfg.Visits)
	if err != nil {
		return fmt.Errorf("opening visits: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing visits", "error", err)
		}
	}()
	flusher := visits.NewFlusher(store, cfg.Visits.FlushEvery, a.logger)
	defer func() {
		if err := flusher.Flush(); err != nil {
			slog.Error("final visits flush failed", "error", err)
		}
	}()

	banner, err := loadBanner(cfg.Banner.Base)
	if err != nil {
		return err
	}

	srv := api.NewServer(api.Deps{
		Policies:   a.policies,
		Loader:     a.loader,
		Gate:       a.gate,
		Compositor: a.compositor,
		Table:      a.table,
		Avatars:    a.gh,
		Banner:     banner,
		Visits:     flusher,
		Cooldown:   cfg.Visits.Cooldown,
		Logger:     a.logger,
	})
	httpSrv := &http.Server{
		Addr:    cfg.Listen,
		Handler: api.NewRouter(srv),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Listen, "storage", a.bucket.Driver(), "visits", cfg.Visits.Driver)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// loadBanner opens the optional background image.
func loadBanner(base string) (*imagepkg.Banner, error) {
	if base == "" {
		return imagepkg.NewBanner(nil)
	}
	img, err := imaging.Open(base)
	if err != nil {
		return nil, fmt.Errorf("opening banner base %s: %w", base, err)
	}
	return imagepkg.NewBanner(img)
}
