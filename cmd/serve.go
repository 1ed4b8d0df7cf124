package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/superdango/embodied-carbon/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report, group edits, exports and OpenMetrics over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := a.loadSession(ctx)
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              a.cfg.Listen,
				Handler:           server.New(ctx, s),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					slog.Warn("failed to shutdown http server", "err", err)
				}
			}()

			slog.Info("starting embodied carbon server", "listen", a.cfg.Listen, "building", s.Building().Name, "session_id", s.ID())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to start embodied carbon server", "err", err)
				return err
			}
			return nil
		},
	}
}
