// ABOUTME: CLI command for running the swim REST API.
// ABOUTME: Serves workouts and accepts session times over HTTP until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harperreed/swim/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API",
	Long: `Serve the workout library and accept session times over HTTP.

ROUTES:

  GET  /api/v1/workouts                 List workouts (?search=, ?limit=)
  GET  /api/v1/workouts/{id}            Get a workout tree
  GET  /api/v1/workouts/{id}/steps      Unrolled steps with breadcrumbs
  POST /api/v1/sessions                 Start a session {"workout_id": ...}
  GET  /api/v1/sessions/{id}/times      List a session's times
  POST /api/v1/sessions/{id}/times      Record a time

Other swim installs can point server_url at this server to send their
session times here.

EXAMPLES:

  swim serve                  # Listen on :8080
  swim serve --addr :9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listener, err := net.Listen("tcp", serveAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", serveAddr, err)
		}

		httpSrv := &http.Server{
			Handler:           server.New(repo, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		success.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s\n", listener.Addr())
		logger.Info("server starting", zap.String("addr", listener.Addr().String()))

		// Graceful shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
