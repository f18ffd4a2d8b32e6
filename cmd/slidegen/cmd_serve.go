package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/CHuiV123/slidegen/internal/api"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		a.cfg.Server.Addr = addr
	}

	router := api.NewRouter(a.orch, a.log, api.RouterOptions{AllowOrigins: a.cfg.CORS.AllowOrigins})

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  seconds(a.cfg.Server.ReadTimeoutSeconds),
		WriteTimeout: seconds(a.cfg.Server.WriteTimeoutSeconds),
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", "addr", a.cfg.Server.Addr, "output_dir", a.store.OutputDir())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		a.log.Error("server error", "error", err)
		return err
	}

	a.log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.log.Error("server forced to shutdown", "error", err)
		return err
	}
	a.log.Info("server stopped")
	return nil
}
