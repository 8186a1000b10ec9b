package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"document-search/handlers"
	"document-search/handlers/middleware"
	"document-search/handlers/realtime"
	"document-search/metrics"
	"document-search/stores"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the document API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer stop()

		metrics.RegisterCollectors(prometheus.DefaultRegisterer)

		documentStore, err := stores.GetStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}

		ioo := realtime.NewServer()
		defer ioo.Close()
		documentStore = stores.OnSave(documentStore, ioo.Publish)

		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		srv := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handlers.NewRouter(documentStore, limiter, ioo.Handler()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errC := make(chan error, 1)
		go func() {
			logrus.WithField("addr", cfg.ListenAddr).Info("Listening")
			errC <- srv.ListenAndServe()
		}()

		select {
		case err := <-errC:
			return err
		case <-ctx.Done():
		}

		logrus.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
