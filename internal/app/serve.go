package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackwell-systems/tagctl/internal/api"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tag proxy as a standalone server",
		Long: `Runs the Jellyfin tag proxy on a fixed address so several clients can
share its caches. Point clients at it with defaults.backend in the
config file.

The server address and API key from the config become the fallback for
requests that do not carry their own.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			listen := cfg.Serve.Addr()
			if addr != "" {
				listen = addr
			}

			srv := &http.Server{
				Addr: listen,
				Handler: api.New(api.Options{
					Base:     cfg.Jellyfin.Base,
					APIKey:   cfg.Jellyfin.APIKey,
					WriteNFO: cfg.Defaults.WriteNFO,
				}, logger),
				ReadTimeout: 30 * time.Second,
				// Searches may walk a whole library before answering.
				WriteTimeout: 5 * time.Minute,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Info("proxy listening", "addr", listen)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errc:
				return err
			case sig := <-quit:
				logger.Info("shutting down", "signal", sig.String())
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from serve.host and serve.port)")
	return cmd
}
