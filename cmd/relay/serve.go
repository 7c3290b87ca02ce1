package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sagarc03/relay"
	"github.com/sagarc03/relay/bus"
	"github.com/sagarc03/relay/config"
	relayhttp "github.com/sagarc03/relay/http"
	"github.com/sagarc03/relay/observability"
	"github.com/sagarc03/relay/view"
)

// healthKey is answered by the CLI itself for load balancer health checks.
const healthKey = "get/_health"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the transport",
	Long: `Start the relay transport and block until SIGINT or SIGTERM.

Examples:
  # Listen on 0.0.0.0:3000 and serve ./public under /static
  relay serve --static-root ./public --static-url /static

  # Use a config file and override the port
  relay serve --config relay.yaml --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addServerFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

// addServerFlags registers the flags config.Load understands for the
// active listener.
func addServerFlags(flags *pflag.FlagSet) {
	flags.String("host", "", "listen host (default: 0.0.0.0)")
	flags.Int("port", 0, "listen port (default: 3000)")
	flags.String("socket", "", "listen on a unix socket instead of host:port")
	flags.String("static-root", "", "serve files from this directory")
	flags.String("static-url", "/", "URL prefix for --static-root")
	flags.String("views", "", "view document file (env: RELAY_VIEWS_FILE)")
	flags.Bool("metrics", false, "expose Prometheus metrics (env: RELAY_METRICS_ENABLED)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, transport, err := build(cfg, slog.Default())
	if err != nil {
		return err
	}

	if _, err = transport.Start(ctx); err != nil {
		_ = transport.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err, ok := <-transport.Err(); ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		slog.Info("shutting down transport...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		return transport.Stop(shutdownCtx)
	})

	return g.Wait()
}

// build wires a bus, the configured views and the transport together
// without binding anything.
func build(cfg *config.Config, logger *slog.Logger) (*bus.Bus, *relayhttp.Transport, error) {
	b := bus.New()
	b.OnFunc(healthKey, health)

	var views view.Registry
	if cfg.Views.File != "" {
		m, err := view.LoadFile(cfg.Views.File)
		if err != nil {
			return nil, nil, fmt.Errorf("load views: %w", err)
		}
		views = m
		logger.Debug("views loaded", "file", cfg.Views.File, "views", m.Names())
	}

	opts := []relayhttp.Option{relayhttp.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		opts = append(opts, relayhttp.WithMetrics(observability.NewMetrics(nil), cfg.Metrics.Path))
	}

	transport, err := relayhttp.New(cfg.Transport(), b, views, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create transport: %w", err)
	}

	if err = transport.AddViews(cfg.Views.Routes); err != nil {
		_ = transport.Close()
		return nil, nil, fmt.Errorf("mount views: %w", err)
	}

	return b, transport, nil
}

func health(ctx context.Context, msg *relay.Message) {
	msg.ResponseStatusCode = http.StatusOK
	msg.ResponseHeaders = http.Header{"Content-Type": {"application/json"}}
	msg.Response = `{"status":"ok"}`

	if _, err := msg.Reply(ctx); err != nil {
		slog.Warn("health reply failed", "id", msg.ID, "error", err)
	}
}
