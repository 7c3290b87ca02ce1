package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/sagarc03/relay"
	"github.com/sagarc03/relay/config"
	"github.com/sagarc03/relay/filesystem"
	"github.com/sagarc03/relay/static"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the dispatch keys the configuration subscribes",
	Long: `Print every dispatch key relay serve would subscribe on the bus,
one per line. Keys ending in * match any path with that prefix.

With --files, also print a "get" key for every file under the static
root that the dotfiles policy lets through.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if err = printRoutes(w, cfg); err != nil {
			return err
		}

		if files, _ := cmd.Flags().GetBool("files"); files {
			return printStaticFiles(cmd.Context(), w, cfg)
		}
		return nil
	},
}

func init() {
	addServerFlags(routesCmd.Flags())
	routesCmd.Flags().Bool("files", false, "also list the static files that would be served")
	rootCmd.AddCommand(routesCmd)
}

func printRoutes(w io.Writer, cfg *config.Config) error {
	b, transport, err := build(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		return err
	}
	defer func() { _ = transport.Close() }()

	for _, key := range b.Keys() {
		if _, err := fmt.Fprintln(w, key); err != nil {
			return err
		}
	}
	return nil
}

func printStaticFiles(ctx context.Context, w io.Writer, cfg *config.Config) error {
	srv := cfg.Server()
	if srv == nil || srv.Static == nil {
		return nil
	}

	store, err := filesystem.Open(srv.Static.Root, "")
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	files, err := store.List(ctx)
	if err != nil {
		return err
	}

	prefix := relay.NormalizePrefix(srv.Static.URL)
	for _, f := range files {
		if relay.IsDotfile(f) && srv.Static.Dotfiles != static.DotfilesAllow {
			continue
		}
		u := url.URL{Path: prefix + f}
		if _, err := fmt.Fprintln(w, relay.DispatchKey("get", u.EscapedPath())); err != nil {
			return err
		}
	}
	return nil
}
