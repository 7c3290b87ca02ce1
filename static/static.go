// Package static serves files from a directory tree in response to relay
// messages. It writes directly onto the message's connection and never goes
// through a transport's Send.
package static

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/relay"
	"github.com/sagarc03/relay/filesystem"
)

// DotfilesPolicy controls how paths with a segment starting with "." are served.
type DotfilesPolicy string

const (
	// DotfilesIgnore answers dotfile requests as if the file did not exist.
	DotfilesIgnore DotfilesPolicy = "ignore"
	// DotfilesDeny answers dotfile requests with 403.
	DotfilesDeny DotfilesPolicy = "deny"
	// DotfilesAllow serves dotfiles like any other file.
	DotfilesAllow DotfilesPolicy = "allow"
)

// DefaultIndex is served for directory requests when Config.Index is empty.
const DefaultIndex = "index.html"

// HeaderSetter may adjust response headers right before they are written.
// path is relative to the static root.
type HeaderSetter func(h http.Header, path string, info fs.FileInfo)

// Config configures a static responder.
type Config struct {
	// URL is the mount prefix, e.g. "/static". The transport uses it for
	// subscription keys; the responder strips it from request paths.
	URL      string         `mapstructure:"url"`
	Root     string         `mapstructure:"root" validate:"required"`
	MaxAge   time.Duration  `mapstructure:"max_age" validate:"gte=0"`
	Index    string         `mapstructure:"index"`
	Dotfiles DotfilesPolicy `mapstructure:"dotfiles" validate:"omitempty,oneof=allow deny ignore"`

	SetHeaders HeaderSetter `mapstructure:"-" validate:"-"`
	Logger     *slog.Logger `mapstructure:"-" validate:"-"`
}

type responder struct {
	prefix     string
	store      *filesystem.Store
	maxAge     time.Duration
	dotfiles   DotfilesPolicy
	setHeaders HeaderSetter
	logger     *slog.Logger
}

// New builds a responder for cfg. Root must name an existing directory.
// The returned handler is also an io.Closer; Close releases the directory.
func New(cfg Config) (relay.Handler, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("static: root is required: %w", relay.ErrConfig)
	}

	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}

	dotfiles := cfg.Dotfiles
	switch dotfiles {
	case "":
		dotfiles = DotfilesIgnore
	case DotfilesIgnore, DotfilesDeny, DotfilesAllow:
	default:
		return nil, fmt.Errorf("static: unknown dotfiles policy %q: %w", cfg.Dotfiles, relay.ErrConfig)
	}

	store, err := filesystem.Open(cfg.Root, index)
	if err != nil {
		return nil, fmt.Errorf("static: %w: %w", relay.ErrConfig, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &responder{
		prefix:     strings.TrimSuffix(relay.NormalizePrefix(cfg.URL), "/"),
		store:      store,
		maxAge:     cfg.MaxAge,
		dotfiles:   dotfiles,
		setHeaders: cfg.SetHeaders,
		logger:     logger,
	}, nil
}

func (s *responder) Close() error {
	return s.store.Close()
}

func (s *responder) Handle(ctx context.Context, msg *relay.Message) {
	conn := msg.Connection
	if conn == nil || msg.Request == nil {
		return
	}
	if !conn.Claim() {
		s.logger.Warn("static: response already sent", "path", msg.Request.URL.Path)
		return
	}
	defer conn.End()

	p := "/" + strings.TrimPrefix(strings.TrimPrefix(msg.Request.URL.Path, s.prefix), "/")

	if relay.IsDotfile(p) {
		switch s.dotfiles {
		case DotfilesDeny:
			writeErrorPage(conn, http.StatusForbidden)
			return
		case DotfilesIgnore:
			writeErrorPage(conn, http.StatusNotFound)
			return
		}
	}

	f, err := s.store.Get(ctx, p)
	if err != nil {
		switch {
		case errors.Is(err, relay.ErrNotFound):
			writeErrorPage(conn, http.StatusNotFound)
		case errors.Is(err, relay.ErrForbidden):
			writeErrorPage(conn, http.StatusForbidden)
		default:
			s.logger.Error("static: lookup failed", "path", p, "error", err)
			writeErrorPage(conn, http.StatusInternalServerError)
		}
		return
	}
	defer func() { _ = f.Close() }()

	h := conn.Header()
	h.Set("Content-Type", f.ContentType)
	h.Set("Cache-Control", "public, max-age="+strconv.FormatInt(int64(s.maxAge/time.Second), 10))
	h.Set("ETag", weakETag(f.Info))

	w := &hookWriter{Connection: conn}
	if s.setHeaders != nil {
		w.hook = func() { s.setHeaders(h, f.Path, f.Info) }
	}

	http.ServeContent(w, msg.Request, f.Path, f.Info.ModTime(), f)
}

func weakETag(info fs.FileInfo) string {
	return `W/"` + strconv.FormatInt(info.Size(), 16) + "-" +
		strconv.FormatInt(info.ModTime().UnixMilli(), 16) + `"`
}

// hookWriter runs hook once, before a successful or 304 status line goes out.
type hookWriter struct {
	*relay.Connection
	hook  func()
	wrote bool
}

func (w *hookWriter) WriteHeader(code int) {
	if !w.wrote {
		w.wrote = true
		if w.hook != nil && (code < http.StatusMultipleChoices || code == http.StatusNotModified) {
			w.hook()
		}
	}
	w.Connection.WriteHeader(code)
}

func (w *hookWriter) Write(p []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.Connection.Write(p)
}
