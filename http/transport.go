package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sagarc03/relay"
	"github.com/sagarc03/relay/bus"
	"github.com/sagarc03/relay/observability"
	"github.com/sagarc03/relay/view"
)

// Bus is the part of an event bus the transport publishes on.
type Bus interface {
	On(key string, h relay.Handler) bus.Subscription
	Emit(ctx context.Context, key string, msg *relay.Message) int
}

type state int

const (
	stateInitialized state = iota
	stateListening
	stateStopped
)

// Transport adapts an event bus to an HTTP(S) listener. Every request is
// published on the bus as a *relay.Message under its dispatch key and held
// open until a subscriber replies through Send.
type Transport struct {
	cfg       *ServerConfig
	scheme    string
	tlsConfig *tls.Config

	bus         Bus
	views       view.Registry
	logger      *slog.Logger
	notFound    relay.Handler
	metrics     *observability.Metrics
	metricsPath string
	middlewares []func(http.Handler) http.Handler

	server *http.Server

	mu       sync.Mutex
	state    state
	baseURL  *url.URL
	address  string
	serveErr chan error
	routes   []string
	closers  []io.Closer
}

// New validates cfg and builds a transport publishing on b. views may be
// nil, in which case AddView fails with relay.ErrNoViews.
func New(cfg Config, b Bus, views view.Registry, opts ...Option) (*Transport, error) {
	if b == nil {
		return nil, fmt.Errorf("new transport: bus is required: %w", relay.ErrConfig)
	}

	t := &Transport{
		bus:      b,
		views:    views,
		logger:   slog.Default(),
		notFound: relay.HandlerFunc(NotFound),
	}

	switch {
	case cfg.HTTP != nil && cfg.HTTPS != nil:
		return nil, fmt.Errorf("new transport: both http and https settings were provided: %w", relay.ErrConfig)
	case cfg.HTTPS != nil:
		t.cfg = cfg.HTTPS
		t.scheme = "https"
	case cfg.HTTP != nil:
		t.cfg = cfg.HTTP
		t.scheme = "http"
	default:
		return nil, fmt.Errorf("new transport: no settings were provided for http/https: %w", relay.ErrConfig)
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.scheme == "https" {
		tlsConfig, err := loadTLSConfig(t.cfg.Server)
		if err != nil {
			return nil, fmt.Errorf("new transport: %w", err)
		}
		t.tlsConfig = tlsConfig
	}

	opt := t.cfg.Server
	t.server = &http.Server{
		Handler:           otelhttp.NewHandler(t.router(), "relay"),
		ReadTimeout:       opt.ReadTimeout,
		ReadHeaderTimeout: opt.ReadHeaderTimeout,
		WriteTimeout:      opt.WriteTimeout,
		IdleTimeout:       opt.IdleTimeout,
		MaxHeaderBytes:    opt.MaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(t.logger.Handler(), slog.LevelError),
	}

	if t.cfg.Static != nil {
		if err := t.AddStatic(*t.cfg.Static); err != nil {
			return nil, fmt.Errorf("new transport: %w", err)
		}
	}

	return t, nil
}

func loadTLSConfig(opt ServerOptions) (*tls.Config, error) {
	var tlsConfig *tls.Config
	switch {
	case opt.TLSConfig != nil:
		tlsConfig = opt.TLSConfig.Clone()
	case opt.CertFile != "" && opt.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(opt.CertFile, opt.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load key pair: %w: %w", relay.ErrConfig, err)
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	default:
		return nil, fmt.Errorf("https requires cert_file and key_file: %w", relay.ErrConfig)
	}

	// The client error listener hides *tls.Conn from net/http, which
	// rules out h2.
	tlsConfig.NextProtos = []string{"http/1.1"}
	return tlsConfig, nil
}

func (t *Transport) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if t.cfg.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   t.cfg.CORS.AllowedOrigins,
			AllowedMethods:   t.cfg.CORS.AllowedMethods,
			AllowedHeaders:   t.cfg.CORS.AllowedHeaders,
			ExposedHeaders:   t.cfg.CORS.ExposedHeaders,
			AllowCredentials: t.cfg.CORS.AllowCredentials,
			MaxAge:           t.cfg.CORS.MaxAge,
		}))
	}

	r.Use(t.metrics.Middleware)
	r.Use(t.middlewares...)

	if t.metrics != nil && t.metricsPath != "" {
		r.Method(http.MethodGet, t.metricsPath, t.metrics.Handler())
	}

	r.HandleFunc("/*", t.request)
	// chi answers methods it does not know with 405; dispatch them too.
	r.MethodNotAllowed(t.request)

	return r
}

// Start binds the configured address and starts serving. It returns the
// base URL of the listener, or the socket path for unix sockets.
func (t *Transport) Start(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != stateInitialized {
		return "", fmt.Errorf("start: %w", relay.ErrInvalidState)
	}

	network, address := "tcp", net.JoinHostPort(t.cfg.Listen.Host, strconv.Itoa(t.cfg.Listen.Port))
	if t.cfg.Listen.Path != "" {
		network, address = "unix", t.cfg.Listen.Path
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, network, address)
	if err != nil {
		return "", fmt.Errorf("start: %w", err)
	}

	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		t.baseURL = &url.URL{
			Scheme: t.scheme,
			Host:   net.JoinHostPort(tcp.IP.String(), strconv.Itoa(tcp.Port)),
		}
		t.address = t.baseURL.String()
	} else {
		t.baseURL = nil
		t.address = ln.Addr().String()
	}

	if t.tlsConfig != nil {
		ln = tls.NewListener(ln, t.tlsConfig)
	}
	ln = &clientErrorListener{Listener: ln, onError: t.clientError}

	serveErr := make(chan error, 1)
	t.serveErr = serveErr
	t.state = stateListening

	go func() {
		err := t.server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("transport stopped serving", "address", t.address, "error", err)
			serveErr <- err
		}
		close(serveErr)
	}()

	t.logger.Info("transport listening", "address", t.address)
	return t.address, nil
}

// Stop gracefully shuts the listener down. It is a no-op unless the
// transport is listening. ctx bounds how long in-flight requests may drain.
func (t *Transport) Stop(ctx context.Context) error {
	t.mu.Lock()
	if t.state != stateListening {
		t.mu.Unlock()
		return nil
	}
	t.state = stateStopped
	t.mu.Unlock()

	err := t.server.Shutdown(ctx)
	if closeErr := t.Close(); closeErr != nil {
		t.logger.Warn("failed to release static roots", "error", closeErr)
	}
	if err != nil {
		return fmt.Errorf("stop: %w", err)
	}

	t.logger.Info("transport stopped", "address", t.address)
	return nil
}

// Close releases the directories opened for static mounts. Stop calls it;
// a transport that was never started must be closed directly.
func (t *Transport) Close() error {
	t.mu.Lock()
	closers := t.closers
	t.closers = nil
	t.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Err returns a channel that yields the error that made the listener stop
// serving, if any, and is closed once it stops. It is nil before Start.
func (t *Transport) Err() <-chan error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.serveErr
}

// Address returns what Start returned, or "" before Start.
func (t *Transport) Address() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.address
}

// Routes returns the dispatch keys the transport subscribed itself.
func (t *Transport) Routes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.routes...)
}

func (t *Transport) subscribe(key string, h relay.Handler) {
	t.bus.On(key, h)

	t.mu.Lock()
	t.routes = append(t.routes, key)
	t.mu.Unlock()
}

func (t *Transport) request(w http.ResponseWriter, r *http.Request) {
	conn := relay.NewConnection(w)
	u := t.resolveURL(r)

	msg := &relay.Message{
		ID:             requestID(r),
		URL:            u,
		Transport:      relay.TransportHTTP,
		DecodeBy:       r.Header.Get("Content-Type"),
		EncodeBy:       r.Header.Get("Accept"),
		RequestHeaders: r.Header,
		RequestMethod:  strings.ToLower(r.Method),
		Request:        r,
		Connection:     conn,
		Sender:         t,
	}
	if cookies := r.Header.Values("Cookie"); len(cookies) > 0 {
		msg.Cookies = ParseCookies(strings.Join(cookies, "; "))
	}

	ctx := r.Context()
	key := relay.DispatchKey(r.Method, u.EscapedPath())

	n := t.bus.Emit(ctx, key, msg)
	t.metrics.Dispatched(n)
	if n == 0 {
		t.logger.DebugContext(ctx, "no subscriber", "key", key, "request_id", msg.ID)
		t.notFound.Handle(ctx, msg)
	}

	select {
	case <-conn.Done():
	case <-ctx.Done():
		t.logger.DebugContext(ctx, "client went away before reply", "key", key, "request_id", msg.ID)
	}

	// Late replies must not touch a finished response.
	conn.Claim()

	if conn.Aborted() {
		panic(http.ErrAbortHandler)
	}
}

func (t *Transport) resolveURL(r *http.Request) *url.URL {
	base := t.baseURL
	if base == nil {
		host := r.Host
		if host == "" {
			host = "localhost"
		}
		base = &url.URL{Scheme: t.scheme, Host: host}
	}

	ref := &url.URL{
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
	return base.ResolveReference(ref)
}

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

func (t *Transport) clientError(status string, remote net.Addr) {
	t.metrics.ClientError()
	t.logger.Warn("client error", "status", status, "remote", remote.String())
}
