package static_test

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sagarc03/relay"
	"github.com/sagarc03/relay/static"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func serve(t *testing.T, h relay.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	conn := relay.NewConnection(rec)
	msg := &relay.Message{
		Request:       req,
		Connection:    conn,
		RequestMethod: req.Method,
	}

	h.Handle(req.Context(), msg)

	select {
	case <-conn.Done():
	default:
		t.Fatal("responder did not end the connection")
	}
	return rec
}

func newResponder(t *testing.T, cfg static.Config) relay.Handler {
	t.Helper()
	h, err := static.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.(io.Closer).Close() })
	return h
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "file.txt", "x")

	tests := []struct {
		name string
		cfg  static.Config
	}{
		{name: "missing root", cfg: static.Config{URL: "/static"}},
		{name: "root does not exist", cfg: static.Config{Root: filepath.Join(dir, "nope")}},
		{name: "root is a file", cfg: static.Config{Root: filepath.Join(dir, "file.txt")}},
		{name: "bad dotfiles", cfg: static.Config{Root: dir, Dotfiles: "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := static.New(tt.cfg)
			assert.ErrorIs(t, err, relay.ErrConfig)
		})
	}
}

func TestResponder_ServesFile(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "test.txt", "hello static")

	h := newResponder(t, static.Config{URL: "/static", Root: dir, MaxAge: time.Hour})

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/static/test.txt", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello static", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Regexp(t, `^W/"[0-9a-f]+-[0-9a-f]+"$`, rec.Header().Get("ETag"))
	assert.NotEmpty(t, rec.Header().Get("Last-Modified"))
}

func TestResponder_Head(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "test.txt", "hello static")

	h := newResponder(t, static.Config{URL: "/static", Root: dir})

	rec := serve(t, h, httptest.NewRequest(http.MethodHead, "/static/test.txt", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "12", rec.Header().Get("Content-Length"))
}

func TestResponder_ConditionalGet(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "test.txt", "hello static")

	h := newResponder(t, static.Config{URL: "/static", Root: dir})

	first := serve(t, h, httptest.NewRequest(http.MethodGet, "/static/test.txt", nil))
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/static/test.txt", nil)
	req.Header.Set("If-None-Match", etag)
	rec := serve(t, h, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestResponder_Range(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "test.txt", "0123456789")

	h := newResponder(t, static.Config{URL: "/static", Root: dir})

	req := httptest.NewRequest(http.MethodGet, "/static/test.txt", nil)
	req.Header.Set("Range", "bytes=2-4")
	rec := serve(t, h, req)

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "234", rec.Body.String())
}

func TestResponder_Paths(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "index.html", "<p>home</p>")
	writeTestFile(t, dir, "docs/index.html", "<p>docs</p>")
	writeTestFile(t, dir, ".env", "SECRET=1")
	writeTestFile(t, dir, ".well-known/security.txt", "contact")

	tests := []struct {
		name     string
		dotfiles static.DotfilesPolicy
		path     string
		status   int
		body     string
	}{
		{name: "prefix root serves index", path: "/static/", status: http.StatusOK, body: "<p>home</p>"},
		{name: "subdir index", path: "/static/docs/", status: http.StatusOK, body: "<p>docs</p>"},
		{name: "missing", path: "/static/missing.txt", status: http.StatusNotFound},
		{name: "traversal stays inside root", path: "/static/../../etc/passwd", status: http.StatusNotFound},
		{name: "dotfile ignored by default", path: "/static/.env", status: http.StatusNotFound},
		{name: "dot dir ignored", path: "/static/.well-known/security.txt", status: http.StatusNotFound},
		{name: "dotfile denied", dotfiles: static.DotfilesDeny, path: "/static/.env", status: http.StatusForbidden},
		{name: "dotfile allowed", dotfiles: static.DotfilesAllow, path: "/static/.env", status: http.StatusOK, body: "SECRET=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newResponder(t, static.Config{URL: "/static/", Root: dir, Dotfiles: tt.dotfiles})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tt.path
			rec := serve(t, h, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
			if tt.status >= 400 {
				assert.Contains(t, rec.Body.String(), http.StatusText(tt.status))
				assert.Empty(t, rec.Header().Get("ETag"))
			}
		})
	}
}

func TestResponder_SetHeaders(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "app.js", "console.log(1)")

	var (
		gotPath string
		gotSize int64
	)
	h := newResponder(t, static.Config{
		URL:  "/assets",
		Root: dir,
		SetHeaders: func(h http.Header, path string, info fs.FileInfo) {
			gotPath = path
			gotSize = info.Size()
			h.Set("X-Served-By", "relay")
			h.Set("Cache-Control", "no-store")
		},
	})

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "app.js", gotPath)
	assert.Equal(t, int64(14), gotSize)
	assert.Equal(t, "relay", rec.Header().Get("X-Served-By"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestResponder_SetHeadersOnNotModified(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "app.js", "console.log(1)")

	calls := 0
	h := newResponder(t, static.Config{
		URL:  "/assets",
		Root: dir,
		SetHeaders: func(h http.Header, _ string, _ fs.FileInfo) {
			calls++
			h.Set("Access-Control-Allow-Origin", "*")
		},
	})

	first := serve(t, h, httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "*", first.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/assets/app.js", nil)
	req.Header.Set("If-None-Match", first.Header().Get("ETag"))
	rec := serve(t, h, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 2, calls)
}

func TestResponder_SetHeadersSkippedOnError(t *testing.T) {
	dir := t.TempDir()

	calls := 0
	h := newResponder(t, static.Config{
		Root:       dir,
		SetHeaders: func(http.Header, string, fs.FileInfo) { calls++ },
	})

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/missing.js", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, calls)
}

func TestResponder_Close(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "test.txt", "x")

	h := newResponder(t, static.Config{Root: dir})
	closer, ok := h.(io.Closer)
	require.True(t, ok)

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/test.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, closer.Close())

	rec = serve(t, h, httptest.NewRequest(http.MethodGet, "/test.txt", nil))
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestResponder_AlreadySent(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "test.txt", "x")

	h := newResponder(t, static.Config{Root: dir})

	rec := httptest.NewRecorder()
	conn := relay.NewConnection(rec)
	require.True(t, conn.Claim())

	req := httptest.NewRequest(http.MethodGet, "/test.txt", nil)
	h.Handle(context.Background(), &relay.Message{Request: req, Connection: conn})

	assert.Empty(t, rec.Body.String())
}
