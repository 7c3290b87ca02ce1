package relay

import (
	"net/http"
	"sync"
	"sync/atomic"
)

// Connection is the writable side of one request. It wraps the
// http.ResponseWriter handed out by net/http and records whether headers
// have been flushed, so a response can be emitted at most once.
//
// The transport keeps the request open until End is called or the client
// goes away.
type Connection struct {
	w http.ResponseWriter

	sent    atomic.Bool
	aborted atomic.Bool

	once sync.Once
	done chan struct{}
}

// NewConnection wraps w.
func NewConnection(w http.ResponseWriter) *Connection {
	return &Connection{
		w:    w,
		done: make(chan struct{}),
	}
}

// Header returns the response header map.
func (c *Connection) Header() http.Header {
	return c.w.Header()
}

// WriteHeader writes the status line and headers.
func (c *Connection) WriteHeader(code int) {
	c.sent.Store(true)
	c.w.WriteHeader(code)
}

// Write writes body bytes, flushing headers first if needed.
func (c *Connection) Write(p []byte) (int, error) {
	c.sent.Store(true)
	return c.w.Write(p)
}

// Flush sends any buffered data to the client.
func (c *Connection) Flush() {
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying writer for http.ResponseController.
func (c *Connection) Unwrap() http.ResponseWriter {
	return c.w
}

// HeadersSent reports whether the response has been claimed or written.
func (c *Connection) HeadersSent() bool {
	return c.sent.Load()
}

// Claim marks the connection as responded to. It returns false when
// another writer got there first.
func (c *Connection) Claim() bool {
	return c.sent.CompareAndSwap(false, true)
}

// End releases the request. It is safe to call more than once.
func (c *Connection) End() {
	c.once.Do(func() { close(c.done) })
}

// Abort ends the request and asks the transport to drop the underlying
// connection instead of finishing the response.
func (c *Connection) Abort() {
	c.aborted.Store(true)
	c.End()
}

// Aborted reports whether Abort was called.
func (c *Connection) Aborted() bool {
	return c.aborted.Load()
}

// Done is closed once End or Abort is called.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}
