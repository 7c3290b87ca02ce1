package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"strconv"
)

// net/http answers requests it cannot parse by writing a canned plain text
// response straight to the connection, bypassing every handler. These are
// the fixed parts of that response.
const (
	serverErrorPrefix  = "HTTP/1.1 "
	serverErrorHeaders = "\r\nContent-Type: text/plain; charset=utf-8\r\nConnection: close\r\n\r\n"
)

var clientErrorResponse = func() []byte {
	body, err := json.Marshal(ErrorResponse{
		Error:      "Bad Request",
		Message:    "Client Error",
		StatusCode: 400,
	})
	if err != nil {
		panic(err)
	}
	return []byte("HTTP/1.1 400 Bad Request\r\nContent-Length: " + strconv.Itoa(len(body)) +
		"\r\nContent-Type: application/json\r\n\r\n" + string(body))
}()

// clientErrorListener replaces net/http's malformed request responses with
// a framed JSON 400.
type clientErrorListener struct {
	net.Listener
	onError func(status string, remote net.Addr)
}

func (l *clientErrorListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &clientErrorConn{Conn: c, onError: l.onError}, nil
}

type clientErrorConn struct {
	net.Conn
	onError func(status string, remote net.Addr)
}

func (c *clientErrorConn) Write(p []byte) (int, error) {
	status, ok := parseServerError(p)
	if !ok {
		return c.Conn.Write(p)
	}

	if c.onError != nil {
		c.onError(status, c.RemoteAddr())
	}
	if _, err := c.Conn.Write(clientErrorResponse); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReadFrom keeps sendfile and splice available to response bodies.
func (c *clientErrorConn) ReadFrom(r io.Reader) (int64, error) {
	return io.Copy(c.Conn, r)
}

// CloseWrite lets net/http half-close before draining a rejected request.
func (c *clientErrorConn) CloseWrite() error {
	if cw, ok := c.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

// parseServerError reports whether p is one of net/http's canned error
// responses and returns its status text.
func parseServerError(p []byte) (string, bool) {
	if !bytes.HasPrefix(p, []byte(serverErrorPrefix)) {
		return "", false
	}
	end := bytes.Index(p, []byte("\r\n"))
	if end < 0 || !bytes.HasPrefix(p[end:], []byte(serverErrorHeaders)) {
		return "", false
	}
	return string(p[len(serverErrorPrefix):end]), true
}
