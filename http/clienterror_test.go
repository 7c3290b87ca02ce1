package http

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerError(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		status string
		ok     bool
	}{
		{
			name:   "bad request",
			in:     "HTTP/1.1 400 Bad Request" + serverErrorHeaders + "400 Bad Request",
			status: "400 Bad Request",
			ok:     true,
		},
		{
			name:   "bad request with reason",
			in:     "HTTP/1.1 400 Bad Request: missing required Host header" + serverErrorHeaders + "400 Bad Request: missing required Host header",
			status: "400 Bad Request: missing required Host header",
			ok:     true,
		},
		{
			name:   "headers too large",
			in:     "HTTP/1.1 431 Request Header Fields Too Large" + serverErrorHeaders + "431 Request Header Fields Too Large",
			status: "431 Request Header Fields Too Large",
			ok:     true,
		},
		{
			name: "regular response",
			in:   "HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Type: text/plain; charset=utf-8\r\nDate: x\r\n\r\nok",
		},
		{
			name: "regular response with sniffed type",
			in:   "HTTP/1.1 400 Bad Request\r\nContent-Type: text/plain; charset=utf-8\r\nConnection: close\r\nDate: x\r\n\r\n",
		},
		{name: "body chunk", in: "hello world"},
		{name: "no line break", in: "HTTP/1.1 400 Bad Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, ok := parseServerError([]byte(tt.in))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestClientErrorConn_Write(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	var got string
	conn := &clientErrorConn{Conn: server, onError: func(status string, _ net.Addr) { got = status }}

	in := []byte("HTTP/1.1 400 Bad Request" + serverErrorHeaders + "400 Bad Request")
	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, len(clientErrorResponse))
		n, _ := client.Read(buf)
		done <- buf[:n]
	}()

	n, err := conn.Write(in)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.Equal(t, "400 Bad Request", got)
	assert.Equal(t, string(clientErrorResponse), string(<-done))
	require.NoError(t, server.Close())
}
