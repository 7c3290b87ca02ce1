package relay

import (
	"context"
	"net/http"
	"net/url"
)

// TransportHTTP tags messages produced by the HTTP(S) transport.
const TransportHTTP = "http"

// Message is the normalized form of one request/response exchange.
//
// The request side is populated by the transport before the message is
// published; handlers fill in the response side and hand the message back
// to the transport's Send.
type Message struct {
	ID             string
	URL            *url.URL
	Transport      string
	DecodeBy       string
	EncodeBy       string
	RequestHeaders http.Header
	Cookies        map[string]string
	RequestMethod  string
	Request        *http.Request
	Connection     *Connection

	// Response is nil, a string, a []byte or an io.Reader.
	Response           any
	ResponseStatusCode int
	ResponseHeaders    http.Header

	// Sender is the transport that produced the message.
	Sender Sender
}

// Context returns the context of the underlying request.
func (m *Message) Context() context.Context {
	if m.Request == nil {
		return context.Background()
	}
	return m.Request.Context()
}

// StatusCode returns the response status code, defaulting to 200.
func (m *Message) StatusCode() int {
	if m.ResponseStatusCode == 0 {
		return http.StatusOK
	}
	return m.ResponseStatusCode
}

// Key returns the dispatch key the message was published under.
func (m *Message) Key() string {
	if m.URL == nil {
		return DispatchKey(m.RequestMethod, "")
	}
	return DispatchKey(m.RequestMethod, m.URL.EscapedPath())
}

// Reply sends the message through the transport that produced it.
func (m *Message) Reply(ctx context.Context) (*Message, error) {
	if m.Sender == nil {
		return nil, ErrNoSender
	}
	return m.Sender.Send(ctx, m)
}

// Sender serializes a message's response onto its connection.
type Sender interface {
	Send(ctx context.Context, msg *Message) (*Message, error)
}

// Handler consumes messages published on a bus.
type Handler interface {
	Handle(ctx context.Context, msg *Message)
}

// HandlerFunc is an adapter that allows using an ordinary function as a Handler.
type HandlerFunc func(ctx context.Context, msg *Message)

// Handle calls f(ctx, msg).
func (f HandlerFunc) Handle(ctx context.Context, msg *Message) {
	f(ctx, msg)
}
