package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/sagarc03/relay"
)

// Send writes msg's response onto its connection. It is the only way a
// subscriber produces a response, and succeeds at most once per message.
//
// Response may be nil, a string, a []byte or an io.Reader. Readers are
// streamed and closed afterwards when they implement io.Closer. Payloads of
// any other type are rejected before the connection is touched, so the
// caller can still send a corrective response.
func (t *Transport) Send(ctx context.Context, msg *relay.Message) (*relay.Message, error) {
	conn := msg.Connection
	if conn == nil {
		return nil, fmt.Errorf("send: message has no connection: %w", relay.ErrInvalidState)
	}
	if conn.HeadersSent() {
		return nil, relay.ErrHeadersSent
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := msg.StatusCode()
	if status < 100 || status > 999 {
		return nil, fmt.Errorf("%w %d", relay.ErrInvalidStatusCode, status)
	}
	// net/http sends other 1xx codes as interim responses and follows them
	// with its own 200, so they can never be the final status.
	if status < 200 && status != http.StatusSwitchingProtocols {
		return nil, fmt.Errorf("%w %d: informational", relay.ErrInvalidStatusCode, status)
	}

	switch v := msg.Response.(type) {
	case nil, string, []byte, io.Reader:
	default:
		return nil, fmt.Errorf("%w %s", relay.ErrInvalidResponseType, kindOf(v))
	}

	if !conn.Claim() {
		return nil, relay.ErrHeadersSent
	}

	h := conn.Header()
	if msg.Response != nil && msg.EncodeBy != "" && h.Get("Content-Type") == "" {
		h.Set("Content-Type", msg.EncodeBy)
	}
	for k, vv := range msg.ResponseHeaders {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vv...)
	}

	switch body := msg.Response.(type) {
	case nil:
		if relay.BodyAllowed(status) {
			h.Set("Content-Length", "0")
		}
		conn.WriteHeader(status)

	case string:
		if err := t.writeBody(conn, status, []byte(body)); err != nil {
			return nil, err
		}

	case []byte:
		if err := t.writeBody(conn, status, body); err != nil {
			return nil, err
		}

	case io.Reader:
		conn.WriteHeader(status)
		_, err := io.Copy(conn, body)
		if c, ok := body.(io.Closer); ok {
			if closeErr := c.Close(); closeErr != nil {
				t.logger.WarnContext(ctx, "failed to close response stream", "request_id", msg.ID, "error", closeErr)
			}
		}
		if err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
			conn.Abort()
			return nil, fmt.Errorf("send: stream response: %w", err)
		}
	}

	conn.End()
	return msg, nil
}

func (t *Transport) writeBody(conn *relay.Connection, status int, body []byte) error {
	if relay.BodyAllowed(status) {
		conn.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}
	conn.WriteHeader(status)

	if _, err := conn.Write(body); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		conn.Abort()
		return fmt.Errorf("send: write response: %w", err)
	}
	return nil
}

// kindOf names a payload type the way error messages report it.
func kindOf(v any) string {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Func:
		return "function"
	default:
		return "object"
	}
}
