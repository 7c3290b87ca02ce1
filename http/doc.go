// Package http provides the HTTP(S) transport that adapts a relay event bus
// to a network listener.
//
// Every inbound request becomes a *relay.Message, published on the bus under
// its dispatch key: the lower-cased method followed by the escaped path, so
// GET /users/42?x=1 is published as "get/users/42". The request stays open
// until a subscriber replies through Transport.Send (usually via
// msg.Reply), ends the connection itself, or the client goes away.
//
// # Features
//
//   - HTTP or HTTPS on a TCP address or a unix socket
//   - string, []byte and io.Reader responses with exact framing rules
//   - Static file serving mounted on a URL prefix
//   - Named views mounted on GET paths
//   - JSON 404 for requests nobody subscribed to (replaceable)
//   - JSON 400 for requests net/http cannot parse
//   - Configurable CORS support and Prometheus metrics
//
// # Usage
//
//	b := bus.New()
//	t, err := http.New(http.Config{
//	    HTTP: &http.ServerConfig{Listen: http.ListenConfig{Host: "127.0.0.1", Port: 3000}},
//	}, b, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	b.OnFunc("get/string", func(ctx context.Context, msg *relay.Message) {
//	    msg.Response = "RESPONSE"
//	    _, _ = msg.Reply(ctx)
//	})
//
//	addr, err := t.Start(ctx)
//
// # HTTPS
//
// Malformed requests are detected below net/http, which keeps net/http from
// seeing the *tls.Conn. HTTPS listeners therefore speak HTTP/1.1 only and
// requests carry a nil Request.TLS.
package http
