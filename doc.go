// Package relay provides the message model shared by relay's transports,
// bus and responders.
//
// A transport turns each incoming request into a Message, publishes it on a
// bus under its dispatch key (lower-cased method followed by the URL path)
// and keeps the request open until a subscriber replies through the
// message's Sender or the client goes away.
//
// # Key Components
//
//   - Message: normalized request/response pair
//   - Connection: single-shot response writer with completion signalling
//   - Handler: bus subscriber interface
//   - Sender: serializes a message's response onto its connection
//
// # Example Usage
//
//	b := bus.New()
//	b.OnFunc("get/hello", func(ctx context.Context, msg *relay.Message) {
//	    msg.Response = "hello"
//	    if _, err := msg.Reply(ctx); err != nil {
//	        slog.Error("reply failed", "error", err)
//	    }
//	})
//
// # Dispatch Keys
//
// A subscription key ending in "*" matches every dispatch key sharing its
// prefix, so "get/static/*" receives "get/static/css/site.css".
package relay
