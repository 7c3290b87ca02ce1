// Package bus implements the in-process event bus transports publish
// requests on.
//
// Subscribers are keyed by dispatch key ("get/users"). A key ending in "*"
// subscribes to a prefix. Emit runs matching handlers synchronously and
// returns how many there were, which lets a transport apply its not-found
// policy when nobody listened.
package bus
