package relay

import "errors"

var (
	// ErrConfig is returned when a transport or responder is built from an invalid configuration
	ErrConfig = errors.New("invalid configuration")
	// ErrInvalidState is returned when a lifecycle operation is called in the wrong state
	ErrInvalidState = errors.New("invalid transport state")
	// ErrHeadersSent is returned when a response is sent on a connection that already flushed headers
	ErrHeadersSent = errors.New("response headers are already sent")
	// ErrInvalidResponseType is returned when a message carries a response payload that cannot be serialized
	ErrInvalidResponseType = errors.New("invalid response type")
	// ErrInvalidStatusCode is returned when a message carries a status code outside 100-999
	ErrInvalidStatusCode = errors.New("invalid response status code")
	// ErrNoSender is returned when a message is replied to without a transport attached
	ErrNoSender = errors.New("message has no sender")
	// ErrNoViews is returned when views are added to a transport without a view registry
	ErrNoViews = errors.New("views are not defined")
	// ErrViewNotFound is returned when a view registry has no view with the requested name
	ErrViewNotFound = errors.New("view not found")
	// ErrNotFound is returned when a file does not exist under a static root
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a file exists but may not be served
	ErrForbidden = errors.New("forbidden")
)
