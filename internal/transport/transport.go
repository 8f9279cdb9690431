// Package transport is the boundary to the third-party service that carries
// mail off the platform. The delivery router only sees the Transport
// interface; failures are recorded on the message, never propagated to the
// sender.
package transport

import "context"

// Transport delivers a message to external recipients. Implementations must
// honor the context deadline set by the caller.
type Transport interface {
	Send(ctx context.Context, from string, recipients []string, subject, body string) error
}
