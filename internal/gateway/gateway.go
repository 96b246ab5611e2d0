// Package gateway exposes the assistant to the outside: an HTTP/websocket
// API the UI polls and triggers through, and notifier channels (Telegram)
// that push task outcomes to the operator.
package gateway

import "context"

// Triggerer runs one analysis pass over the current transcript.
type Triggerer interface {
	Trigger(ctx context.Context) (string, error)
}

// Saver forces a durable transcript write and returns its reference.
type Saver interface {
	SaveNow(ctx context.Context) (string, error)
}
