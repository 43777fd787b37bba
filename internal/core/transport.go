// Package core declares the seams between the chat engine and its adapters.
package core

import "errors"

var ErrBackpressure = errors.New("backpressure")

// Frame is one outbound payload, already encoded for the wire.
type Frame []byte

// Transport is the per-connection handle the router pushes frames through.
// Owned by the session that holds it; the adapter must Close() it.
// TrySend never blocks: a full or closed connection returns an error and the
// frame is dropped.
type Transport interface {
	TrySend(Frame) error
	Close()
}
