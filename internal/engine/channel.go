// Package engine manages the lifecycle of the background wallet engine: the
// external process that owns key derivation, signing, and chain RPC. Lantern
// talks to it through a request/response channel and keeps exactly one engine
// per process.
package engine

import (
	"context"
)

// Engine method names.
const (
	MethodStart                 = "start"
	MethodStop                  = "stop"
	MethodInitializeCredentials = "initializeCredentials"
	MethodGetAddresses          = "getAddresses"
	MethodGetBalances           = "getBalances"
	MethodGetTransactions       = "getTransactions"
)

// Channel is the request/response transport to a running engine.
//
// Call issues one engine method. The returned pointer is the engine's raw
// result payload: nil when the engine sent no result, otherwise a
// JSON-encoded string to be decoded with ParseResult. Call is awaited without
// a deadline by the core; callers that need one impose it via ctx.
type Channel interface {
	Call(ctx context.Context, method, network string, accountIndex int, args *string) (*string, error)
	Close() error
}

// DialFunc constructs a fresh channel to a (possibly newly launched) engine.
type DialFunc func(ctx context.Context) (Channel, error)
