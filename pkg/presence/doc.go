// Package presence tracks the set of currently connected, identity-bound
// clients.
//
// The package is organized around two types:
//
// Client represents an individual connected peer with methods for:
// - Accessing connection id, bound identity and the WebSocket connection
// - Queueing outbound payloads for its writer goroutine
// - Closing and checking connection status
//
// Registry is the authoritative roster with methods for:
// - Registering and deregistering clients (idempotent, race tolerant)
// - Looking up every live connection of a user for fan-out
// - Snapshotting the online roster for broadcast
//
// All Registry operations are serialized through an RWMutex: concurrent
// register/deregister from different connections' goroutines is the common
// case and a connection mid-teardown is never exposed to readers.
package presence
