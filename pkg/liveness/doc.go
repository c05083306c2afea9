// Package liveness detects silently-dead connections through active
// heartbeat probing.
//
// Each connection gets its own Monitor running the state machine
//
//	Alive -> AwaitingPong -> (Alive | Dead)
//
// On a fixed interval the monitor sends a ping control frame and starts a
// bounded wait for the matching pong. A pong in time returns the state to
// Alive; an expired wait transitions to Dead, which is terminal: the
// monitor stops its timers, force-closes the transport and fires the
// caller's death callback exactly once.
//
// Transport-level disconnects are not always observable (half-open
// connections survive peer crashes and network partitions), so liveness is
// probed rather than inferred from close events. The ack wait must be
// strictly shorter than the probe interval so wait cycles never overlap.
package liveness
