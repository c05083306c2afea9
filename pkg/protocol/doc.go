// Package protocol defines the wire shapes exchanged between the relay and
// its clients: inbound send requests, relayed messages, and the online
// roster broadcast. Liveness probing uses websocket control frames and has
// no JSON shape here.
package protocol
