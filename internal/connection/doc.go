// Package connection implements the shared realtime Connection Manager.
//
// The Connection Manager:
//   - Multiplexes one physical WebSocket across any number of in-process subscribers
//   - Opens the socket while at least one subscriber is registered, closes it at zero
//   - Fans inbound frames out to every subscriber in registration order
//   - Reconnects with exponential backoff using a policy aggregated from all subscribers
//   - Forces a fresh handshake when the auth token changes
//
// All state is owned by a single event-loop goroutine. Public methods enqueue work
// on that loop and subscriber callbacks run on it, so callbacks must not block.
package connection
