// Package auth supplies the bearer token used for the realtime handshake and
// REST polling.
//
// A Source reports the current token and notifies watchers when it changes.
// Bind forwards changes into the connection manager so a new token forces a
// fresh authenticated handshake.
package auth
