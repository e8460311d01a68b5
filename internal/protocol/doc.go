// Package protocol defines the JSON frame vocabulary spoken over the realtime socket.
//
// Every frame is a JSON object with a "type" discriminator.
//
// Outbound (client → server):
//   - auth: {type, token}
//   - subscribe / unsubscribe: {type, channel, id}
//   - message: {type, sessionId, content}
//
// Inbound (server → client):
//   - sidebar_update: {type, data?: {sessionId, status}}
//   - agent_event: {type, sessionId, data}
//   - session_ended: {type, sessionId}
//   - message_sent: {type}
//
// Frames that are not valid JSON or carry an unknown type are rejected by Decode.
package protocol
