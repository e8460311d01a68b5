package protocol

import (
	"encoding/json"
	"errors"
)

// Errors
var (
	ErrMalformed   = errors.New("malformed frame")
	ErrUnknownType = errors.New("unknown frame type")
)

// Outbound frame types.
const (
	TypeAuth        = "auth"
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeMessage     = "message"
)

// Inbound frame types.
const (
	TypeSidebarUpdate = "sidebar_update"
	TypeAgentEvent    = "agent_event"
	TypeSessionEnded  = "session_ended"
	TypeMessageSent   = "message_sent"
)

// AuthFrame confirms the bearer token after the socket opens.
type AuthFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// ChannelFrame subscribes to or unsubscribes from a server-side channel.
type ChannelFrame struct {
	Type    string `json:"type"` // "subscribe" or "unsubscribe"
	Channel string `json:"channel"`
	ID      string `json:"id"`
}

// ChatFrame sends user input to a session.
type ChatFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

// Auth builds an auth frame.
func Auth(token string) AuthFrame {
	return AuthFrame{Type: TypeAuth, Token: token}
}

// Subscribe builds a channel subscribe frame.
func Subscribe(channel, id string) ChannelFrame {
	return ChannelFrame{Type: TypeSubscribe, Channel: channel, ID: id}
}

// Unsubscribe builds a channel unsubscribe frame.
func Unsubscribe(channel, id string) ChannelFrame {
	return ChannelFrame{Type: TypeUnsubscribe, Channel: channel, ID: id}
}

// Chat builds a chat message frame.
func Chat(sessionID, content string) ChatFrame {
	return ChatFrame{Type: TypeMessage, SessionID: sessionID, Content: content}
}

// SidebarUpdate is the optional payload of a sidebar_update frame.
type SidebarUpdate struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// Message is a decoded inbound frame.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`

	// Sidebar is set for sidebar_update frames that carry data.
	Sidebar *SidebarUpdate `json:"-"`

	// Raw holds the frame exactly as received.
	Raw json.RawMessage `json:"-"`
}
