package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/rickgao/sessionlink/internal/model"
)

// Decode parses an inbound frame.
// It returns ErrMalformed for invalid JSON and ErrUnknownType for an
// unrecognised or missing type.
func Decode(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return Message{}, ErrMalformed
	}

	typ := gjson.GetBytes(data, "type")
	if typ.Type != gjson.String {
		return Message{}, fmt.Errorf("%w: missing type", ErrUnknownType)
	}

	switch typ.String() {
	case TypeSidebarUpdate, TypeAgentEvent, TypeSessionEnded, TypeMessageSent:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownType, typ.String())
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	msg.Raw = append(json.RawMessage(nil), data...)

	if msg.Type == TypeSidebarUpdate && hasPayload(msg.Data) {
		var upd SidebarUpdate
		if err := json.Unmarshal(msg.Data, &upd); err != nil {
			return Message{}, fmt.Errorf("%w: sidebar data: %v", ErrMalformed, err)
		}
		msg.Sidebar = &upd
	}

	return msg, nil
}

// SessionStatus extracts a session status transition carried by the frame.
// sidebar_update frames report their status; session_ended frames report
// model.StatusEnded. Other frames report ok=false.
func (m Message) SessionStatus() (sessionID, status string, ok bool) {
	switch m.Type {
	case TypeSidebarUpdate:
		if m.Sidebar == nil || m.Sidebar.SessionID == "" || m.Sidebar.Status == "" {
			return "", "", false
		}
		return m.Sidebar.SessionID, m.Sidebar.Status, true
	case TypeSessionEnded:
		if m.SessionID == "" {
			return "", "", false
		}
		return m.SessionID, model.StatusEnded, true
	}
	return "", "", false
}

func hasPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
