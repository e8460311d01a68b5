package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantType  string
		wantErr   error
		wantSide  bool
		sessionID string
	}{
		{
			name:     "sidebar update with data",
			data:     `{"type":"sidebar_update","data":{"sessionId":"s1","status":"waiting"}}`,
			wantType: TypeSidebarUpdate,
			wantSide: true,
		},
		{
			name:     "sidebar update without data",
			data:     `{"type":"sidebar_update"}`,
			wantType: TypeSidebarUpdate,
		},
		{
			name:     "sidebar update with null data",
			data:     `{"type":"sidebar_update","data":null}`,
			wantType: TypeSidebarUpdate,
		},
		{
			name:      "agent event",
			data:      `{"type":"agent_event","sessionId":"s2","data":{"kind":"tool_use","n":3}}`,
			wantType:  TypeAgentEvent,
			sessionID: "s2",
		},
		{
			name:      "session ended",
			data:      `{"type":"session_ended","sessionId":"s3"}`,
			wantType:  TypeSessionEnded,
			sessionID: "s3",
		},
		{
			name:     "message sent",
			data:     `{"type":"message_sent"}`,
			wantType: TypeMessageSent,
		},
		{
			name:    "invalid json",
			data:    `{not valid json`,
			wantErr: ErrMalformed,
		},
		{
			name:    "unknown type",
			data:    `{"type":"bogus"}`,
			wantErr: ErrUnknownType,
		},
		{
			name:    "missing type",
			data:    `{"sessionId":"s1"}`,
			wantErr: ErrUnknownType,
		},
		{
			name:    "non-string type",
			data:    `{"type":42}`,
			wantErr: ErrUnknownType,
		},
		{
			name:    "sidebar data wrong shape",
			data:    `{"type":"sidebar_update","data":"oops"}`,
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}
			if msg.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", msg.Type, tt.wantType)
			}
			if (msg.Sidebar != nil) != tt.wantSide {
				t.Errorf("Sidebar set = %v, want %v", msg.Sidebar != nil, tt.wantSide)
			}
			if msg.SessionID != tt.sessionID {
				t.Errorf("SessionID = %q, want %q", msg.SessionID, tt.sessionID)
			}
			if string(msg.Raw) != tt.data {
				t.Errorf("Raw = %s, want %s", msg.Raw, tt.data)
			}
		})
	}
}

func TestDecode_AgentEventPayloadIsOpaque(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"agent_event","sessionId":"s1","data":{"nested":{"x":[1,2]}}}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if _, ok := payload["nested"]; !ok {
		t.Errorf("payload = %v, want nested key", payload)
	}
}

func TestMessage_SessionStatus(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantID     string
		wantStatus string
		wantOK     bool
	}{
		{"sidebar waiting", `{"type":"sidebar_update","data":{"sessionId":"s1","status":"waiting"}}`, "s1", "waiting", true},
		{"sidebar without data", `{"type":"sidebar_update"}`, "", "", false},
		{"sidebar missing status", `{"type":"sidebar_update","data":{"sessionId":"s1"}}`, "", "", false},
		{"session ended", `{"type":"session_ended","sessionId":"s2"}`, "s2", "ended", true},
		{"agent event", `{"type":"agent_event","sessionId":"s3","data":{}}`, "", "", false},
		{"message sent", `{"type":"message_sent"}`, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.data))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			id, status, ok := msg.SessionStatus()
			if id != tt.wantID || status != tt.wantStatus || ok != tt.wantOK {
				t.Errorf("SessionStatus() = (%q, %q, %v), want (%q, %q, %v)",
					id, status, ok, tt.wantID, tt.wantStatus, tt.wantOK)
			}
		})
	}
}

func TestOutboundFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame any
		want  string
	}{
		{"auth", Auth("tok"), `{"type":"auth","token":"tok"}`},
		{"subscribe", Subscribe("session", "s1"), `{"type":"subscribe","channel":"session","id":"s1"}`},
		{"unsubscribe", Unsubscribe("session", "s1"), `{"type":"unsubscribe","channel":"session","id":"s1"}`},
		{"chat", Chat("s1", "hello"), `{"type":"message","sessionId":"s1","content":"hello"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.frame)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}
