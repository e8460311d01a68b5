package model

import "testing"

func TestIsWaiting(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusWaiting, true},
		{StatusIdle, false},
		{StatusRunning, false},
		{StatusEnded, false},
		{"", false},
		{"WAITING", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := IsWaiting(tt.status); got != tt.want {
				t.Errorf("IsWaiting(%q) = %v, want %v", tt.status, got, tt.want)
			}
			if got := (Session{Status: tt.status}).IsWaiting(); got != tt.want {
				t.Errorf("Session.IsWaiting() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitingIDs(t *testing.T) {
	sessions := []Session{
		{ID: "a", Status: StatusWaiting},
		{ID: "b", Status: StatusRunning},
		{ID: "c", Status: StatusWaiting},
		{ID: "d", Status: StatusIdle},
	}

	got := WaitingIDs(sessions)
	if len(got) != 2 {
		t.Fatalf("len(WaitingIDs) = %d, want 2", len(got))
	}
	if got[0] != "a" || got[1] != "c" {
		t.Errorf("WaitingIDs = %v, want [a c]", got)
	}

	if got := WaitingIDs(nil); len(got) != 0 {
		t.Errorf("WaitingIDs(nil) = %v, want empty", got)
	}
}
