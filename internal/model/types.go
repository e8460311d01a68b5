package model

// Session status values reported by the backend.
const (
	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusWaiting = "waiting"
	StatusEnded   = "ended"
)

// Session is a single agent session as seen on the sidebar.
type Session struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Title  string `json:"title,omitempty"`
}

// IsWaiting reports whether the session is blocked on user input.
func (s Session) IsWaiting() bool {
	return IsWaiting(s.Status)
}

// IsWaiting reports whether status means "waiting for input".
func IsWaiting(status string) bool {
	return status == StatusWaiting
}

// WaitingIDs returns the IDs of all waiting sessions, preserving order.
func WaitingIDs(sessions []Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		if s.IsWaiting() {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
