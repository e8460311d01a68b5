// Package alert implements the side effects of a waiting-session notification:
// a terminal bell, an OS desktop notification and a terminal title indicator.
//
// Every alert is best effort. Failures are returned for logging and never
// block the others.
package alert

import (
	"context"
	"errors"
	"os"

	"github.com/mattn/go-isatty"
)

// Errors
var (
	ErrBlocked     = errors.New("alert blocked: no terminal attached")
	ErrUnsupported = errors.New("alert unsupported on this platform")
)

// Event describes one session that started waiting for input.
type Event struct {
	SessionID string
	Title     string // Session title, may be empty
}

// Alerter fires one notification side effect.
type Alerter interface {
	Name() string
	Alert(ctx context.Context, ev Event) error
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// message returns the notification title and body for ev.
func message(ev Event) (title, body string) {
	title = "Session waiting for input"
	body = ev.SessionID
	if ev.Title != "" {
		body = ev.Title
	}
	return title, body
}
