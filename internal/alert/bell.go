package alert

import (
	"context"
	"io"
	"os"
)

// Bell rings the terminal bell.
type Bell struct {
	w   io.Writer
	tty bool
}

// NewBell rings the bell on f. Without a terminal every alert is blocked.
func NewBell(f *os.File) *Bell {
	return &Bell{w: f, tty: isTerminal(f)}
}

func (b *Bell) Name() string { return "sound" }

func (b *Bell) Alert(_ context.Context, _ Event) error {
	if !b.tty {
		return ErrBlocked
	}
	_, err := io.WriteString(b.w, "\a")
	return err
}
