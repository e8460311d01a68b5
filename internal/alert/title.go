package alert

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Title shows the number of waiting sessions in the terminal title.
type Title struct {
	base string

	mu   sync.Mutex
	w    io.Writer
	tty  bool
	last int
}

// NewTitle writes title escapes to f. base is the title with nothing waiting.
func NewTitle(f *os.File, base string) *Title {
	return &Title{w: f, tty: isTerminal(f), base: base, last: -1}
}

// SetWaiting updates the indicator. Unchanged counts are not rewritten.
func (t *Title) SetWaiting(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.tty {
		return ErrBlocked
	}
	if n == t.last {
		return nil
	}

	text := t.base
	if n > 0 {
		text = fmt.Sprintf("(%d) %s", n, t.base)
	}
	// OSC 0: set icon name and window title.
	if _, err := fmt.Fprintf(t.w, "\x1b]0;%s\a", text); err != nil {
		return err
	}
	t.last = n
	return nil
}
