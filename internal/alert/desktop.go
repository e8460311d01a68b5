package alert

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Desktop raises an OS notification through notify-send (Linux) or
// osascript (macOS).
type Desktop struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewDesktop creates a Desktop alerter for the running platform.
func NewDesktop() *Desktop {
	return &Desktop{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

func (d *Desktop) Name() string { return "desktop" }

func (d *Desktop) Alert(ctx context.Context, ev Event) error {
	name, args, err := d.command(ev)
	if err != nil {
		return err
	}
	path, err := d.lookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %s not found", ErrUnsupported, name)
	}
	if err := d.run(ctx, path, args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// AppleScript string literals only treat backslash and double quote as special.
var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func appleScriptString(s string) string {
	return `"` + appleScriptEscaper.Replace(s) + `"`
}

func (d *Desktop) command(ev Event) (string, []string, error) {
	title, body := message(ev)
	switch d.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send", []string{"--app-name=sessionlink", title, body}, nil
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(body), appleScriptString(title))
		return "osascript", []string{"-e", script}, nil
	default:
		return "", nil, ErrUnsupported
	}
}
