package auth

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSource reads the token from a file and reloads it when the file changes.
// Surrounding whitespace is trimmed. Writes that leave the file empty are
// ignored, since editors truncate before writing the new content.
type FileSource struct {
	path   string
	logger *slog.Logger

	watcher   *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	watchers  watchers

	mu    sync.RWMutex
	token string
}

// OpenFile reads path and starts watching its directory. A missing file
// yields an empty token until it is created.
func OpenFile(path string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve token file: %w", err)
	}

	f := &FileSource{
		path:   abs,
		logger: logger.With("token_file", abs),
		done:   make(chan struct{}),
	}

	token, err := readToken(abs)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	f.token = token

	// Watch the directory so editors that replace the file are still seen.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch token dir: %w", err)
	}
	f.watcher = watcher

	f.wg.Add(1)
	go f.watchLoop()

	return f, nil
}

// Token returns the last token read.
func (f *FileSource) Token() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.token
}

// Watch registers fn for token changes.
func (f *FileSource) Watch(fn func(string)) func() {
	return f.watchers.add(fn)
}

// Close stops watching.
func (f *FileSource) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.watcher.Close()
		f.wg.Wait()
	})
	return err
}

func (f *FileSource) watchLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				f.reload()
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("token file watcher error", "error", err)
		}
	}
}

func (f *FileSource) reload() {
	token, err := readToken(f.path)
	if err != nil {
		f.logger.Debug("token file unreadable", "error", err)
		return
	}
	if token == "" {
		return
	}

	f.mu.Lock()
	if token == f.token {
		f.mu.Unlock()
		return
	}
	f.token = token
	f.mu.Unlock()

	f.logger.Info("auth token reloaded")
	f.watchers.notify(token)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
