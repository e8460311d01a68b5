package auth

import (
	"sync"
)

// Source provides the current auth token. An empty token means signed out.
type Source interface {
	// Token returns the current token.
	Token() string

	// Watch calls fn with each new token until cancel is called.
	Watch(fn func(token string)) (cancel func())
}

// TokenSetter receives token changes. connection.Manager satisfies it.
type TokenSetter interface {
	SetToken(token string)
}

// Bind pushes the current token into dst and forwards every change.
func Bind(src Source, dst TokenSetter) (cancel func()) {
	cancel = src.Watch(dst.SetToken)
	dst.SetToken(src.Token())
	return cancel
}

// watchers is a set of change callbacks.
type watchers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(string)
}

func (w *watchers) add(fn func(string)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fns == nil {
		w.fns = make(map[int]func(string))
	}
	id := w.nextID
	w.nextID++
	w.fns[id] = fn

	return func() {
		w.mu.Lock()
		delete(w.fns, id)
		w.mu.Unlock()
	}
}

func (w *watchers) notify(token string) {
	w.mu.Lock()
	fns := make([]func(string), 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(token)
	}
}

// Static is a token that changes only through Set.
type Static struct {
	mu       sync.RWMutex
	token    string
	watchers watchers
}

// NewStatic creates a Static source.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// Token returns the current token.
func (s *Static) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Watch registers fn for token changes.
func (s *Static) Watch(fn func(string)) func() {
	return s.watchers.add(fn)
}

// Set replaces the token and notifies watchers if it changed.
func (s *Static) Set(token string) {
	s.mu.Lock()
	if token == s.token {
		s.mu.Unlock()
		return
	}
	s.token = token
	s.mu.Unlock()

	s.watchers.notify(token)
}
