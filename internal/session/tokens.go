// Package session owns the client's bearer token: its in-memory copy, its
// durable storage and the auth endpoint calls that create it.
package session

import (
	"context"
	"fmt"
	"sync"
)

// Tokens is the single live copy of the bearer token for this client.  Only
// the session Store writes it; the HTTP client reads it and clears it when
// the backend answers 401.
type Tokens struct {
	mu        sync.RWMutex
	token     string
	storage   Storage
	listeners map[int]func(present bool)
	nextID    int
}

// OpenTokens reads any persisted token from storage.
func OpenTokens(ctx context.Context, storage Storage) (*Tokens, error) {
	token, err := storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	return &Tokens{token: token, storage: storage, listeners: map[int]func(bool){}}, nil
}

// Token returns the current bearer token or "".
func (t *Tokens) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// set persists token first and only then publishes it in memory, so a
// failed write never leaves memory and storage disagreeing.
func (t *Tokens) set(ctx context.Context, token string) error {
	if err := t.storage.Save(ctx, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
	t.notify(true)
	return nil
}

// Clear drops the token from memory and storage.  It is idempotent.  The
// in-memory copy is cleared even if storage fails.
func (t *Tokens) Clear(ctx context.Context) error {
	t.mu.Lock()
	had := t.token != ""
	t.token = ""
	t.mu.Unlock()
	err := t.storage.Delete(ctx)
	if had {
		t.notify(false)
	}
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// OnChange registers fn to run after the token is set or cleared.  The
// returned func unregisters it.
func (t *Tokens) OnChange(fn func(present bool)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

func (t *Tokens) notify(present bool) {
	t.mu.RLock()
	fns := make([]func(bool), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()
	for _, fn := range fns {
		fn(present)
	}
}
