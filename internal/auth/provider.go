// Package auth holds the process-wide authentication state the screens
// observe: the current user and whether it is still being resolved.
package auth

import (
	"context"
	"sync"

	"github.com/hellenika/hellenika/internal/logging"
	"github.com/hellenika/hellenika/internal/model"
)

// Session is the part of session.Store the provider drives.
type Session interface {
	Login(ctx context.Context, email, password string) (*model.AuthResponse, error)
	Register(ctx context.Context, email, password string) (*model.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*model.User, error)
	IsAuthenticated() bool
	OnChange(fn func(present bool)) (unsubscribe func())
}

// State is an immutable snapshot of the provider.
type State struct {
	User            *model.User
	IsAuthenticated bool
	IsLoading       bool
}

// IsAdmin reports whether the snapshot's user carries the admin role.
func (s State) IsAdmin() bool { return s.User.IsAdmin() }

// Provider tracks the signed-in user.  It starts loading and with no user;
// Init resolves the stored token once.
type Provider struct {
	session Session
	log     logging.Logger

	mu      sync.Mutex
	user    *model.User
	loading bool
	changed chan struct{}
	subs    map[int]func(State)
	nextID  int
	detach  func()
}

// NewProvider returns a provider over session.  It drops the user whenever
// the session token disappears, however that happens.
func NewProvider(session Session, log logging.Logger) *Provider {
	if log == nil {
		log = logging.Discard()
	}
	p := &Provider{
		session: session,
		log:     log,
		loading: true,
		changed: make(chan struct{}),
		subs:    map[int]func(State){},
	}
	p.detach = session.OnChange(func(present bool) {
		if !present {
			p.update(func() { p.user = nil })
		}
	})
	return p
}

// Close stops listening to the session.
func (p *Provider) Close() {
	if p.detach != nil {
		p.detach()
	}
}

// Init resolves the current user from a stored token.  A token the backend
// rejects leaves the user nil; the token itself is left to the HTTP
// client's 401 handling.
func (p *Provider) Init(ctx context.Context) {
	var user *model.User
	if p.session.IsAuthenticated() {
		u, err := p.session.CurrentUser(ctx)
		if err != nil {
			p.log.Infof("resolve current user: %v", err)
		} else {
			user = u
		}
	}
	p.update(func() {
		p.user = user
		p.loading = false
	})
}

// State returns the current snapshot.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Provider) stateLocked() State {
	return State{User: p.user, IsAuthenticated: p.user != nil, IsLoading: p.loading}
}

// Changed returns a channel closed at the next state change.
func (p *Provider) Changed() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changed
}

// Subscribe calls fn after every state change.  The returned func removes it.
func (p *Provider) Subscribe(fn func(State)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Login signs in and refetches the user.  Errors come back unchanged so
// forms can show them.
func (p *Provider) Login(ctx context.Context, email, password string) error {
	if _, err := p.session.Login(ctx, email, password); err != nil {
		return err
	}
	u, err := p.session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	p.update(func() { p.user = u })
	return nil
}

// Register creates the account and signs in as it.
func (p *Provider) Register(ctx context.Context, email, password string) error {
	u, err := p.session.Register(ctx, email, password)
	if err != nil {
		return err
	}
	p.update(func() { p.user = u })
	return nil
}

// Logout forgets the token and clears the user before returning.
func (p *Provider) Logout(ctx context.Context) error {
	err := p.session.Logout(ctx)
	p.update(func() { p.user = nil })
	return err
}

func (p *Provider) update(mutate func()) {
	p.mu.Lock()
	before := p.stateLocked()
	mutate()
	st := p.stateLocked()
	if st == before {
		p.mu.Unlock()
		return
	}
	close(p.changed)
	p.changed = make(chan struct{})
	fns := make([]func(State), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}
