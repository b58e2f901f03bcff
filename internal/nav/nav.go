// Package nav routes the terminal client between screens.  A screen is a
// HandlerFunc registered under a path such as "/edit/:id"; it runs until it
// navigates elsewhere, quits, or is interrupted by a Redirect.  Middleware
// wraps handlers the way echo middleware wraps HTTP handlers.
package nav

import (
	"context" // context cancels the running screen on redirect
	"errors"  // errors defines the control sentinels
	"fmt"     // fmt wraps routing failures
	"strings" // strings splits paths into segments
	"sync"    // sync guards the redirect state

	"github.com/hellenika/hellenika/internal/logging" // logging records screen transitions
)

// ErrQuit ends Navigator.Run without error.
var ErrQuit = errors.New("quit")

// ErrNoRoute is returned by the default not-found handler.
var ErrNoRoute = errors.New("no route")

// HandlerFunc runs one screen.
type HandlerFunc func(c *Context) error

// MiddlewareFunc wraps a HandlerFunc.
type MiddlewareFunc func(next HandlerFunc) HandlerFunc

// Context is what a screen receives: the matched path, its parameters and a
// context.Context cancelled when the navigator redirects away.
type Context struct {
	ctx    context.Context
	path   string
	params map[string]string
	values map[string]any
	next   string
}

// NewContext builds a standalone Context, mainly for tests of handlers and
// middleware.
func NewContext(ctx context.Context, path string, params map[string]string) *Context {
	if params == nil {
		params = map[string]string{}
	}
	return &Context{ctx: ctx, path: path, params: params, values: map[string]any{}}
}

// Context returns the screen's context.
func (c *Context) Context() context.Context { return c.ctx }

// Path returns the concrete path being shown, for example "/edit/7".
func (c *Context) Path() string { return c.path }

// Param returns the value of a ":name" segment.
func (c *Context) Param(name string) string { return c.params[name] }

// Set stores a value for later middleware or the handler.
func (c *Context) Set(key string, v any) { c.values[key] = v }

// Get returns a value stored with Set.
func (c *Context) Get(key string) any { return c.values[key] }

// Navigate selects the next screen.  Handlers usually return its result.
func (c *Context) Navigate(path string) error {
	c.next = path
	return nil
}

// Next returns the path chosen with Navigate, or "".
func (c *Context) Next() string { return c.next }

type route struct {
	pattern  string
	segments []string
	static   bool
	handler  HandlerFunc
}

// Navigator owns the route table and the screen loop.
type Navigator struct {
	routes     []route
	middleware []MiddlewareFunc
	log        logging.Logger

	// NotFound handles paths no route matches.
	NotFound HandlerFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	pending string
	current string
}

// New returns an empty navigator.
func New(log logging.Logger) *Navigator {
	if log == nil {
		log = logging.Discard()
	}
	return &Navigator{
		log: log,
		NotFound: func(c *Context) error {
			return fmt.Errorf("%w: %s", ErrNoRoute, c.Path())
		},
	}
}

// Use appends middleware run before every route.
func (n *Navigator) Use(m ...MiddlewareFunc) { n.middleware = append(n.middleware, m...) }

// Add registers h under pattern with route-level middleware m.
func (n *Navigator) Add(pattern string, h HandlerFunc, m ...MiddlewareFunc) {
	segs := split(pattern)
	static := true
	for _, s := range segs {
		if strings.HasPrefix(s, ":") {
			static = false
		}
	}
	n.routes = append(n.routes, route{pattern: pattern, segments: segs, static: static, handler: chain(h, m)})
}

// Group creates a route group sharing a prefix and middleware.
func (n *Navigator) Group(prefix string, m ...MiddlewareFunc) *Group {
	return &Group{nav: n, prefix: strings.TrimRight(prefix, "/"), middleware: m}
}

// Current returns the path of the screen being shown.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Redirect makes path the next screen and interrupts the current one.  It is
// safe to call from any goroutine.
func (n *Navigator) Redirect(path string) {
	n.mu.Lock()
	n.pending = path
	cancel := n.cancel
	n.mu.Unlock()
	n.log.Debugf("redirect to %s", path)
	if cancel != nil {
		cancel()
	}
}

// Run shows start and follows navigation until a handler quits, fails, or
// ctx ends.
func (n *Navigator) Run(ctx context.Context, start string) error {
	path := start
	for {
		if ctx.Err() != nil {
			return nil
		}
		screenCtx, cancel := context.WithCancel(ctx)
		n.mu.Lock()
		if n.pending != "" {
			path, n.pending = n.pending, ""
		}
		n.cancel = cancel
		n.current = path
		n.mu.Unlock()

		h, params := n.match(path)
		c := NewContext(screenCtx, path, params)
		n.log.Debugf("show %s", path)
		err := chain(h, n.middleware)(c)
		cancel()

		n.mu.Lock()
		n.cancel = nil
		redirected := n.pending
		n.pending = ""
		n.mu.Unlock()

		switch {
		case redirected != "":
			path = redirected
		case errors.Is(err, ErrQuit):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("screen %s: %w", path, err)
		case c.next != "":
			path = c.next
		default:
			return nil
		}
	}
}

// Resolve returns the handler chain for path without running it.
func (n *Navigator) Resolve(path string) (HandlerFunc, map[string]string) {
	h, params := n.match(path)
	return chain(h, n.middleware), params
}

func (n *Navigator) match(path string) (HandlerFunc, map[string]string) {
	segs := split(path)
	var (
		fallback HandlerFunc
		fbParams map[string]string
	)
	for _, r := range n.routes {
		params, ok := r.match(segs)
		if !ok {
			continue
		}
		if r.static {
			return r.handler, params
		}
		if fallback == nil {
			fallback, fbParams = r.handler, params
		}
	}
	if fallback != nil {
		return fallback, fbParams
	}
	return n.NotFound, map[string]string{}
}

func (r route) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(r.segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, s := range r.segments {
		if strings.HasPrefix(s, ":") {
			if segs[i] == "" {
				return nil, false
			}
			params[s[1:]] = segs[i]
			continue
		}
		if s != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// chain applies m so that m[0] runs first.
func chain(h HandlerFunc, m []MiddlewareFunc) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{}
	}
	return strings.Split(path, "/")
}

// Group registers routes under a common prefix and middleware.
type Group struct {
	nav        *Navigator
	prefix     string
	middleware []MiddlewareFunc
}

// Use appends middleware to the group.
func (g *Group) Use(m ...MiddlewareFunc) { g.middleware = append(g.middleware, m...) }

// Add registers h under the group's prefix.
func (g *Group) Add(pattern string, h HandlerFunc, m ...MiddlewareFunc) {
	all := append(append([]MiddlewareFunc{}, g.middleware...), m...)
	g.nav.Add(g.prefix+pattern, h, all...)
}

// Group creates a nested group inheriting this group's middleware.
func (g *Group) Group(prefix string, m ...MiddlewareFunc) *Group {
	all := append(append([]MiddlewareFunc{}, g.middleware...), m...)
	return &Group{nav: g.nav, prefix: g.prefix + strings.TrimRight(prefix, "/"), middleware: all}
}
