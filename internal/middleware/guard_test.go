package middleware

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hellenika/hellenika/internal/auth"
	"github.com/hellenika/hellenika/internal/model"
	"github.com/hellenika/hellenika/internal/nav"
)

type fakeState struct {
	mu      sync.Mutex
	state   auth.State
	changed chan struct{}
}

func newFakeState(s auth.State) *fakeState {
	return &fakeState{state: s, changed: make(chan struct{})}
}

func (f *fakeState) State() auth.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeState) Changed() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changed
}

func (f *fakeState) set(s auth.State) {
	f.mu.Lock()
	f.state = s
	close(f.changed)
	f.changed = make(chan struct{})
	f.mu.Unlock()
}

// syncBuffer lets the guard goroutine write while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var (
	loading   = auth.State{IsLoading: true}
	anonymous = auth.State{}
	member    = auth.State{User: &model.User{ID: 1, Role: model.RoleUser, IsActive: true}, IsAuthenticated: true}
	admin     = auth.State{User: &model.User{ID: 2, Role: model.RoleAdmin, IsActive: true}, IsAuthenticated: true}
	inactive  = auth.State{User: &model.User{ID: 3, Role: model.RoleAdmin, IsActive: false}, IsAuthenticated: true}
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name           string
		state          auth.State
		protected      Decision
		adminProtected Decision
	}{
		{"loading", loading, Loading, Loading},
		{"anonymous", anonymous, Unauthorized, Unauthorized},
		{"member", member, Authorized, Unauthorized},
		{"admin", admin, Authorized, Authorized},
		{"inactive admin", inactive, Authorized, Authorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.state); got != tt.protected {
				t.Errorf("Evaluate = %s, want %s", got, tt.protected)
			}
			if got := EvaluateAdmin(tt.state); got != tt.adminProtected {
				t.Errorf("EvaluateAdmin = %s, want %s", got, tt.adminProtected)
			}
		})
	}
}

// run applies mw to a handler that records whether it rendered.
func run(t *testing.T, ctx context.Context, mw nav.MiddlewareFunc) (rendered bool, c *nav.Context, err error) {
	t.Helper()
	c = nav.NewContext(ctx, "/guarded", nil)
	err = mw(func(*nav.Context) error {
		rendered = true
		return nil
	})(c)
	return rendered, c, err
}

func TestGuardsWhileLoading(t *testing.T) {
	for name, build := range map[string]func(AuthState, *syncBuffer) nav.MiddlewareFunc{
		"protected": func(a AuthState, out *syncBuffer) nav.MiddlewareFunc { return RequireAuth(a, out) },
		"admin":     func(a AuthState, out *syncBuffer) nav.MiddlewareFunc { return RequireAdmin(a, out) },
	} {
		t.Run(name, func(t *testing.T) {
			out := &syncBuffer{}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()

			rendered, c, _ := run(t, ctx, build(newFakeState(loading), out))
			if rendered || c.Next() != "" {
				t.Fatal("loading state must neither render nor redirect")
			}
			if strings.Contains(out.String(), "Admin access required") {
				t.Fatal("loading state must not show an error")
			}
			if out.String() != "Loading...\n" {
				t.Fatalf("output %q", out.String())
			}
		})
	}
}

func TestGuardResumesAfterLoading(t *testing.T) {
	st := newFakeState(loading)
	out := &syncBuffer{}
	go func() {
		time.Sleep(10 * time.Millisecond)
		st.set(admin)
	}()
	rendered, _, err := run(t, context.Background(), RequireAdmin(st, out))
	if err != nil || !rendered {
		t.Fatalf("rendered=%t err=%v", rendered, err)
	}
}

func TestGuardDecisions(t *testing.T) {
	tests := []struct {
		name     string
		admin    bool
		state    auth.State
		rendered bool
		next     string
		message  bool
	}{
		{"protected anonymous", false, anonymous, false, LoginPath, false},
		{"protected member", false, member, true, "", false},
		{"admin anonymous", true, anonymous, false, LoginPath, false},
		{"admin member", true, member, false, HomePath, true},
		{"admin admin", true, admin, true, "", false},
		{"admin inactive", true, inactive, true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &syncBuffer{}
			st := newFakeState(tt.state)
			mw := RequireAuth(st, out)
			if tt.admin {
				mw = RequireAdmin(st, out)
			}
			rendered, c, err := run(t, context.Background(), mw)
			if err != nil {
				t.Fatal(err)
			}
			if rendered != tt.rendered || c.Next() != tt.next {
				t.Fatalf("rendered=%t next=%q", rendered, c.Next())
			}
			if got := strings.Contains(out.String(), "Admin access required"); got != tt.message {
				t.Fatalf("output %q", out.String())
			}
		})
	}
}
