package admin

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hellenika/hellenika/internal/auth"
	"github.com/hellenika/hellenika/internal/model"
)

type fakeAuth struct {
	mu    sync.Mutex
	state auth.State
	subs  map[int]func(auth.State)
	next  int
}

func newFakeAuth(user *model.User) *fakeAuth {
	return &fakeAuth{state: auth.State{User: user, IsAuthenticated: user != nil}, subs: map[int]func(auth.State){}}
}

func (f *fakeAuth) State() auth.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeAuth) Subscribe(fn func(auth.State)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeAuth) set(user *model.User) {
	f.mu.Lock()
	f.state = auth.State{User: user, IsAuthenticated: user != nil}
	st := f.state
	var fns []func(auth.State)
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

type fakePending struct {
	calls atomic.Int64
	fail  atomic.Bool
	n     int
}

func (f *fakePending) GetPendingWords(ctx context.Context) ([]model.Word, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, errors.New("backend down")
	}
	return make([]model.Word, f.n), nil
}

var (
	adminUser = &model.User{ID: 1, Email: "admin@b.c", Role: model.RoleAdmin}
	plainUser = &model.User{ID: 2, Email: "user@b.c", Role: model.RoleUser}
)

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestNonAdminNeverPolls(t *testing.T) {
	src := &fakePending{n: 3}
	m := NewMonitor(src, newFakeAuth(plainUser), 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { m.Watch(ctx); close(done) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	<-done
	if src.calls.Load() != 0 || m.Count() != 0 {
		t.Fatalf("calls=%d count=%d", src.calls.Load(), m.Count())
	}
}

func TestAdminPollsAndStopsOnRoleChange(t *testing.T) {
	src := &fakePending{n: 3}
	a := newFakeAuth(adminUser)
	m := NewMonitor(src, a, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Watch(ctx)

	eventually(t, "first fetch", func() bool { return m.Count() == 3 })
	eventually(t, "ticks", func() bool { return src.calls.Load() >= 3 })

	a.set(plainUser)
	eventually(t, "poll stop", func() bool { return !m.Polling() })
	if m.Count() != 0 {
		t.Fatalf("count must reset for non-admins, got %d", m.Count())
	}
	after := src.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if src.calls.Load() != after {
		t.Fatal("polling continued after the role changed")
	}

	a.set(adminUser)
	eventually(t, "restart", func() bool { return m.Polling() && src.calls.Load() > after })
}

func TestPollSurvivesFailures(t *testing.T) {
	src := &fakePending{n: 1}
	src.fail.Store(true)
	m := NewMonitor(src, newFakeAuth(adminUser), 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Watch(ctx)

	eventually(t, "failed attempts", func() bool { return src.calls.Load() >= 2 })
	src.fail.Store(false)
	eventually(t, "recovery", func() bool { return m.Count() == 1 })
}

func TestWatchStopsWithContext(t *testing.T) {
	src := &fakePending{n: 2}
	m := NewMonitor(src, newFakeAuth(adminUser), 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { m.Watch(ctx); close(done) }()

	eventually(t, "polling", m.Polling)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return")
	}
	if m.Polling() {
		t.Fatal("poll task outlived Watch")
	}
	after := src.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if src.calls.Load() != after {
		t.Fatal("timer leaked past Watch")
	}
}

func TestRefreshNotifies(t *testing.T) {
	src := &fakePending{n: 4}
	m := NewMonitor(src, newFakeAuth(adminUser), time.Hour, nil)
	var got int
	m.OnChange(func(n int) { got = n })

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != 4 || m.Count() != 4 {
		t.Fatalf("got=%d count=%d", got, m.Count())
	}
}
