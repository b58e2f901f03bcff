package session

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/hellenika/hellenika/internal/apiclient"
	"github.com/hellenika/hellenika/internal/apperr"
	"github.com/hellenika/hellenika/internal/model"
	"github.com/hellenika/hellenika/internal/testkit/fakeapi"
)

func newStore(t *testing.T, api *fakeapi.Server, storage Storage) (*Store, *Tokens) {
	t.Helper()
	tokens, err := OpenTokens(context.Background(), storage)
	if err != nil {
		t.Fatalf("open tokens: %v", err)
	}
	client := apiclient.New(api.APIURL(), tokens)
	return NewStore(tokens, client), tokens
}

func TestLoginPersistsAcrossRestart(t *testing.T) {
	api := fakeapi.New(t)
	api.AddUser("maria@example.com", "s3cret", model.RoleUser)
	storage := NewFileStorage(filepath.Join(t.TempDir(), "token"))

	store, _ := newStore(t, api, storage)
	resp, err := store.Login(context.Background(), "maria@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if store.GetToken() != resp.AccessToken || !store.IsAuthenticated() {
		t.Fatalf("token not held after login")
	}

	reloaded, _ := newStore(t, api, storage)
	if reloaded.GetToken() != resp.AccessToken {
		t.Fatalf("fresh store read %q, want issued token", reloaded.GetToken())
	}
	u, err := reloaded.CurrentUser(context.Background())
	if err != nil || u.Email != "maria@example.com" {
		t.Fatalf("current user after reload: %+v, %v", u, err)
	}
}

func TestLoginSendsForm(t *testing.T) {
	api := fakeapi.New(t)
	api.AddUser("a@b.c", "pw", model.RoleUser)
	store, _ := newStore(t, api, &MemoryStorage{})

	if _, err := store.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}
	r, ok := api.LastRequest(http.MethodPost, PathToken)
	if !ok {
		t.Fatal("token endpoint not called")
	}
	if r.ContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("content type %q", r.ContentType)
	}
	if r.Authorization != "" {
		t.Fatalf("login must not carry a bearer token, got %q", r.Authorization)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	api := fakeapi.New(t)
	api.AddUser("a@b.c", "pw", model.RoleUser)
	store, _ := newStore(t, api, &MemoryStorage{})

	_, err := store.Login(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if msg := apperr.Message(err); msg != apperr.MsgInvalidCredentials {
		t.Fatalf("message %q", msg)
	}
	if store.IsAuthenticated() {
		t.Fatal("failed login must not store a token")
	}
}

func TestLoginNetworkFailure(t *testing.T) {
	api := fakeapi.New(t)
	base, _ := url.Parse(api.APIURL())
	api.Close()

	tokens, _ := OpenTokens(context.Background(), &MemoryStorage{})
	store := NewStore(tokens, apiclient.New(base.String(), tokens))
	_, err := store.Login(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	var netErr *apperr.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected the network cause to be kept, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	api := fakeapi.New(t)
	store, _ := newStore(t, api, &MemoryStorage{})

	u, err := store.Register(context.Background(), "new@example.com", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "new@example.com" || u.Role != model.RoleUser {
		t.Fatalf("unexpected user %+v", u)
	}
	if !store.IsAuthenticated() {
		t.Fatal("register must log in")
	}

	_, err = store.Register(context.Background(), "new@example.com", "pw")
	if !errors.Is(err, apperr.ErrAuth) || apperr.Message(err) != apperr.MsgRegistrationFailed {
		t.Fatalf("duplicate registration: %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	api := fakeapi.New(t)
	api.AddUser("a@b.c", "pw", model.RoleUser)
	store, _ := newStore(t, api, &MemoryStorage{})

	if err := store.Logout(context.Background()); err != nil {
		t.Fatalf("logout without token: %v", err)
	}
	if _, err := store.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}
	before := len(api.Requests())
	for i := 0; i < 2; i++ {
		if err := store.Logout(context.Background()); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
		if store.IsAuthenticated() || store.GetToken() != "" {
			t.Fatalf("logout %d left a token", i)
		}
	}
	if len(api.Requests()) != before {
		t.Fatal("logout must not touch the network")
	}
}

func TestCurrentUserWithoutToken(t *testing.T) {
	api := fakeapi.New(t)
	store, _ := newStore(t, api, &MemoryStorage{})

	_, err := store.CurrentUser(context.Background())
	if !errors.Is(err, apperr.ErrAuth) || apperr.Message(err) != apperr.MsgNoToken {
		t.Fatalf("expected no token error, got %v", err)
	}
	if api.Count(http.MethodGet, PathMe) != 0 {
		t.Fatal("no request expected without a token")
	}
}

func TestCurrentUserRejectedToken(t *testing.T) {
	api := fakeapi.New(t)
	api.AddUser("a@b.c", "pw", model.RoleUser)
	store, tokens := newStore(t, api, &MemoryStorage{})
	if _, err := store.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}

	var cleared bool
	unsubscribe := store.OnChange(func(present bool) { cleared = !present })
	defer unsubscribe()

	api.RevokeAll()
	_, err := store.CurrentUser(context.Background())
	if !errors.Is(err, apperr.ErrAuth) || !errors.Is(err, apperr.ErrAuthorizationExpired) {
		t.Fatalf("expected expired auth error, got %v", err)
	}
	if tokens.Token() != "" || !cleared {
		t.Fatal("rejected token must be cleared and observers told")
	}
}

func TestTokenExpiry(t *testing.T) {
	api := fakeapi.New(t)
	api.AddUser("a@b.c", "pw", model.RoleUser)
	store, _ := newStore(t, api, &MemoryStorage{})

	if _, ok := store.TokenExpiry(); ok {
		t.Fatal("no expiry without a token")
	}
	if _, err := store.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}
	exp, ok := store.TokenExpiry()
	if !ok {
		t.Fatal("expected an expiry")
	}
	if d := time.Until(exp); d <= 0 || d > time.Hour {
		t.Fatalf("expiry %s out of range", d)
	}
}
