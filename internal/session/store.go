package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hellenika/hellenika/internal/apiclient"
	"github.com/hellenika/hellenika/internal/apperr"
	"github.com/hellenika/hellenika/internal/model"
)

// Auth endpoint paths, relative to the API base URL.
const (
	PathToken    = "/auth/token"
	PathRegister = "/auth/register"
	PathMe       = "/auth/users/me"
)

// API is the request pipeline the store sends auth calls through.
type API interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Store exposes login, registration and logout against the backend's auth
// endpoints.  It is the only writer of the bearer token.
type Store struct {
	tokens *Tokens
	api    API
}

// NewStore returns a store that writes tokens and sends requests via api.
func NewStore(tokens *Tokens, api API) *Store {
	return &Store{tokens: tokens, api: api}
}

// Login exchanges credentials for a bearer token.  The token endpoint takes
// an OAuth2 password form, so the email travels as "username".
func (s *Store) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	form := url.Values{}
	form.Set("username", strings.TrimSpace(email))
	form.Set("password", password)

	var resp model.AuthResponse
	err := s.api.Do(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      PathToken,
		Form:      form,
		Anonymous: true,
	}, &resp)
	if err != nil {
		return nil, loginError(err)
	}
	if resp.AccessToken == "" {
		return nil, &apperr.AuthError{Op: "login", Message: apperr.MsgInvalidCredentials, Err: errors.New("empty access token")}
	}
	if err := s.tokens.set(ctx, resp.AccessToken); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

// Register creates an account, logs in with the same credentials and
// returns the freshly fetched profile.
func (s *Store) Register(ctx context.Context, email, password string) (*model.User, error) {
	creds := model.Credentials{Email: strings.TrimSpace(email), Password: password}
	err := s.api.Do(ctx, apiclient.Request{
		Method:    http.MethodPost,
		Path:      PathRegister,
		Body:      creds,
		Anonymous: true,
	}, nil)
	if err != nil {
		return nil, &apperr.AuthError{Op: "register", Message: apperr.MsgRegistrationFailed, Err: err}
	}
	if _, err := s.Login(ctx, creds.Email, creds.Password); err != nil {
		return nil, err
	}
	return s.CurrentUser(ctx)
}

// Logout forgets the token locally.  It makes no network call.
func (s *Store) Logout(ctx context.Context) error {
	return s.tokens.Clear(ctx)
}

// GetToken returns the current token or "".
func (s *Store) GetToken() string { return s.tokens.Token() }

// IsAuthenticated reports token presence.  Presence does not imply validity.
func (s *Store) IsAuthenticated() bool { return s.tokens.Token() != "" }

// OnChange forwards to the token cell so observers learn about logouts
// triggered by the HTTP client.
func (s *Store) OnChange(fn func(present bool)) (unsubscribe func()) {
	return s.tokens.OnChange(fn)
}

// CurrentUser fetches the profile of the token's owner.
func (s *Store) CurrentUser(ctx context.Context) (*model.User, error) {
	if !s.IsAuthenticated() {
		return nil, &apperr.AuthError{Op: "current user", Message: apperr.MsgNoToken}
	}
	var u model.User
	if err := s.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: PathMe}, &u); err != nil {
		if errors.Is(err, apperr.ErrAuthorizationExpired) || apperr.StatusOf(err) == http.StatusForbidden {
			return nil, &apperr.AuthError{Op: "current user", Message: "Your session has expired. Please log in again.", Err: err}
		}
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &u, nil
}

// TokenExpiry reads the exp claim of the current token without verifying
// its signature; only the backend can do that.  ok is false when there is
// no token or it carries no expiry.
func (s *Store) TokenExpiry() (exp time.Time, ok bool) {
	raw := s.tokens.Token()
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time, true
}

func loginError(err error) error {
	var netErr *apperr.NetworkError
	if errors.As(err, &netErr) {
		return &apperr.AuthError{Op: "login", Message: "Could not reach the server. Please try again.", Err: err}
	}
	return &apperr.AuthError{Op: "login", Message: apperr.MsgInvalidCredentials, Err: err}
}
