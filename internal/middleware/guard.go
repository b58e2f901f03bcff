package middleware // middleware holds the route guards wrapped around navigator screens

import (
	"fmt" // fmt prints guard messages to the terminal
	"io"  // io abstracts the terminal writer

	"github.com/hellenika/hellenika/internal/auth" // auth supplies the state the guards read
	"github.com/hellenika/hellenika/internal/nav"  // nav provides the middleware types
)

// Decision is the outcome of evaluating a guard against one auth snapshot.
type Decision int

const (
	// Loading means the auth state is still being resolved.
	Loading Decision = iota
	// Authorized means the guarded screen may render.
	Authorized
	// Unauthorized means the guarded screen must not render.
	Unauthorized
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Authorized:
		return "authorized"
	default:
		return "unauthorized"
	}
}

// Paths the guards redirect to.
const (
	LoginPath = "/auth"
	HomePath  = "/"
)

// AuthState is the read side of auth.Provider.
type AuthState interface {
	State() auth.State
	Changed() <-chan struct{}
}

// Evaluate is the ProtectedRoute rule: any authenticated user.
func Evaluate(s auth.State) Decision {
	switch {
	case s.IsLoading:
		return Loading
	case s.IsAuthenticated:
		return Authorized
	default:
		return Unauthorized
	}
}

// EvaluateAdmin is the AdminRoute rule: an authenticated user whose role is
// admin.  The active flag is not consulted.
func EvaluateAdmin(s auth.State) Decision {
	d := Evaluate(s)
	if d == Authorized && !s.IsAdmin() {
		return Unauthorized
	}
	return d
}

// RequireAuth returns a middleware that runs the next handler only for
// authenticated users.  While the auth state is loading it prints a single
// loading line and waits for the state to change; unauthenticated users
// are sent to the login screen.
func RequireAuth(a AuthState, out io.Writer) nav.MiddlewareFunc {
	return guard(a, out, Evaluate, func(c *nav.Context, s auth.State) error {
		return c.Navigate(LoginPath)
	})
}

// RequireAdmin is RequireAuth with the admin rule.  Authenticated users
// without the admin role are told so and sent home.
func RequireAdmin(a AuthState, out io.Writer) nav.MiddlewareFunc {
	return guard(a, out, EvaluateAdmin, func(c *nav.Context, s auth.State) error {
		if !s.IsAuthenticated {
			return c.Navigate(LoginPath)
		}
		fmt.Fprintln(out, "Admin access required")
		return c.Navigate(HomePath)
	})
}

func guard(a AuthState, out io.Writer, rule func(auth.State) Decision, deny func(*nav.Context, auth.State) error) nav.MiddlewareFunc {
	return func(next nav.HandlerFunc) nav.HandlerFunc {
		return func(c *nav.Context) error {
			announced := false
			for {
				// Take the change channel before the snapshot so a change
				// between the two is never missed.
				changed := a.Changed()
				s := a.State()
				switch rule(s) {
				case Authorized:
					return next(c)
				case Unauthorized:
					return deny(c, s)
				}
				if !announced {
					fmt.Fprintln(out, "Loading...")
					announced = true
				}
				select {
				case <-changed:
				case <-c.Context().Done():
					return c.Context().Err()
				}
			}
		}
	}
}
