package handler

import (
	"context" // context bounds each auth call
	"errors"  // errors classifies failures
	"strings" // strings normalizes menu input

	"github.com/hellenika/hellenika/internal/apperr"  // apperr picks the message shown on the form
	"github.com/hellenika/hellenika/internal/auth"    // auth supplies the state snapshot
	"github.com/hellenika/hellenika/internal/console" // console reads the form input
	"github.com/hellenika/hellenika/internal/nav"     // nav drives screen transitions
)

// Authenticator is the part of auth.Provider the screens use.
type Authenticator interface {
	State() auth.State
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
}

// AuthHandler runs the /auth screen: login and registration forms.
type AuthHandler struct {
	Auth    Authenticator
	Console *console.Console
}

func NewAuthHandler(a Authenticator, c *console.Console) *AuthHandler {
	return &AuthHandler{Auth: a, Console: c}
}

// Screen shows the login/register menu until the user signs in or quits.
func (h *AuthHandler) Screen(c *nav.Context) error {
	ctx := c.Context()
	if h.Auth.State().IsAuthenticated {
		return c.Navigate("/")
	}
	h.Console.Println("Hellenika: learn Greek vocabulary")
	for {
		choice, err := h.Console.Prompt(ctx, "[l]ogin, [r]egister or [q]uit: ")
		if err != nil {
			return quitOn(err)
		}
		switch strings.ToLower(choice) {
		case "l", "login":
			err = h.login(ctx)
		case "r", "register":
			err = h.register(ctx)
		case "q", "quit":
			return nav.ErrQuit
		default:
			continue
		}
		if err == nil {
			return c.Navigate("/")
		}
		if isInputEnd(err) {
			return quitOn(err)
		}
		h.Console.Println(apperr.Message(err))
	}
}

func (h *AuthHandler) login(ctx context.Context) error {
	email, err := h.Console.Prompt(ctx, "Email: ")
	if err != nil {
		return err
	}
	password, err := h.Console.Password(ctx, "Password: ")
	if err != nil {
		return err
	}
	if email == "" || password == "" {
		return &apperr.ValidationError{Field: "email", Message: "Email and password are required"}
	}
	return h.Auth.Login(ctx, email, password)
}

func (h *AuthHandler) register(ctx context.Context) error {
	email, err := h.Console.Prompt(ctx, "Email: ")
	if err != nil {
		return err
	}
	password, err := h.Console.Password(ctx, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := h.Console.Password(ctx, "Confirm password: ")
	if err != nil {
		return err
	}
	if email == "" || password == "" {
		return &apperr.ValidationError{Field: "email", Message: "Email and password are required"}
	}
	if password != confirm {
		return &apperr.ValidationError{Field: "confirm_password", Message: "Passwords do not match"}
	}
	return h.Auth.Register(ctx, email, password)
}

// isInputEnd reports errors that end the screen rather than the attempt.
func isInputEnd(err error) bool {
	return errors.Is(err, console.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// quitOn turns closed input into a clean quit and passes anything else on.
func quitOn(err error) error {
	if errors.Is(err, console.ErrClosed) {
		return nav.ErrQuit
	}
	return err
}
