package router // package router defines how screens are registered on the navigator

import (
	"io" // io carries guard messages to the terminal

	"github.com/hellenika/hellenika/internal/handler"    // handler implements the screens
	"github.com/hellenika/hellenika/internal/middleware" // middleware guards protected screens
	"github.com/hellenika/hellenika/internal/nav"        // nav matches paths to screens
)

// Handlers bundles the screens mounted by Register.
type Handlers struct {
	Auth       *handler.AuthHandler
	Words      *handler.WordsHandler
	Flashcards *handler.FlashcardsHandler
	Admin      *handler.AdminHandler
}

// Register mounts every screen on n.  /auth is open; the vocabulary screens
// require a signed-in user and /admin additionally requires the admin role.
// Unknown paths fall back to the word list.
func Register(n *nav.Navigator, h Handlers, state middleware.AuthState, out io.Writer) {
	n.Add(middleware.LoginPath, h.Auth.Screen)

	// Everything below needs a session; a missing one sends the user to /auth.
	protected := n.Group("", middleware.RequireAuth(state, out))
	protected.Add(middleware.HomePath, h.Words.List)
	protected.Add("/add", h.Words.Add)
	protected.Add("/edit/:id", h.Words.Edit)
	protected.Add("/flashcards", h.Flashcards.Screen)

	// The admin guard runs on its own: it distinguishes signed-out users from
	// non-admins.
	n.Add("/admin", h.Admin.Screen, middleware.RequireAdmin(state, out))

	n.NotFound = func(c *nav.Context) error {
		return c.Navigate(middleware.HomePath)
	}
}
