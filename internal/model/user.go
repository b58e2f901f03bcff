package model

// Role names a user's authorization level as reported by the backend.
type Role string

const (
	RoleUser  Role = "user"  // regular learner
	RoleAdmin Role = "admin" // moderator with access to pending words and stats
)

// User represents the profile returned by GET /auth/users/me.  The client
// holds an immutable snapshot of it: every fetch replaces the previous
// value wholesale and logout drops it.
//
// Fields:
//  ID       – backend identifier of the user.
//  Email    – unique email address used as the login name.
//  Role     – user or admin.
//  IsActive – whether the account is active.  Not consulted by any guard.
type User struct {
	ID       int64  `json:"id"`        // users.id
	Email    string `json:"email"`     // users.email
	Role     Role   `json:"role"`      // users.role
	IsActive bool   `json:"is_active"` // users.is_active
}

// IsAdmin reports whether the user carries the admin role.  Inactive admins
// are still admins; role is the only gate.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AuthResponse is the body returned by the token endpoint.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Credentials carries the login or registration input.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
