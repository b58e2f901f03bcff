package fakeapi

import (
	"net/http"          // http status codes
	"net/http/httptest" // httptest serves the echo instance on a loopback port
	"sort"              // sort orders listings by Greek word
	"strings"           // strings normalizes emails and search terms
	"sync"              // sync guards the in-memory tables
	"testing"           // testing ties the server lifetime to a test
	"time"              // time stamps created words and token lifetimes

	"github.com/labstack/echo/v4" // echo routes the fake backend
	"golang.org/x/crypto/bcrypt"  // bcrypt hashes stored passwords

	"github.com/hellenika/hellenika/internal/model" // model shares the wire types with the client
)

// BasePath is the API prefix the fake serves under.
const BasePath = "/api/v1"

type account struct {
	user model.User
	hash []byte
}

// Recorded is one request seen by the fake backend.
type Recorded struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	RequestID     string
}

// Server is an in-memory implementation of the backend REST contract.  It
// is only meant for tests.
type Server struct {
	*httptest.Server
	Echo *echo.Echo

	mu          sync.Mutex
	secret      []byte
	tokenTTL    time.Duration
	accounts    map[string]*account
	words       map[int64]*model.Word
	nextUser    int64
	nextWord    int64
	nextMeaning int64
	requests    []Recorded
	failures    map[string]int
	translate   map[string]string
}

// New starts a fake backend and closes it when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		secret:   []byte("fake-secret"),
		tokenTTL: 30 * time.Minute,
		accounts: map[string]*account{},
		words:    map[int64]*model.Word{},
		failures: map[string]int{},
		translate: map[string]string{
			"bread": "ψωμί",
			"ψωμί":  "bread",
			"water": "νερό",
			"νερό":  "water",
		},
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s.Echo = e
	s.routes(e)
	s.Server = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

// APIURL is the base URL a client should be configured with.
func (s *Server) APIURL() string { return s.URL + BasePath }

// AddUser creates an account directly.
func (s *Server) AddUser(email, password string, role model.Role) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, role)
}

func (s *Server) addUserLocked(email, password string, role model.Role) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.nextUser++
	u := model.User{ID: s.nextUser, Email: normalizeEmail(email), Role: role, IsActive: true}
	s.accounts[u.Email] = &account{user: u, hash: hash}
	return u
}

// AddWord stores w, assigning ids, and returns the stored copy.  An empty
// approval status defaults to approved.
func (s *Server) AddWord(w model.Word) model.Word {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ApprovalStatus == "" {
		w.ApprovalStatus = model.StatusApproved
	}
	return s.storeWordLocked(w)
}

func (s *Server) storeWordLocked(w model.Word) model.Word {
	if w.ID == 0 {
		s.nextWord++
		w.ID = s.nextWord
	}
	for i := range w.Meanings {
		if w.Meanings[i].ID == 0 {
			s.nextMeaning++
			w.Meanings[i].ID = s.nextMeaning
		}
		w.Meanings[i].WordID = w.ID
	}
	stored := w
	s.words[w.ID] = &stored
	return stored
}

// Word returns the stored word with id.
func (s *Server) Word(id int64) (model.Word, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.words[id]
	if !ok {
		return model.Word{}, false
	}
	return *w, true
}

// Token issues a valid bearer token for email without a login round trip.
func (s *Server) Token(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := accessToken(s.secret, normalizeEmail(email), s.tokenTTL)
	if err != nil {
		panic(err)
	}
	return tok
}

// RevokeAll invalidates every token issued so far.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = append([]byte("rotated-"), s.secret...)
}

// Fail makes the next request matching method and echo route path (for
// example "GET", "/words/pending") answer with status.
func (s *Server) Fail(method, route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+BasePath+route] = status
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// LastRequest returns the most recent request to method and path.
func (s *Server) LastRequest(method, path string) (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if r.Method == method && r.Path == BasePath+path {
			return r, true
		}
	}
	return Recorded{}, false
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == BasePath+path {
			n++
		}
	}
	return n
}

func (s *Server) routes(e *echo.Echo) {
	api := e.Group(BasePath, s.record, s.injectFailures)

	api.POST("/auth/token", s.login)
	api.POST("/auth/register", s.register)

	auth := api.Group("", s.bearer)
	auth.GET("/auth/users/me", s.me)
	auth.GET("/words", s.listWords)
	auth.POST("/words", s.createWord)
	auth.GET("/words/:id", s.getWord)
	auth.PUT("/words/:id", s.updateWord)
	auth.DELETE("/words/:id", s.deleteWord)
	auth.POST("/translation/to-greek", s.translateText)
	auth.POST("/translation/to-english", s.translateText)

	admin := auth.Group("", s.requireAdmin)
	admin.GET("/words/pending", s.pendingWords)
	admin.POST("/words/:id/approve", s.moderate(model.StatusApproved))
	admin.POST("/words/:id/reject", s.moderate(model.StatusRejected))
	admin.GET("/admin/stats", s.stats)
	admin.GET("/admin/users", s.recentUsers)
	admin.GET("/admin/content", s.recentContent)
}

// record appends every request to the log before it is handled.
func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) injectFailures(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Path()
		s.mu.Lock()
		status, ok := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()
		if ok {
			return c.JSON(status, echo.Map{"detail": "injected failure"})
		}
		return next(c)
	}
}

// bearer validates the Authorization header and stores the account in the
// context under "account".
func (s *Server) bearer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
		}
		s.mu.Lock()
		email, ok := parseToken(s.secret, strings.TrimPrefix(auth, "Bearer "))
		acct := s.accounts[email]
		s.mu.Unlock()
		if !ok || acct == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
		}
		c.Set("account", acct.user)
		return next(c)
	}
}

// requireAdmin answers 403 unless the authenticated account is an admin.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, _ := c.Get("account").(model.User)
		if u.Role != model.RoleAdmin {
			return c.JSON(http.StatusForbidden, echo.Map{"detail": "Not enough permissions"})
		}
		return next(c)
	}
}

func currentAccount(c echo.Context) model.User {
	u, _ := c.Get("account").(model.User)
	return u
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// sortedWords returns the words matching keep ordered by Greek word.
func (s *Server) sortedWords(keep func(*model.Word) bool) []model.Word {
	out := []model.Word{}
	for _, w := range s.words {
		if keep(w) {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GreekWord == out[j].GreekWord {
			return out[i].ID < out[j].ID
		}
		return out[i].GreekWord < out[j].GreekWord
	})
	return out
}
