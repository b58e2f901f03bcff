package fakeapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/hellenika/hellenika/internal/model"
)

// login implements the OAuth2 password form of POST /auth/token.
func (s *Server) login(c echo.Context) error {
	email := normalizeEmail(c.FormValue("username"))
	password := c.FormValue("password")

	s.mu.Lock()
	acct := s.accounts[email]
	secret := s.secret
	ttl := s.tokenTTL
	s.mu.Unlock()

	if acct == nil || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		c.Response().Header().Set("WWW-Authenticate", "Bearer")
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Incorrect email or password"})
	}
	tok, err := accessToken(secret, email, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "issue token failed"})
	}
	return c.JSON(http.StatusOK, model.AuthResponse{AccessToken: tok, TokenType: "bearer"})
}

func (s *Server) register(c echo.Context) error {
	var req model.Credentials
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid body"})
	}
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "email and password required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Email already registered"})
	}
	u := s.addUserLocked(email, req.Password, model.RoleUser)
	return c.JSON(http.StatusOK, u)
}

func (s *Server) me(c echo.Context) error {
	return c.JSON(http.StatusOK, currentAccount(c))
}

// listWords mirrors GET /words: search over Greek word, notes and meanings,
// exact type and gender filters, approved-only unless an admin asks for
// pending words, then 1-based pagination.
func (s *Server) listWords(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "page must be >= 1"})
		}
		page = n
	}
	size := 50
	if v := c.QueryParam("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "size must be between 1 and 100"})
		}
		size = n
	}
	search := strings.ToLower(c.QueryParam("search"))
	wordType := strings.ToLower(c.QueryParam("word_type"))
	gender := strings.ToLower(c.QueryParam("gender"))
	includePending := c.QueryParam("include_pending") == "true" && currentAccount(c).Role == model.RoleAdmin

	s.mu.Lock()
	matched := s.sortedWords(func(w *model.Word) bool {
		if !includePending && w.ApprovalStatus != model.StatusApproved {
			return false
		}
		if wordType != "" && string(w.WordType) != wordType {
			return false
		}
		if gender != "" && string(w.Gender) != gender {
			return false
		}
		return search == "" || matchesSearch(w, search)
	})
	s.mu.Unlock()

	total := len(matched)
	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, model.Page[model.Word]{
		Items: matched[start:end],
		Total: total,
		Page:  page,
		Size:  size,
		Pages: (total + size - 1) / size,
	})
}

func matchesSearch(w *model.Word, term string) bool {
	if strings.Contains(strings.ToLower(w.GreekWord), term) || strings.Contains(strings.ToLower(w.Notes), term) {
		return true
	}
	for _, m := range w.Meanings {
		if strings.Contains(strings.ToLower(m.EnglishMeaning), term) {
			return true
		}
	}
	return false
}

func (s *Server) pendingWords(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.sortedWords(func(w *model.Word) bool {
		return w.ApprovalStatus == model.StatusPending
	}))
}

func (s *Server) createWord(c echo.Context) error {
	var req model.WordFormData
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.GreekWord) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid word"})
	}
	u := currentAccount(c)
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	w := wordFromForm(req)
	w.ApprovalStatus = model.StatusPending
	w.CreatedAt = &now
	w.CreatedBy = &u.ID
	w.Submitter = &u
	return c.JSON(http.StatusOK, s.storeWordLocked(w))
}

func (s *Server) getWord(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid id"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.words[id]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Word not found"})
	}
	if w.ApprovalStatus == model.StatusPending && currentAccount(c).Role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"detail": "Not authorized to view pending words"})
	}
	return c.JSON(http.StatusOK, w)
}

func (s *Server) updateWord(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid id"})
	}
	var req model.WordFormData
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid word"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.words[id]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Word not found"})
	}
	w := wordFromForm(req)
	w.ID = old.ID
	w.ApprovalStatus = old.ApprovalStatus
	w.CreatedAt = old.CreatedAt
	w.CreatedBy = old.CreatedBy
	w.Submitter = old.Submitter
	return c.JSON(http.StatusOK, s.storeWordLocked(w))
}

func (s *Server) deleteWord(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid id"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[id]; !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Word not found"})
	}
	delete(s.words, id)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (s *Server) moderate(status model.ApprovalStatus) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "invalid id"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		w, ok := s.words[id]
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "Word not found"})
		}
		w.ApprovalStatus = status
		return c.JSON(http.StatusOK, w)
	}
}

func (s *Server) stats(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := 0
	for _, a := range s.accounts {
		if a.user.IsActive {
			active++
		}
	}
	return c.JSON(http.StatusOK, model.DashboardStats{
		TotalUsers:   len(s.accounts),
		ActiveUsers:  active,
		TotalContent: len(s.words),
	})
}

func (s *Server) recentUsers(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.RecentUser{}
	for _, a := range s.accounts {
		status := "inactive"
		if a.user.IsActive {
			status = "active"
		}
		out = append(out, model.RecentUser{ID: a.user.ID, Name: a.user.Email, Email: a.user.Email, Status: status})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) recentContent(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.RecentContent{}
	for _, w := range s.sortedWords(func(*model.Word) bool { return true }) {
		out = append(out, model.RecentContent{ID: w.ID, Title: w.GreekWord, Type: string(w.WordType), Status: string(w.ApprovalStatus)})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) translateText(c echo.Context) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "text required"})
	}
	s.mu.Lock()
	out, ok := s.translate[strings.ToLower(strings.TrimSpace(req.Text))]
	s.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusBadGateway, echo.Map{"detail": "Translation failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"translated_text": out})
}

func wordFromForm(f model.WordFormData) model.Word {
	w := model.Word{
		GreekWord: f.GreekWord,
		WordType:  f.WordType,
		Gender:    f.Gender,
		Notes:     f.Notes,
		Meanings:  make([]model.Meaning, 0, len(f.Meanings)),
	}
	for _, m := range f.Meanings {
		w.Meanings = append(w.Meanings, model.Meaning{EnglishMeaning: m.EnglishMeaning, IsPrimary: m.IsPrimary})
	}
	return w
}
