// Package service wraps the backend's word, admin and translation resources.
// Every call goes through the shared apiclient pipeline; failures propagate
// to the caller unchanged and nothing here retries.
package service

import (
	"context"  // context carries cancellation from the calling screen
	"fmt"      // fmt wraps errors with the failing operation
	"net/http" // http supplies method names
	"net/url"  // url escapes query values
	"strconv"  // strconv formats ids and page numbers
	"strings"  // strings builds the ordered query string

	"github.com/hellenika/hellenika/internal/apiclient" // apiclient is the single request pipeline
	"github.com/hellenika/hellenika/internal/model"     // model holds the wire types
)

// MaxPageSize is the largest page the backend serves.
const MaxPageSize = 100

// API is the request pipeline the services send through.
type API interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// WordService implements the word collection operations.
type WordService struct {
	api API
}

// NewWordService returns a service sending requests through api.
func NewWordService(api API) *WordService { return &WordService{api: api} }

// GetWords lists one page of words.  Only filters that are set become query
// parameters.
func (s *WordService) GetWords(ctx context.Context, f model.WordFilters) (*model.Page[model.Word], error) {
	var page model.Page[model.Word]
	err := s.api.Do(ctx, apiclient.Request{
		Method:   http.MethodGet,
		Path:     "/words",
		RawQuery: EncodeFilters(f),
	}, &page)
	if err != nil {
		return nil, fmt.Errorf("get words: %w", err)
	}
	if page.Items == nil {
		page.Items = []model.Word{}
	}
	return &page, nil
}

// AllWords walks every page of the listing matching f at MaxPageSize and
// returns the concatenated items.  f.Page and f.Size are ignored.
func (s *WordService) AllWords(ctx context.Context, f model.WordFilters) ([]model.Word, error) {
	f.Size = MaxPageSize
	var all []model.Word
	for p := 1; ; p++ {
		f.Page = p
		page, err := s.GetWords(ctx, f)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if p >= page.Pages || len(page.Items) == 0 {
			break
		}
	}
	if all == nil {
		all = []model.Word{}
	}
	return all, nil
}

// GetWordByID fetches a single word.
func (s *WordService) GetWordByID(ctx context.Context, id int64) (*model.Word, error) {
	var w model.Word
	if err := s.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: wordPath(id)}, &w); err != nil {
		return nil, fmt.Errorf("get word %d: %w", id, err)
	}
	return &w, nil
}

// CreateWord submits a new word.  The form is normalized first so gender
// never travels for types that have none.
func (s *WordService) CreateWord(ctx context.Context, data model.WordFormData) (*model.Word, error) {
	var w model.Word
	err := s.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/words", Body: data.Normalized()}, &w)
	if err != nil {
		return nil, fmt.Errorf("create word: %w", err)
	}
	return &w, nil
}

// UpdateWord replaces the word with id.
func (s *WordService) UpdateWord(ctx context.Context, id int64, data model.WordFormData) (*model.Word, error) {
	var w model.Word
	err := s.api.Do(ctx, apiclient.Request{Method: http.MethodPut, Path: wordPath(id), Body: data.Normalized()}, &w)
	if err != nil {
		return nil, fmt.Errorf("update word %d: %w", id, err)
	}
	return &w, nil
}

// DeleteWord removes the word with id.
func (s *WordService) DeleteWord(ctx context.Context, id int64) error {
	if err := s.api.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: wordPath(id)}, nil); err != nil {
		return fmt.Errorf("delete word %d: %w", id, err)
	}
	return nil
}

// GetPendingWords lists unmoderated words.  Admin only.
func (s *WordService) GetPendingWords(ctx context.Context) ([]model.Word, error) {
	var words []model.Word
	if err := s.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/words/pending"}, &words); err != nil {
		return nil, fmt.Errorf("get pending words: %w", err)
	}
	if words == nil {
		words = []model.Word{}
	}
	return words, nil
}

// ApproveWord marks a pending word approved.  Admin only.
func (s *WordService) ApproveWord(ctx context.Context, id int64) (*model.Word, error) {
	return s.moderate(ctx, id, "approve")
}

// RejectWord marks a pending word rejected.  Admin only.
func (s *WordService) RejectWord(ctx context.Context, id int64) (*model.Word, error) {
	return s.moderate(ctx, id, "reject")
}

func (s *WordService) moderate(ctx context.Context, id int64, action string) (*model.Word, error) {
	var w model.Word
	err := s.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: wordPath(id) + "/" + action}, &w)
	if err != nil {
		return nil, fmt.Errorf("%s word %d: %w", action, id, err)
	}
	return &w, nil
}

// EncodeFilters renders f as a query string in a fixed parameter order:
// search, word_type, gender, page, size, include_pending.  Unset values are
// left out entirely.
func EncodeFilters(f model.WordFilters) string {
	var parts []string
	add := func(key, value string) {
		parts = append(parts, key+"="+url.QueryEscape(value))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("search", s)
	}
	if f.WordType != "" {
		add("word_type", string(f.WordType))
	}
	if f.Gender != "" {
		add("gender", string(f.Gender))
	}
	if f.Page > 0 {
		add("page", strconv.Itoa(f.Page))
	}
	if f.Size > 0 {
		add("size", strconv.Itoa(f.Size))
	}
	if f.IncludePending {
		add("include_pending", "true")
	}
	return strings.Join(parts, "&")
}

func wordPath(id int64) string { return "/words/" + strconv.FormatInt(id, 10) }
