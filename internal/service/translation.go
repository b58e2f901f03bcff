package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hellenika/hellenika/internal/apiclient"
	"github.com/hellenika/hellenika/internal/greek"
)

// TranslationService calls the backend's machine translation endpoints.
type TranslationService struct {
	api API
}

// NewTranslationService returns a service sending requests through api.
func NewTranslationService(api API) *TranslationService { return &TranslationService{api: api} }

type translateRequest struct {
	Text string `json:"text"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// ToGreek translates English text into Greek.
func (s *TranslationService) ToGreek(ctx context.Context, text string) (string, error) {
	out, err := s.translate(ctx, "/translation/to-greek", text)
	if err != nil {
		return "", err
	}
	return greek.Normalize(out), nil
}

// ToEnglish translates Greek text into English.
func (s *TranslationService) ToEnglish(ctx context.Context, text string) (string, error) {
	return s.translate(ctx, "/translation/to-english", greek.Normalize(text))
}

func (s *TranslationService) translate(ctx context.Context, path, text string) (string, error) {
	var resp translateResponse
	err := s.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   translateRequest{Text: strings.TrimSpace(text)},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("translate %q: %w", text, err)
	}
	return strings.TrimSpace(resp.TranslatedText), nil
}
