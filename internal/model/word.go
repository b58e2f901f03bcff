package model

import (
	"strings"
	"time"

	"github.com/hellenika/hellenika/internal/apperr"
)

// WordType is the grammatical category of a word.
type WordType string

const (
	Noun        WordType = "noun"
	Verb        WordType = "verb"
	Adjective   WordType = "adjective"
	Adverb      WordType = "adverb"
	Pronoun     WordType = "pronoun"
	Preposition WordType = "preposition"
	Conjunction WordType = "conjunction"
	Article     WordType = "article"
	Prefix      WordType = "prefix"
)

// WordTypes lists every word type in display order.
var WordTypes = []WordType{Noun, Verb, Adjective, Adverb, Pronoun, Preposition, Conjunction, Article, Prefix}

// Valid reports whether t is a known word type.
func (t WordType) Valid() bool {
	for _, k := range WordTypes {
		if k == t {
			return true
		}
	}
	return false
}

// HasGender reports whether words of this type carry a grammatical gender.
func (t WordType) HasGender() bool {
	return t == Noun || t == Article
}

// Gender is the grammatical gender of a noun or article.
type Gender string

const (
	Masculine Gender = "masculine"
	Feminine  Gender = "feminine"
	Neuter    Gender = "neuter"
)

// Genders lists every gender in display order.
var Genders = []Gender{Masculine, Feminine, Neuter}

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == Masculine || g == Feminine || g == Neuter
}

// ApprovalStatus is the moderation state of a submitted word.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Meaning is one English translation of a word.
type Meaning struct {
	ID             int64  `json:"id"`
	EnglishMeaning string `json:"english_meaning"`
	IsPrimary      bool   `json:"is_primary"`
	WordID         int64  `json:"word_id"`
}

// Word is a Greek vocabulary entry owned by the backend.
//
// Fields:
//  ID             – backend identifier.
//  GreekWord      – the Greek lemma.
//  WordType       – grammatical category.
//  Gender         – present only for gendered types; see DisplayGender.
//  Notes          – optional free text.
//  ApprovalStatus – moderation state.
//  Meanings       – ordered English meanings.
//  CreatedAt      – creation timestamp, when reported.
//  CreatedBy      – id of the submitting user, when reported.
//  Submitter      – submitting user, when reported.
type Word struct {
	ID             int64          `json:"id"`
	GreekWord      string         `json:"greek_word"`
	WordType       WordType       `json:"word_type"`
	Gender         Gender         `json:"gender,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status,omitempty"`
	Meanings       []Meaning      `json:"meanings"`
	CreatedAt      *time.Time     `json:"created_at,omitempty"`
	CreatedBy      *int64         `json:"created_by,omitempty"`
	Submitter      *User          `json:"submitter,omitempty"`
}

// DisplayGender returns the gender to render for w.  A stray gender on a
// type without one is never shown.
func (w Word) DisplayGender() Gender {
	if !w.WordType.HasGender() || !w.Gender.Valid() {
		return ""
	}
	return w.Gender
}

// PrimaryMeaning returns the meaning flagged primary, falling back to the
// first meaning.  ok is false when the word has no meanings.
func (w Word) PrimaryMeaning() (m Meaning, ok bool) {
	for _, m := range w.Meanings {
		if m.IsPrimary {
			return m, true
		}
	}
	if len(w.Meanings) > 0 {
		return w.Meanings[0], true
	}
	return Meaning{}, false
}

// MeaningFormData is the editable projection of a Meaning.
type MeaningFormData struct {
	EnglishMeaning string `json:"english_meaning"`
	IsPrimary      bool   `json:"is_primary"`
}

// WordFormData is the unsaved projection of a Word used to compose create
// and update requests.
type WordFormData struct {
	GreekWord string            `json:"greek_word"`
	WordType  WordType          `json:"word_type"`
	Gender    Gender            `json:"gender,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Meanings  []MeaningFormData `json:"meanings"`
}

// NewWordForm returns an empty noun form with one primary meaning slot.
func NewWordForm() WordFormData {
	return WordFormData{
		WordType: Noun,
		Meanings: []MeaningFormData{{IsPrimary: true}},
	}
}

// FormFromWord builds the edit form for an existing word.
func FormFromWord(w Word) WordFormData {
	f := WordFormData{
		GreekWord: w.GreekWord,
		WordType:  w.WordType,
		Gender:    w.DisplayGender(),
		Notes:     w.Notes,
		Meanings:  make([]MeaningFormData, 0, len(w.Meanings)),
	}
	for _, m := range w.Meanings {
		f.Meanings = append(f.Meanings, MeaningFormData{EnglishMeaning: m.EnglishMeaning, IsPrimary: m.IsPrimary})
	}
	if len(f.Meanings) == 0 {
		f.Meanings = append(f.Meanings, MeaningFormData{IsPrimary: true})
	}
	return f
}

// SetWordType changes the type and clears gender when the new type has none.
func (f *WordFormData) SetWordType(t WordType) {
	f.WordType = t
	if !t.HasGender() {
		f.Gender = ""
	}
}

// SetPrimary marks meaning k primary and unsets every other meaning.  Out of
// range indices leave the form unchanged.
func (f *WordFormData) SetPrimary(k int) {
	if k < 0 || k >= len(f.Meanings) {
		return
	}
	for i := range f.Meanings {
		f.Meanings[i].IsPrimary = i == k
	}
}

// AddMeaning appends a non-primary meaning, or a primary one if the list is
// empty.
func (f *WordFormData) AddMeaning(english string) {
	f.Meanings = append(f.Meanings, MeaningFormData{
		EnglishMeaning: english,
		IsPrimary:      len(f.Meanings) == 0,
	})
}

// RemoveMeaning deletes meaning i.  When the primary meaning is removed the
// first remaining meaning becomes primary.
func (f *WordFormData) RemoveMeaning(i int) {
	if i < 0 || i >= len(f.Meanings) {
		return
	}
	wasPrimary := f.Meanings[i].IsPrimary
	f.Meanings = append(f.Meanings[:i], f.Meanings[i+1:]...)
	if wasPrimary && len(f.Meanings) > 0 {
		f.SetPrimary(0)
	}
}

// Normalized returns a copy ready for submission: text is trimmed, empty
// meanings are dropped and gender is removed for types without one.
func (f WordFormData) Normalized() WordFormData {
	out := WordFormData{
		GreekWord: strings.TrimSpace(f.GreekWord),
		WordType:  f.WordType,
		Notes:     strings.TrimSpace(f.Notes),
	}
	if f.WordType.HasGender() {
		out.Gender = f.Gender
	}
	hasPrimary := false
	for _, m := range f.Meanings {
		text := strings.TrimSpace(m.EnglishMeaning)
		if text == "" {
			continue
		}
		primary := m.IsPrimary && !hasPrimary
		hasPrimary = hasPrimary || primary
		out.Meanings = append(out.Meanings, MeaningFormData{EnglishMeaning: text, IsPrimary: primary})
	}
	if !hasPrimary && len(out.Meanings) > 0 {
		out.Meanings[0].IsPrimary = true
	}
	return out
}

// Validate reports the first field that blocks submission.
func (f WordFormData) Validate() error {
	n := f.Normalized()
	if n.GreekWord == "" {
		return &apperr.ValidationError{Field: "greek_word", Message: "Greek word is required"}
	}
	if !n.WordType.Valid() {
		return &apperr.ValidationError{Field: "word_type", Message: "Word type is required"}
	}
	if n.WordType == Noun && !n.Gender.Valid() {
		return &apperr.ValidationError{Field: "gender", Message: "Gender is required for nouns"}
	}
	if n.Gender != "" && !n.Gender.Valid() {
		return &apperr.ValidationError{Field: "gender", Message: "Unknown gender"}
	}
	if len(n.Meanings) == 0 {
		return &apperr.ValidationError{Field: "meanings", Message: "At least one meaning is required"}
	}
	return nil
}
