package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hellenika/hellenika/internal/apperr"
	"github.com/hellenika/hellenika/internal/console"
	"github.com/hellenika/hellenika/internal/greek"
	"github.com/hellenika/hellenika/internal/logging"
	"github.com/hellenika/hellenika/internal/model"
)

// Translator fills blank form fields on request.
type Translator interface {
	ToGreek(ctx context.Context, text string) (string, error)
	ToEnglish(ctx context.Context, text string) (string, error)
}

// formEditor walks the user through a WordFormData.
type formEditor struct {
	console   *console.Console
	translate Translator
	log       logging.Logger
}

// edit prompts for every field, with the current value as default.  ok is
// false when the user abandons the form.
func (e *formEditor) edit(ctx context.Context, f model.WordFormData) (out model.WordFormData, ok bool, err error) {
	greekWord, err := e.ask(ctx, "Greek word", f.GreekWord)
	if err != nil {
		return f, false, err
	}
	f.GreekWord = greek.Normalize(greekWord)

	typ, err := e.ask(ctx, "Type ("+joinTypes()+")", string(f.WordType))
	if err != nil {
		return f, false, err
	}
	f.SetWordType(model.WordType(strings.ToLower(typ)))

	if f.WordType.HasGender() {
		if article, g, rest, found := greek.DetectArticle(f.GreekWord); found && f.WordType == model.Noun {
			e.console.Printf("Detected article %q: %s noun\n", article, g)
			f.GreekWord, f.Gender = rest, g
		}
		gender, err := e.ask(ctx, "Gender (masculine, feminine, neuter)", string(f.Gender))
		if err != nil {
			return f, false, err
		}
		f.Gender = model.Gender(strings.ToLower(gender))
	}

	notes, err := e.ask(ctx, "Notes", f.Notes)
	if err != nil {
		return f, false, err
	}
	f.Notes = notes

	if err := e.meanings(ctx, &f); err != nil {
		return f, false, err
	}
	if m, found := primaryText(f); found && f.GreekWord == "" && e.offer(ctx, fmt.Sprintf("Translate %q to Greek?", m)) {
		f.GreekWord = e.fill(ctx, m, e.translate.ToGreek)
	}
	if _, found := primaryText(f); !found && f.GreekWord != "" && e.offer(ctx, fmt.Sprintf("Translate %q to English?", f.GreekWord)) {
		if text := e.fill(ctx, f.GreekWord, e.translate.ToEnglish); text != "" {
			f.Meanings = nil
			f.AddMeaning(text)
		}
	}

	save, err := e.console.Confirm(ctx, "Save?")
	if err != nil {
		return f, false, err
	}
	return f, save, nil
}

// meanings runs the meaning sub-menu until the user is done.
func (e *formEditor) meanings(ctx context.Context, f *model.WordFormData) error {
	for {
		e.console.Println("Meanings:")
		for i, m := range f.Meanings {
			mark := " "
			if m.IsPrimary {
				mark = "*"
			}
			e.console.Printf("  %d.%s %s\n", i+1, mark, m.EnglishMeaning)
		}
		cmd, err := e.console.Prompt(ctx, "[a TEXT] add, [s N TEXT] set, [p N] primary, [x N] remove, [Enter] done: ")
		if err != nil {
			return err
		}
		if cmd == "" {
			return nil
		}
		verb, arg, _ := strings.Cut(cmd, " ")
		switch verb {
		case "a":
			if t := strings.TrimSpace(arg); t != "" {
				f.AddMeaning(t)
			}
		case "s":
			num, text, _ := strings.Cut(strings.TrimSpace(arg), " ")
			if i, ok := index(num, len(f.Meanings)); ok {
				f.Meanings[i].EnglishMeaning = strings.TrimSpace(text)
			}
		case "p":
			if i, ok := index(arg, len(f.Meanings)); ok {
				f.SetPrimary(i)
			}
		case "x":
			if i, ok := index(arg, len(f.Meanings)); ok {
				f.RemoveMeaning(i)
			}
		}
	}
}

func (e *formEditor) ask(ctx context.Context, label, current string) (string, error) {
	prompt := label + ": "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, current)
	}
	v, err := e.console.Prompt(ctx, prompt)
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	if v == "-" {
		return "", nil
	}
	return v, nil
}

func (e *formEditor) offer(ctx context.Context, question string) bool {
	if e.translate == nil {
		return false
	}
	ok, err := e.console.Confirm(ctx, question)
	return err == nil && ok
}

// fill calls translate and returns "" on any failure.
func (e *formEditor) fill(ctx context.Context, text string, translate func(context.Context, string) (string, error)) string {
	out, err := translate(ctx, text)
	if err != nil {
		e.log.Warnf("translation failed: %v", err)
		e.console.Println("Translation unavailable.")
		return ""
	}
	e.console.Printf("Translation: %s\n", out)
	return out
}

func primaryText(f model.WordFormData) (string, bool) {
	for _, m := range f.Meanings {
		if m.IsPrimary && strings.TrimSpace(m.EnglishMeaning) != "" {
			return strings.TrimSpace(m.EnglishMeaning), true
		}
	}
	for _, m := range f.Meanings {
		if t := strings.TrimSpace(m.EnglishMeaning); t != "" {
			return t, true
		}
	}
	return "", false
}

func joinTypes() string {
	names := make([]string, 0, len(model.WordTypes))
	for _, t := range model.WordTypes {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// index parses a one-based position within n items.
func index(s string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

// showFormError prints a validation or backend error for the form.
func showFormError(c *console.Console, err error) {
	var vErr *apperr.ValidationError
	if errors.As(err, &vErr) {
		c.Printf("Cannot save: %s\n", vErr.Message)
		return
	}
	c.Println(apperr.Message(err))
}
