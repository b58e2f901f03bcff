package handler

import (
	"context"
	"strings"
	"time"

	"github.com/hellenika/hellenika/internal/apperr"
	"github.com/hellenika/hellenika/internal/console"
	"github.com/hellenika/hellenika/internal/flashcard"
	"github.com/hellenika/hellenika/internal/model"
	"github.com/hellenika/hellenika/internal/nav"
)

// WordSource lists every word for a study session.
type WordSource interface {
	AllWords(ctx context.Context, f model.WordFilters) ([]model.Word, error)
}

// FlashcardsHandler runs the /flashcards study screen.
type FlashcardsHandler struct {
	Words     WordSource
	Console   *console.Console
	FlipDelay time.Duration
}

func NewFlashcardsHandler(words WordSource, c *console.Console, flipDelay time.Duration) *FlashcardsHandler {
	return &FlashcardsHandler{Words: words, Console: c, FlipDelay: flipDelay}
}

// Screen loads the vocabulary into a shuffled deck and lets the user flip
// and move through it.
func (h *FlashcardsHandler) Screen(c *nav.Context) error {
	ctx := c.Context()
	h.Console.Println("Loading flashcards...")
	words, err := h.Words.AllWords(ctx, model.WordFilters{})
	if err != nil {
		h.Console.Println(apperr.Message(err))
		return c.Navigate("/")
	}
	if len(words) == 0 {
		h.Console.Println("No words to study yet. Add some first.")
		return c.Navigate("/")
	}

	deck := flashcard.NewDeck(words, flashcard.Options{
		FlipDelay: h.FlipDelay,
		OnEvent: func(e flashcard.Event) {
			if e == flashcard.Unflipped {
				h.Console.Println("(turning the card over)")
			}
		},
	})
	for {
		h.show(deck)
		cmd, err := h.Console.Prompt(ctx, "[Enter] flip, [n]ext, [p]rev, [s]huffle, [b]ack, [q]uit: ")
		if err != nil {
			return quitOn(err)
		}
		switch strings.ToLower(cmd) {
		case "", "f", "flip":
			deck.Flip()
		case "n", "next":
			if err := deck.Next(ctx); err != nil {
				return err
			}
		case "p", "prev":
			if err := deck.Prev(ctx); err != nil {
				return err
			}
		case "s", "shuffle":
			deck.Reshuffle()
			h.Console.Println("Shuffled.")
		case "b", "back":
			return c.Navigate("/")
		case "q", "quit":
			return nav.ErrQuit
		}
	}
}

func (h *FlashcardsHandler) show(d *flashcard.Deck) {
	card, ok := d.Current()
	if !ok {
		return
	}
	h.Console.Printf("\nCard %d of %d\n", d.Index()+1, d.Len())
	if !d.IsFlipped() {
		h.Console.Printf("  %s\n", card.Front)
		if t := card.Word.WordType; t != "" {
			h.Console.Printf("  (%s)\n", t)
		}
		return
	}
	back := card.Back
	if back == "" {
		back = "(no meaning recorded)"
	}
	h.Console.Printf("  %s\n", back)
	if card.Notes != "" {
		h.Console.Printf("  Notes: %s\n", card.Notes)
	}
}
