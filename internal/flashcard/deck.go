// Package flashcard implements the review deck: a shuffled list of words
// shown one card at a time, front (Greek) first.
package flashcard

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hellenika/hellenika/internal/greek"
	"github.com/hellenika/hellenika/internal/model"
)

// DefaultFlipDelay is the pause between flipping a card back and moving.
const DefaultFlipDelay = 300 * time.Millisecond

// Event is a visible change of the deck.
type Event int

const (
	Flipped Event = iota
	Unflipped
	Moved
	Shuffled
)

func (e Event) String() string {
	switch e {
	case Flipped:
		return "flipped"
	case Unflipped:
		return "unflipped"
	case Moved:
		return "moved"
	case Shuffled:
		return "shuffled"
	}
	return "unknown"
}

// Card is the rendered content of one word.
type Card struct {
	Word  model.Word
	Front string
	Back  string
	Notes string
}

// CardFor renders w: the headword on the front, the primary meaning (or the
// first one) on the back.
func CardFor(w model.Word) Card {
	c := Card{Word: w, Front: greek.Headword(w), Notes: strings.TrimSpace(w.Notes)}
	if m, ok := w.PrimaryMeaning(); ok {
		c.Back = m.EnglishMeaning
	}
	return c
}

// Options configures a Deck.  Zero values select the defaults.
type Options struct {
	Rand      *rand.Rand
	FlipDelay time.Duration
	// Sleep waits d or until ctx ends.  Tests replace it.
	Sleep   func(ctx context.Context, d time.Duration) error
	OnEvent func(Event)
}

// Deck is the navigation state {index, flipped} over a shuffled copy of the
// words.  It is driven from one goroutine.
type Deck struct {
	cards   []model.Word
	index   int
	flipped bool

	rng     *rand.Rand
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	onEvent func(Event)
}

// NewDeck shuffles a copy of words and shows the first card face up.
func NewDeck(words []model.Word, opts Options) *Deck {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.FlipDelay <= 0 {
		opts.FlipDelay = DefaultFlipDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	d := &Deck{
		cards:   append([]model.Word(nil), words...),
		rng:     opts.Rand,
		delay:   opts.FlipDelay,
		sleep:   opts.Sleep,
		onEvent: opts.OnEvent,
	}
	Shuffle(d.cards, d.rng)
	return d
}

// Shuffle permutes words in place with Fisher-Yates.
func Shuffle(words []model.Word, rng *rand.Rand) {
	for i := len(words) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		words[i], words[j] = words[j], words[i]
	}
}

// Len returns the number of cards.
func (d *Deck) Len() int { return len(d.cards) }

// Index returns the position of the current card.
func (d *Deck) Index() int { return d.index }

// IsFlipped reports whether the back of the current card is showing.
func (d *Deck) IsFlipped() bool { return d.flipped }

// Words returns the deck order.
func (d *Deck) Words() []model.Word { return append([]model.Word(nil), d.cards...) }

// Current returns the card on top.  ok is false for an empty deck.
func (d *Deck) Current() (c Card, ok bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return CardFor(d.cards[d.index]), true
}

// Flip turns the current card over.  It never fetches anything.
func (d *Deck) Flip() {
	if len(d.cards) == 0 {
		return
	}
	d.flipped = !d.flipped
	if d.flipped {
		d.emit(Flipped)
	} else {
		d.emit(Unflipped)
	}
}

// Next moves to the following card, wrapping after the last one.
func (d *Deck) Next(ctx context.Context) error { return d.move(ctx, 1) }

// Prev moves to the preceding card, wrapping before the first one.
func (d *Deck) Prev(ctx context.Context) error { return d.move(ctx, -1) }

// move turns a flipped card face down and waits out the flip delay before
// advancing, so every new card is first seen from the front.
func (d *Deck) move(ctx context.Context, step int) error {
	n := len(d.cards)
	if n == 0 {
		return nil
	}
	if d.flipped {
		d.flipped = false
		d.emit(Unflipped)
		if err := d.sleep(ctx, d.delay); err != nil {
			return err
		}
	}
	d.index = (d.index + step + n) % n
	d.emit(Moved)
	return nil
}

// Reshuffle reorders the deck and returns to the first card, front up.
func (d *Deck) Reshuffle() {
	Shuffle(d.cards, d.rng)
	d.index = 0
	d.flipped = false
	d.emit(Shuffled)
}

func (d *Deck) emit(e Event) {
	if d.onEvent != nil {
		d.onEvent(e)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
