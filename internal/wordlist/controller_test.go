package wordlist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hellenika/hellenika/internal/apperr"
	"github.com/hellenika/hellenika/internal/model"
)

// fakeWords serves pages from a fixed list and records every filter set
// it was asked for.  block, when set, may hold a listing until its channel
// closes.
type fakeWords struct {
	mu      sync.Mutex
	items   []model.Word
	calls   []model.WordFilters
	block   func(f model.WordFilters) <-chan struct{}
	fail    error
	nextID  int64
	deleted []int64
}

func (f *fakeWords) GetWords(ctx context.Context, flt model.WordFilters) (*model.Page[model.Word], error) {
	f.mu.Lock()
	f.calls = append(f.calls, flt)
	block := f.block
	fail := f.fail
	items := append([]model.Word(nil), f.items...)
	f.mu.Unlock()

	if block != nil {
		if ch := block(flt); ch != nil {
			select {
			case <-ch:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if fail != nil {
		return nil, fail
	}
	// Tag the result with the page that was asked for so tests can tell
	// responses apart.
	return &model.Page[model.Word]{Items: items, Total: len(items), Page: flt.Page, Size: flt.Size, Pages: flt.Page}, nil
}

func (f *fakeWords) CreateWord(ctx context.Context, data model.WordFormData) (*model.Word, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextID == 0 {
		f.nextID = 7
	}
	w := wordFrom(f.nextID, data)
	f.nextID++
	return &w, nil
}

func (f *fakeWords) UpdateWord(ctx context.Context, id int64, data model.WordFormData) (*model.Word, error) {
	w := wordFrom(id, data)
	return &w, nil
}

func (f *fakeWords) DeleteWord(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeWords) listCalls() []model.WordFilters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.WordFilters(nil), f.calls...)
}

func wordFrom(id int64, data model.WordFormData) model.Word {
	n := data.Normalized()
	w := model.Word{ID: id, GreekWord: n.GreekWord, WordType: n.WordType, Gender: n.Gender, Notes: n.Notes}
	for _, m := range n.Meanings {
		w.Meanings = append(w.Meanings, model.Meaning{EnglishMeaning: m.EnglishMeaning, IsPrimary: m.IsPrimary, WordID: id})
	}
	return w
}

func breadForm() model.WordFormData {
	f := model.NewWordForm()
	f.GreekWord = "ψωμί"
	f.Gender = model.Neuter
	f.Meanings[0].EnglishMeaning = "bread"
	return f
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.WaitIdle(ctx); err != nil {
		t.Fatalf("wait idle: %v", err)
	}
}

func countID(words []model.Word, id int64) int {
	n := 0
	for _, w := range words {
		if w.ID == id {
			n++
		}
	}
	return n
}

func TestLoadFirstPage(t *testing.T) {
	svc := &fakeWords{items: []model.Word{{ID: 1, GreekWord: "νερό"}}}
	c := New(svc, Options{PageSize: 25})
	defer c.Close()

	if c.Snapshot().State != Loading {
		t.Fatal("new controller starts loading")
	}
	c.Load()
	waitIdle(t, c)

	s := c.Snapshot()
	if s.State != Loaded || len(s.Words) != 1 || s.Total != 1 {
		t.Fatalf("snapshot %+v", s)
	}
	if calls := svc.listCalls(); len(calls) != 1 || calls[0].Page != 1 || calls[0].Size != 25 {
		t.Fatalf("calls %+v", calls)
	}
}

func TestOptimisticMutations(t *testing.T) {
	svc := &fakeWords{}
	c := New(svc, Options{})
	defer c.Close()
	c.Load()
	waitIdle(t, c)
	ctx := context.Background()

	created, err := c.Create(ctx, breadForm())
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != 7 {
		t.Fatalf("created id %d", created.ID)
	}
	if n := countID(c.Snapshot().Words, 7); n != 1 {
		t.Fatalf("after create: %d entries with id 7", n)
	}

	form := breadForm()
	form.Notes = "fresh"
	if _, err := c.Update(ctx, 7, form); err != nil {
		t.Fatal(err)
	}
	words := c.Snapshot().Words
	if n := countID(words, 7); n != 1 {
		t.Fatalf("after update: %d entries with id 7", n)
	}
	for _, w := range words {
		if w.ID == 7 && w.Notes != "fresh" {
			t.Fatalf("update not applied: %+v", w)
		}
	}

	if err := c.Delete(ctx, 7, func(model.Word) bool { return true }); err != nil {
		t.Fatal(err)
	}
	if n := countID(c.Snapshot().Words, 7); n != 0 {
		t.Fatalf("after delete: %d entries with id 7", n)
	}
	if len(svc.listCalls()) != 1 {
		t.Fatal("mutations must not refetch the list")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	svc := &fakeWords{items: []model.Word{{ID: 3, GreekWord: "σπίτι"}}}
	c := New(svc, Options{})
	defer c.Close()
	c.Load()
	waitIdle(t, c)

	var asked model.Word
	err := c.Delete(context.Background(), 3, func(w model.Word) bool { asked = w; return false })
	if !errors.Is(err, apperr.ErrCancelled) {
		t.Fatalf("expected cancelled, got %v", err)
	}
	if asked.GreekWord != "σπίτι" {
		t.Fatalf("confirmer got %+v", asked)
	}
	if err := c.Delete(context.Background(), 3, nil); !errors.Is(err, apperr.ErrCancelled) {
		t.Fatalf("nil confirmer must cancel, got %v", err)
	}
	if len(svc.deleted) != 0 || countID(c.Snapshot().Words, 3) != 1 {
		t.Fatal("declined delete must not touch the backend or the list")
	}
}

func TestCreateValidatesFirst(t *testing.T) {
	svc := &fakeWords{}
	c := New(svc, Options{})
	defer c.Close()

	form := breadForm()
	form.Gender = ""
	_, err := c.Create(context.Background(), form)
	var vErr *apperr.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "gender" {
		t.Fatalf("expected gender validation error, got %v", err)
	}
	if svc.nextID != 0 {
		t.Fatal("invalid form reached the service")
	}
}

func TestDebounceCoalescesTyping(t *testing.T) {
	svc := &fakeWords{}
	c := New(svc, Options{Debounce: 30 * time.Millisecond})
	defer c.Close()
	c.Load()
	waitIdle(t, c)
	c.SetPage(3)
	waitIdle(t, c)

	for _, s := range []string{"ψ", "ψω", "ψωμ", "ψωμί"} {
		c.SetSearch(s)
		time.Sleep(5 * time.Millisecond)
	}
	c.SetWordType(model.Noun)
	waitIdle(t, c)

	calls := svc.listCalls()
	if len(calls) != 3 {
		t.Fatalf("expected one debounced fetch after typing, got %d calls: %+v", len(calls)-2, calls)
	}
	last := calls[2]
	if last.Search != "ψωμί" || last.WordType != model.Noun || last.Page != 1 {
		t.Fatalf("debounced fetch used %+v", last)
	}
}

func TestPageChangeKeepsFilters(t *testing.T) {
	svc := &fakeWords{}
	c := New(svc, Options{Debounce: 5 * time.Millisecond})
	defer c.Close()
	c.SetGender(model.Feminine)
	waitIdle(t, c)

	c.SetPage(2)
	waitIdle(t, c)
	c.SetPageSize(50)
	waitIdle(t, c)

	calls := svc.listCalls()
	if len(calls) != 3 {
		t.Fatalf("calls %+v", calls)
	}
	if calls[1].Page != 2 || calls[1].Gender != model.Feminine {
		t.Fatalf("page change: %+v", calls[1])
	}
	if calls[2].Page != 1 || calls[2].Size != 50 {
		t.Fatalf("page size change must reset to page 1: %+v", calls[2])
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeWords{
		items: []model.Word{{ID: 1}},
		block: func(f model.WordFilters) <-chan struct{} {
			if f.Page == 1 {
				return release
			}
			return nil
		},
	}
	c := New(svc, Options{})
	defer c.Close()

	c.Load()     // slow, page 1
	c.SetPage(2) // fast, page 2
	deadline := time.Now().Add(2 * time.Second)
	for c.Snapshot().State != Loaded {
		if time.Now().After(deadline) {
			t.Fatal("second fetch never applied")
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	waitIdle(t, c)

	if s := c.Snapshot(); s.Pages != 2 || s.Filters.Page != 2 {
		t.Fatalf("stale page 1 response clobbered page 2: %+v", s)
	}
}

func TestErrorThenRetry(t *testing.T) {
	svc := &fakeWords{fail: errors.New("boom")}
	c := New(svc, Options{})
	defer c.Close()
	c.Load()
	waitIdle(t, c)

	s := c.Snapshot()
	if s.State != Error || s.Err == nil {
		t.Fatalf("snapshot %+v", s)
	}

	svc.mu.Lock()
	svc.fail = nil
	svc.mu.Unlock()
	c.Refresh()
	waitIdle(t, c)
	if s := c.Snapshot(); s.State != Loaded || s.Err != nil {
		t.Fatalf("after retry %+v", s)
	}
}

func TestEditing(t *testing.T) {
	svc := &fakeWords{items: []model.Word{{ID: 4, GreekWord: "καλός", WordType: model.Adjective}}}
	c := New(svc, Options{})
	defer c.Close()
	c.Load()
	waitIdle(t, c)

	if _, err := c.BeginEdit(99); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
	w, err := c.BeginEdit(4)
	if err != nil || w.GreekWord != "καλός" {
		t.Fatalf("begin edit: %+v, %v", w, err)
	}
	if s := c.Snapshot(); s.State != Editing || s.Editing == nil || s.Editing.ID != 4 {
		t.Fatalf("snapshot %+v", s)
	}
	c.CancelEdit()
	if s := c.Snapshot(); s.State != Loaded || s.Editing != nil {
		t.Fatalf("after cancel %+v", s)
	}
}

func TestCloseIgnoresLateResults(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeWords{
		items: []model.Word{{ID: 1}},
		block: func(model.WordFilters) <-chan struct{} { return release },
	}
	var mu sync.Mutex
	changes := 0
	c := New(svc, Options{OnChange: func(Snapshot) {
		mu.Lock()
		changes++
		mu.Unlock()
	}})
	c.Load()
	c.SetSearch("x")
	c.Close()
	close(release)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if changes != 1 {
		t.Fatalf("expected only the loading notification, got %d", changes)
	}
	if len(c.Snapshot().Words) != 0 {
		t.Fatal("closed controller applied a late result")
	}
	if len(svc.listCalls()) != 1 {
		t.Fatal("pending debounce fired after Close")
	}
}

func TestCreateSurvivesSlowerFetch(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeWords{
		items: []model.Word{{ID: 1, GreekWord: "νερό"}},
		block: func(model.WordFilters) <-chan struct{} { return release },
	}
	c := New(svc, Options{})
	defer c.Close()
	c.Load()

	if _, err := c.Create(context.Background(), breadForm()); err != nil {
		t.Fatal(err)
	}
	form := breadForm()
	form.Notes = "fresh"
	if _, err := c.Update(context.Background(), 7, form); err != nil {
		t.Fatal(err)
	}
	close(release)
	waitIdle(t, c)

	words := c.Snapshot().Words
	if countID(words, 1) != 1 {
		t.Fatalf("fetched word missing: %+v", words)
	}
	if n := countID(words, 7); n != 1 {
		t.Fatalf("created word lost to the older fetch: %d entries with id 7", n)
	}
	for _, w := range words {
		if w.ID == 7 && w.Notes != "fresh" {
			t.Fatalf("update lost to the older fetch: %+v", w)
		}
	}
}

func TestDeleteSurvivesSlowerFetch(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeWords{
		items: []model.Word{{ID: 3, GreekWord: "σπίτι"}, {ID: 5, GreekWord: "δρόμος"}},
		block: func(model.WordFilters) <-chan struct{} { return release },
	}
	c := New(svc, Options{})
	defer c.Close()
	c.Load()

	if err := c.Delete(context.Background(), 3, func(model.Word) bool { return true }); err != nil {
		t.Fatal(err)
	}
	close(release)
	waitIdle(t, c)

	words := c.Snapshot().Words
	if countID(words, 3) != 0 {
		t.Fatalf("deleted word came back with the older fetch: %+v", words)
	}
	if countID(words, 5) != 1 {
		t.Fatalf("untouched word missing: %+v", words)
	}
}

func TestEditsNotReplayedOnLaterFetch(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeWords{
		items: []model.Word{{ID: 3, GreekWord: "σπίτι"}},
		block: func(model.WordFilters) <-chan struct{} { return release },
	}
	c := New(svc, Options{})
	defer c.Close()
	c.Load()
	if err := c.Delete(context.Background(), 3, func(model.Word) bool { return true }); err != nil {
		t.Fatal(err)
	}
	close(release)
	waitIdle(t, c)

	// The backend still has the word; a fetch started after the edit
	// settled shows what the backend says.
	c.Refresh()
	waitIdle(t, c)
	if countID(c.Snapshot().Words, 3) != 1 {
		t.Fatal("edit replayed over a fetch that started after it")
	}
}
