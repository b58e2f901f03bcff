// Package wordlist holds the state behind the searchable word table: the
// active filters, the page on display, and the local edits applied after
// create, update and delete.
package wordlist

import (
	"context"
	"sync"
	"time"

	"github.com/hellenika/hellenika/internal/apperr"
	"github.com/hellenika/hellenika/internal/logging"
	"github.com/hellenika/hellenika/internal/model"
)

// State is the phase of the list.
type State int

const (
	Loading State = iota
	Loaded
	Error
	Editing
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	case Editing:
		return "editing"
	}
	return "unknown"
}

// Defaults used when Options leaves a field zero.
const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultPageSize = 10
)

// Words is the slice of service.WordService the list uses.
type Words interface {
	GetWords(ctx context.Context, f model.WordFilters) (*model.Page[model.Word], error)
	CreateWord(ctx context.Context, data model.WordFormData) (*model.Word, error)
	UpdateWord(ctx context.Context, id int64, data model.WordFormData) (*model.Word, error)
	DeleteWord(ctx context.Context, id int64) error
}

// Confirmer asks the user to confirm deleting w.
type Confirmer func(w model.Word) bool

// Snapshot is a copy of the list state.  Total and Pages are the values the
// backend reported for the last fetch; local edits do not change them.
type Snapshot struct {
	State   State
	Filters model.WordFilters
	Words   []model.Word
	Total   int
	Pages   int
	Err     error
	Editing *model.Word
}

// Options configures a Controller.
type Options struct {
	Debounce time.Duration
	PageSize int
	Log      logging.Logger
	OnChange func(Snapshot)
}

// Controller drives the word list.  Filter and search changes are debounced;
// page changes fetch at once.  Every fetch carries a sequence number and
// only the response to the latest one is applied.
type Controller struct {
	words    Words
	debounce time.Duration
	log      logging.Logger
	onChange func(Snapshot)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	filters    model.WordFilters
	state      State
	items      []model.Word
	total      int
	pages      int
	err        error
	editing    *model.Word
	seq        uint64
	inflight   int
	edits      []localEdit
	debouncing bool
	timer      *time.Timer
	closed     bool
	changed    chan struct{}
}

// New returns a controller in the loading state.  Call Load to fetch the
// first page.
func New(words Words, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		words:    words,
		debounce: opts.Debounce,
		log:      opts.Log,
		onChange: opts.OnChange,
		ctx:      ctx,
		cancel:   cancel,
		filters:  model.WordFilters{Page: 1, Size: opts.PageSize},
		state:    Loading,
		changed:  make(chan struct{}),
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:   c.state,
		Filters: c.filters,
		Words:   append([]model.Word(nil), c.items...),
		Total:   c.total,
		Pages:   c.pages,
		Err:     c.err,
	}
	if c.editing != nil {
		w := *c.editing
		s.Editing = &w
	}
	return s
}

// Load fetches the current page now.
func (c *Controller) Load() { c.fetchNow() }

// Refresh retries the last fetch.  It is the "try again" action.
func (c *Controller) Refresh() { c.fetchNow() }

// SetSearch changes the search term, resets to page 1 and schedules a fetch.
func (c *Controller) SetSearch(s string) {
	c.changeFilters(func(f *model.WordFilters) { f.Search = s })
}

// SetWordType changes the type filter.  "" clears it.
func (c *Controller) SetWordType(t model.WordType) {
	c.changeFilters(func(f *model.WordFilters) { f.WordType = t })
}

// SetGender changes the gender filter.  "" clears it.
func (c *Controller) SetGender(g model.Gender) {
	c.changeFilters(func(f *model.WordFilters) { f.Gender = g })
}

// SetPage moves to page p and fetches immediately.  Filters are kept.
func (c *Controller) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	c.mu.Lock()
	c.filters.Page = p
	c.mu.Unlock()
	c.fetchNow()
}

// SetPageSize changes the page size, returns to page 1 and fetches.
func (c *Controller) SetPageSize(n int) {
	if n < 1 {
		return
	}
	c.mu.Lock()
	c.filters.Size = n
	c.filters.Page = 1
	c.mu.Unlock()
	c.fetchNow()
}

func (c *Controller) changeFilters(mutate func(*model.WordFilters)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	mutate(&c.filters)
	c.filters.Page = 1
	c.debouncing = true
	if c.timer == nil {
		c.timer = time.AfterFunc(c.debounce, c.fire)
	} else {
		c.timer.Reset(c.debounce)
	}
	c.mu.Unlock()
}

func (c *Controller) fire() {
	c.mu.Lock()
	if c.closed || !c.debouncing {
		c.mu.Unlock()
		return
	}
	c.debouncing = false
	start := c.startLocked()
	c.mu.Unlock()
	start()
}

func (c *Controller) fetchNow() {
	c.mu.Lock()
	start := c.startLocked()
	c.mu.Unlock()
	start()
}

// startLocked claims the next sequence number and counts the fetch as in
// flight.  The returned func announces the loading state and issues the
// request; it must run after c.mu is released.
func (c *Controller) startLocked() func() {
	if c.closed {
		return func() {}
	}
	c.seq++
	seq := c.seq
	f := c.filters
	c.inflight++
	if c.state != Editing {
		c.state = Loading
	}
	snap := c.snapshotLocked()
	return func() {
		c.emit(snap)
		go func() {
			page, err := c.words.GetWords(c.ctx, f)
			c.finish(seq, page, err)
		}()
	}
}

func (c *Controller) finish(seq uint64, page *model.Page[model.Word], err error) {
	c.mu.Lock()
	c.inflight--
	defer c.broadcast()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if seq != c.seq {
		c.log.Debugf("discard stale word list response %d (latest %d)", seq, c.seq)
		c.mu.Unlock()
		return
	}
	edits := c.edits
	c.edits = nil
	if err != nil {
		c.err = err
		if c.state != Editing {
			c.state = Error
		}
	} else {
		c.err = nil
		c.items = append([]model.Word(nil), page.Items...)
		for _, e := range edits {
			if e.after >= seq {
				c.items = e.apply(c.items)
			}
		}
		c.total = page.Total
		c.pages = page.Pages
		if c.state != Editing {
			c.state = Loaded
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// broadcast wakes WaitIdle callers.  c.mu must not be held.
func (c *Controller) broadcast() {
	c.mu.Lock()
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()
}

// WaitIdle blocks until no debounce is pending and no fetch is in flight.
func (c *Controller) WaitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.closed || (!c.debouncing && c.inflight == 0) {
			c.mu.Unlock()
			return nil
		}
		ch := c.changed
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// BeginEdit enters the editing state for the listed word with id.
func (c *Controller) BeginEdit(id int64) (model.Word, error) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return model.Word{}, apperr.ErrNotFound
	}
	w := c.items[i]
	c.editing = &w
	c.state = Editing
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
	return w, nil
}

// CancelEdit leaves the editing state without saving.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.leaveEditLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

func (c *Controller) leaveEditLocked() {
	c.editing = nil
	switch {
	case c.inflight > 0:
		c.state = Loading
	case c.err != nil:
		c.state = Error
	default:
		c.state = Loaded
	}
}

// Create validates and submits data, then appends the returned word to the
// local list.  Validation failures return before any request.
func (c *Controller) Create(ctx context.Context, data model.WordFormData) (*model.Word, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	w, err := c.words.CreateWord(ctx, data)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.applyLocked(upsert(*w))
	c.leaveEditLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
	return w, nil
}

// Update validates and submits data for id, then replaces the local entry.
func (c *Controller) Update(ctx context.Context, id int64, data model.WordFormData) (*model.Word, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	w, err := c.words.UpdateWord(ctx, id, data)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.applyLocked(replace(*w))
	c.leaveEditLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
	return w, nil
}

// Delete asks confirm and, only if it agrees, deletes id and removes the
// local entry.  A declined or missing confirmation returns
// apperr.ErrCancelled without any request.
func (c *Controller) Delete(ctx context.Context, id int64, confirm Confirmer) error {
	c.mu.Lock()
	i := c.indexLocked(id)
	var w model.Word
	if i >= 0 {
		w = c.items[i]
	} else {
		w = model.Word{ID: id}
	}
	c.mu.Unlock()

	if confirm == nil || !confirm(w) {
		return apperr.ErrCancelled
	}
	if err := c.words.DeleteWord(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	c.applyLocked(remove(id))
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
	return nil
}

// localEdit is a mutation the user made while a fetch was in flight.  The
// response to any fetch numbered at or below after may predate it, so the
// edit is applied again on top of that response.
type localEdit struct {
	after uint64
	apply func([]model.Word) []model.Word
}

func (c *Controller) applyLocked(edit func([]model.Word) []model.Word) {
	c.items = edit(c.items)
	if c.inflight > 0 {
		c.edits = append(c.edits, localEdit{after: c.seq, apply: edit})
	}
}

func upsert(w model.Word) func([]model.Word) []model.Word {
	return func(items []model.Word) []model.Word {
		for i := range items {
			if items[i].ID == w.ID {
				items[i] = w
				return items
			}
		}
		return append(items, w)
	}
}

func replace(w model.Word) func([]model.Word) []model.Word {
	return func(items []model.Word) []model.Word {
		for i := range items {
			if items[i].ID == w.ID {
				items[i] = w
			}
		}
		return items
	}
}

func remove(id int64) func([]model.Word) []model.Word {
	return func(items []model.Word) []model.Word {
		out := items[:0]
		for _, w := range items {
			if w.ID != id {
				out = append(out, w)
			}
		}
		return out
	}
}

// Close stops the debounce timer and drops the results of fetches still in
// flight.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.debouncing = false
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
	c.cancel()
	c.broadcast()
}

func (c *Controller) indexLocked(id int64) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) emit(s Snapshot) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
