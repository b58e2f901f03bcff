package handler

import (
	"context" // context bounds backend calls
	"errors"  // errors recognizes declined confirmations
	"fmt"     // fmt formats table rows
	"strconv" // strconv parses ids and page numbers
	"strings" // strings splits commands
	"sync"    // sync guards the shared list controller
	"time"    // time configures the debounce

	"github.com/hellenika/hellenika/internal/apperr"   // apperr maps errors to messages
	"github.com/hellenika/hellenika/internal/console"  // console reads commands
	"github.com/hellenika/hellenika/internal/greek"    // greek renders headwords
	"github.com/hellenika/hellenika/internal/logging"  // logging records form failures
	"github.com/hellenika/hellenika/internal/model"    // model holds the word types
	"github.com/hellenika/hellenika/internal/nav"      // nav drives screen transitions
	"github.com/hellenika/hellenika/internal/wordlist" // wordlist owns the list state
)

// WordStore is the word collection as the list screens need it.
type WordStore interface {
	wordlist.Words
	GetWordByID(ctx context.Context, id int64) (*model.Word, error)
}

// PendingCounter exposes the admin pending count.
type PendingCounter interface {
	Count() int
}

// WordsHandler runs the word list ("/") and the add and edit forms.  The
// list state survives moving between these screens so that a saved word
// shows up without a refetch.
type WordsHandler struct {
	Words    WordStore
	Auth     Authenticator
	Pending  PendingCounter
	Console  *console.Console
	Log      logging.Logger
	Debounce time.Duration
	PageSize int

	editor *formEditor

	mu    sync.Mutex
	list  *wordlist.Controller
	owner int64
}

func NewWordsHandler(words WordStore, a Authenticator, pending PendingCounter, tr Translator, c *console.Console, log logging.Logger, debounce time.Duration, pageSize int) *WordsHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &WordsHandler{
		Words:    words,
		Auth:     a,
		Pending:  pending,
		Console:  c,
		Log:      log,
		Debounce: debounce,
		PageSize: pageSize,
		editor:   &formEditor{console: c, translate: tr, log: log},
	}
}

// Close releases the list controller.
func (h *WordsHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.list != nil {
		h.list.Close()
		h.list = nil
	}
}

// controller returns the list for the signed-in user, starting a fresh one
// when the user changed.
func (h *WordsHandler) controller() *wordlist.Controller {
	var id int64
	if u := h.Auth.State().User; u != nil {
		id = u.ID
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.list != nil && h.owner == id {
		// A failed fetch, typically the 401 that sent the user back to
		// /auth, is retried when the list is shown again.
		if h.list.Snapshot().State == wordlist.Error {
			h.list.Refresh()
		}
		return h.list
	}
	if h.list != nil {
		h.list.Close()
	}
	h.list = wordlist.New(h.Words, wordlist.Options{Debounce: h.Debounce, PageSize: h.PageSize, Log: h.Log})
	h.owner = id
	h.list.Load()
	return h.list
}

// List shows the searchable, paginated word table.
func (h *WordsHandler) List(c *nav.Context) error {
	ctx := c.Context()
	list := h.controller()
	for {
		if err := list.WaitIdle(ctx); err != nil {
			return err
		}
		h.render(list.Snapshot())

		cmd, err := h.Console.Prompt(ctx, "> ")
		if err != nil {
			return quitOn(err)
		}
		verb, arg, _ := strings.Cut(cmd, " ")
		arg = strings.TrimSpace(arg)
		snap := list.Snapshot()
		switch strings.ToLower(verb) {
		case "":
		case "s", "search":
			list.SetSearch(arg)
		case "t", "type":
			if t := model.WordType(strings.ToLower(arg)); t == "" || t.Valid() {
				list.SetWordType(t)
			} else {
				h.Console.Printf("Unknown word type %q\n", arg)
			}
		case "g", "gender":
			if g := model.Gender(strings.ToLower(arg)); g == "" || g.Valid() {
				list.SetGender(g)
			} else {
				h.Console.Printf("Unknown gender %q\n", arg)
			}
		case "n", "next":
			if snap.Filters.Page < snap.Pages {
				list.SetPage(snap.Filters.Page + 1)
			}
		case "p", "prev":
			if snap.Filters.Page > 1 {
				list.SetPage(snap.Filters.Page - 1)
			}
		case "page":
			if n, err := strconv.Atoi(arg); err == nil {
				list.SetPage(n)
			}
		case "size":
			if n, err := strconv.Atoi(arg); err == nil && n > 0 {
				list.SetPageSize(n)
			}
		case "r", "retry", "refresh":
			list.Refresh()
		case "a", "add":
			return c.Navigate("/add")
		case "e", "edit":
			if _, err := strconv.ParseInt(arg, 10, 64); err != nil {
				h.Console.Println("Usage: edit ID")
				continue
			}
			return c.Navigate("/edit/" + arg)
		case "d", "delete":
			h.delete(ctx, list, arg)
		case "f", "flashcards":
			return c.Navigate("/flashcards")
		case "admin":
			return c.Navigate("/admin")
		case "logout":
			if err := h.Auth.Logout(ctx); err != nil {
				h.Log.Warnf("logout: %v", err)
			}
			h.Close()
			return c.Navigate("/auth")
		case "q", "quit":
			return nav.ErrQuit
		default:
			h.help()
		}
	}
}

func (h *WordsHandler) delete(ctx context.Context, list *wordlist.Controller, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		h.Console.Println("Usage: delete ID")
		return
	}
	err = list.Delete(ctx, id, func(w model.Word) bool {
		name := w.GreekWord
		if name == "" {
			name = "#" + arg
		}
		ok, err := h.Console.Confirm(ctx, fmt.Sprintf("Delete %q?", name))
		return err == nil && ok
	})
	switch {
	case errors.Is(err, apperr.ErrCancelled):
		h.Console.Println("Cancelled.")
	case err != nil:
		h.Console.Println(apperr.Message(err))
	default:
		h.Console.Println("Deleted.")
	}
}

// Add runs the new word form.
func (h *WordsHandler) Add(c *nav.Context) error {
	list := h.controller()
	return h.runForm(c, model.NewWordForm(), list.Create, list.CancelEdit)
}

// Edit runs the form for the word in the :id segment.
func (h *WordsHandler) Edit(c *nav.Context) error {
	ctx := c.Context()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.Console.Printf("Invalid word id %q\n", c.Param("id"))
		return c.Navigate("/")
	}
	list := h.controller()
	w, err := list.BeginEdit(id)
	if err != nil {
		fetched, ferr := h.Words.GetWordByID(ctx, id)
		if ferr != nil {
			h.Console.Println(apperr.Message(ferr))
			return c.Navigate("/")
		}
		w = *fetched
	}
	update := func(ctx context.Context, f model.WordFormData) (*model.Word, error) {
		return list.Update(ctx, id, f)
	}
	return h.runForm(c, model.FormFromWord(w), update, list.CancelEdit)
}

func (h *WordsHandler) runForm(c *nav.Context, form model.WordFormData, save func(context.Context, model.WordFormData) (*model.Word, error), cancel func()) error {
	ctx := c.Context()
	for {
		edited, ok, err := h.editor.edit(ctx, form)
		if err != nil {
			cancel()
			return quitOn(err)
		}
		if !ok {
			cancel()
			return c.Navigate("/")
		}
		w, err := save(ctx, edited)
		if err == nil {
			h.Console.Printf("Saved %s.\n", greek.Headword(*w))
			return c.Navigate("/")
		}
		showFormError(h.Console, err)
		again, cerr := h.Console.Confirm(ctx, "Edit again?")
		if cerr != nil || !again {
			cancel()
			if cerr != nil {
				return quitOn(cerr)
			}
			return c.Navigate("/")
		}
		form = edited
	}
}

func (h *WordsHandler) render(s wordlist.Snapshot) {
	out := h.Console
	out.Println()
	if s.State == wordlist.Error {
		out.Println(apperr.Message(s.Err))
		out.Println("Type r to try again.")
		return
	}
	var filters []string
	if s.Filters.Search != "" {
		filters = append(filters, fmt.Sprintf("search %q", s.Filters.Search))
	}
	if s.Filters.WordType != "" {
		filters = append(filters, "type "+string(s.Filters.WordType))
	}
	if s.Filters.Gender != "" {
		filters = append(filters, "gender "+string(s.Filters.Gender))
	}
	header := fmt.Sprintf("Words: page %d of %d, %d total", s.Filters.Page, max(s.Pages, 1), s.Total)
	if len(filters) > 0 {
		header += " (" + strings.Join(filters, ", ") + ")"
	}
	if st := h.Auth.State(); st.IsAdmin() && h.Pending != nil {
		header += fmt.Sprintf(". %d pending review", h.Pending.Count())
	}
	out.Println(header)
	if len(s.Words) == 0 {
		out.Println("  No words found.")
	}
	for _, w := range s.Words {
		out.Println(row(w))
	}
}

func row(w model.Word) string {
	meaning := ""
	if m, ok := w.PrimaryMeaning(); ok {
		meaning = m.EnglishMeaning
	}
	gender := ""
	if g := w.DisplayGender(); g != "" {
		gender = string(g)
	}
	line := fmt.Sprintf("  %4d  %-20s %-12s %-10s %s", w.ID, greek.Headword(w), w.WordType, gender, meaning)
	if w.ApprovalStatus != "" && w.ApprovalStatus != model.StatusApproved {
		line += " [" + string(w.ApprovalStatus) + "]"
	}
	return strings.TrimRight(line, " ")
}

func (h *WordsHandler) help() {
	h.Console.Println(`Commands:
  s TEXT     search            t TYPE    filter by type (empty clears)
  g GENDER   filter by gender  n / p     next / previous page
  page N     go to page        size N    page size
  a          add a word        e ID      edit a word
  d ID       delete a word     r         reload
  f          flashcards        admin     admin dashboard
  logout     sign out          q         quit`)
}
