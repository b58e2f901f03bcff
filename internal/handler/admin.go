package handler

import (
	"context" // context bounds dashboard calls
	"strconv" // strconv parses word ids
	"strings" // strings splits commands

	"github.com/hellenika/hellenika/internal/apperr"  // apperr maps errors to messages
	"github.com/hellenika/hellenika/internal/console" // console reads commands
	"github.com/hellenika/hellenika/internal/greek"   // greek renders headwords
	"github.com/hellenika/hellenika/internal/logging" // logging records refresh failures
	"github.com/hellenika/hellenika/internal/model"   // model holds dashboard rows
	"github.com/hellenika/hellenika/internal/nav"     // nav drives screen transitions
)

// Dashboard is the admin summary backend.
type Dashboard interface {
	Stats(ctx context.Context) (*model.DashboardStats, error)
	RecentUsers(ctx context.Context) ([]model.RecentUser, error)
	RecentContent(ctx context.Context) ([]model.RecentContent, error)
}

// Moderator lists and decides on pending words.
type Moderator interface {
	GetPendingWords(ctx context.Context) ([]model.Word, error)
	ApproveWord(ctx context.Context, id int64) (*model.Word, error)
	RejectWord(ctx context.Context, id int64) (*model.Word, error)
}

// PendingRefresher is told to recount after a moderation decision.
type PendingRefresher interface {
	Refresh(ctx context.Context) error
}

// AdminHandler runs the /admin dashboard.
type AdminHandler struct {
	Dashboard Dashboard
	Words     Moderator
	Pending   PendingRefresher
	Console   *console.Console
	Log       logging.Logger
}

func NewAdminHandler(d Dashboard, words Moderator, pending PendingRefresher, c *console.Console, log logging.Logger) *AdminHandler {
	if log == nil {
		log = logging.Discard()
	}
	return &AdminHandler{Dashboard: d, Words: words, Pending: pending, Console: c, Log: log}
}

// Screen prints the dashboard and handles approve/reject commands.
func (h *AdminHandler) Screen(c *nav.Context) error {
	ctx := c.Context()
	h.summary(ctx)
	for {
		pending, err := h.Words.GetPendingWords(ctx)
		if err != nil {
			h.Console.Println(apperr.Message(err))
		} else {
			h.pending(pending)
		}

		cmd, err := h.Console.Prompt(ctx, "[a ID] approve, [x ID] reject, [r]efresh, [b]ack, [q]uit: ")
		if err != nil {
			return quitOn(err)
		}
		verb, arg, _ := strings.Cut(cmd, " ")
		switch strings.ToLower(verb) {
		case "a", "approve":
			h.decide(ctx, arg, h.Words.ApproveWord, "Approved")
		case "x", "reject":
			h.decide(ctx, arg, h.Words.RejectWord, "Rejected")
		case "r", "refresh":
			h.summary(ctx)
		case "b", "back":
			return c.Navigate("/")
		case "q", "quit":
			return nav.ErrQuit
		}
	}
}

func (h *AdminHandler) decide(ctx context.Context, arg string, action func(context.Context, int64) (*model.Word, error), done string) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		h.Console.Println("Usage: a ID or x ID")
		return
	}
	w, err := action(ctx, id)
	if err != nil {
		h.Console.Println(apperr.Message(err))
		return
	}
	h.Console.Printf("%s %s.\n", done, greek.Headword(*w))
	if h.Pending != nil {
		if err := h.Pending.Refresh(ctx); err != nil {
			h.Log.Warnf("pending count refresh: %v", err)
		}
	}
}

func (h *AdminHandler) summary(ctx context.Context) {
	out := h.Console
	stats, err := h.Dashboard.Stats(ctx)
	if err != nil {
		out.Println(apperr.Message(err))
		return
	}
	out.Println("\nAdmin dashboard")
	out.Printf("  Users:   %d total, %d active, %+d this month\n", stats.TotalUsers, stats.ActiveUsers, stats.UserGrowth)
	out.Printf("  Content: %d total, %+d this month\n", stats.TotalContent, stats.ContentGrowth)

	if users, err := h.Dashboard.RecentUsers(ctx); err != nil {
		h.Log.Warnf("recent users: %v", err)
	} else if len(users) > 0 {
		out.Println("Recent users:")
		for _, u := range users {
			out.Printf("  %-24s %-28s %-12s %s\n", u.Name, u.Email, u.Joined, u.Status)
		}
	}
	if content, err := h.Dashboard.RecentContent(ctx); err != nil {
		h.Log.Warnf("recent content: %v", err)
	} else if len(content) > 0 {
		out.Println("Recent content:")
		for _, item := range content {
			out.Printf("  %-24s %-12s %-12s %s\n", item.Title, item.Type, item.Created, item.Status)
		}
	}
}

func (h *AdminHandler) pending(words []model.Word) {
	if len(words) == 0 {
		h.Console.Println("No words awaiting review.")
		return
	}
	h.Console.Printf("Pending review (%d):\n", len(words))
	for _, w := range words {
		line := row(w)
		if w.Submitter != nil {
			line += "  by " + w.Submitter.Email
		}
		h.Console.Println(line)
	}
}
