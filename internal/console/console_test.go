package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestPromptAndConfirm(t *testing.T) {
	out := &bytes.Buffer{}
	c := New(strings.NewReader("  maria@example.com \nyes\nnope\n"), out)
	ctx := context.Background()

	email, err := c.Prompt(ctx, "Email: ")
	if err != nil || email != "maria@example.com" {
		t.Fatalf("prompt: %q, %v", email, err)
	}
	ok, err := c.Confirm(ctx, "Delete?")
	if err != nil || !ok {
		t.Fatalf("confirm yes: %t, %v", ok, err)
	}
	ok, err = c.Confirm(ctx, "Delete?")
	if err != nil || ok {
		t.Fatalf("confirm other: %t, %v", ok, err)
	}
	if !strings.Contains(out.String(), "Email: ") || !strings.Contains(out.String(), "Delete? [y/N] ") {
		t.Fatalf("output %q", out.String())
	}
}

func TestPasswordWithoutTerminal(t *testing.T) {
	c := New(strings.NewReader("s3cret\n"), io.Discard)
	pw, err := c.Password(context.Background(), "Password: ")
	if err != nil || pw != "s3cret" {
		t.Fatalf("password %q, %v", pw, err)
	}
}

func TestLastLineWithoutNewline(t *testing.T) {
	c := New(strings.NewReader("tail"), io.Discard)
	s, err := c.Prompt(context.Background(), "")
	if err != nil || s != "tail" {
		t.Fatalf("got %q, %v", s, err)
	}
	if _, err := c.Prompt(context.Background(), ""); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCancelledPromptKeepsLine(t *testing.T) {
	r, w := io.Pipe()
	c := New(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Prompt(ctx, "> "); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}

	go func() { _, _ = w.Write([]byte("late\n")) }()
	s, err := c.Prompt(context.Background(), "> ")
	if err != nil || s != "late" {
		t.Fatalf("next prompt got %q, %v", s, err)
	}
}

func TestAbandonedPasswordReadFeedsNextPrompt(t *testing.T) {
	typed := make(chan string)
	c := New(strings.NewReader("never read\n"), io.Discard)
	c.secret = func() (string, error) { return <-typed, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Password(ctx, "Password: ")
		done <- err
	}()
	// Wait until the hidden read is outstanding before abandoning it.
	for {
		c.mu.Lock()
		started := c.pending != nil
		c.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	go func() { typed <- "next" }()
	s, err := c.Prompt(context.Background(), "> ")
	if err != nil || s != "next" {
		t.Fatalf("next prompt got %q, %v", s, err)
	}
}

func TestCancelledPromptConsumesNothing(t *testing.T) {
	c := New(strings.NewReader("keep\n"), io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Prompt(ctx, "> "); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	s, err := c.Prompt(context.Background(), "> ")
	if err != nil || s != "keep" {
		t.Fatalf("got %q, %v", s, err)
	}
}
