// Package console is the terminal I/O used by the screens: line prompts
// that give up when their context ends, hidden password input, and
// yes/no confirmations.
package console

import (
	"bufio"   // bufio reads input one line at a time
	"context" // context lets a redirect abandon a prompt
	"errors"  // errors reports closed input
	"fmt"     // fmt formats output
	"io"      // io abstracts the terminal streams
	"os"      // os identifies a real terminal
	"strings" // strings trims input
	"sync"    // sync guards the outstanding read

	"golang.org/x/term" // term reads passwords without echo
)

// ErrClosed is returned once input has reached EOF.
var ErrClosed = errors.New("input closed")

type line struct {
	text string
	err  error
}

// Console reads from in and writes to out.  At most one read is
// outstanding, visible or hidden; a prompt abandoned by its context leaves
// that read in place and the next prompt receives its line.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	// secret reads one line without echo; nil when in is not a terminal.
	secret func() (string, error)

	mu      sync.Mutex
	pending chan line
}

// New returns a console over in and out.  When in is a terminal, passwords
// are read without echo.
func New(in io.Reader, out io.Writer) *Console {
	c := &Console{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		c.secret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			return string(b), err
		}
	}
	return c
}

// Out returns the output writer.
func (c *Console) Out() io.Writer { return c.out }

// Printf writes formatted output.
func (c *Console) Printf(format string, args ...any) { fmt.Fprintf(c.out, format, args...) }

// Println writes a line.
func (c *Console) Println(args ...any) { fmt.Fprintln(c.out, args...) }

// Prompt prints label and returns the trimmed line typed in reply.
func (c *Console) Prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(c.out, label)
	return c.readLine(ctx)
}

// Password prints label and reads a line without echo when possible.  A
// visible read still outstanding from an abandoned prompt is used as is.
func (c *Console) Password(ctx context.Context, label string) (string, error) {
	fmt.Fprint(c.out, label)
	if c.secret == nil {
		return c.readLine(ctx)
	}
	c.mu.Lock()
	busy := c.pending != nil
	c.mu.Unlock()
	if busy {
		return c.readLine(ctx)
	}
	s, err := c.read(ctx, c.secret)
	if err == nil {
		fmt.Fprintln(c.out)
	}
	return s, err
}

// Confirm asks a yes/no question.  Anything but y or yes is a no.
func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := c.Prompt(ctx, question+" [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	return c.read(ctx, func() (string, error) {
		s, err := c.in.ReadString('\n')
		if err != nil && s != "" && errors.Is(err, io.EOF) {
			err = nil
		}
		if errors.Is(err, io.EOF) {
			err = ErrClosed
		}
		return strings.TrimRight(s, "\r\n"), err
	})
}

// read waits for the outstanding read, starting one with next when there
// is none.  A cancelled ctx never consumes a line.
func (c *Console) read(ctx context.Context, next func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	if c.pending == nil {
		ch := make(chan line, 1)
		c.pending = ch
		go func() {
			s, err := next()
			ch <- line{text: s, err: err}
		}()
	}
	ch := c.pending
	c.mu.Unlock()

	select {
	case l := <-ch:
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		return strings.TrimSpace(l.text), l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
