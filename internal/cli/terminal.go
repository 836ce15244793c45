package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

var (
	colorBot    = lipgloss.Color("#83a598")
	colorAsk    = lipgloss.Color("#fabd2f")
	colorDim    = lipgloss.Color("#928374")
	colorHeader = lipgloss.Color("#fe8019")

	styleBot    = lipgloss.NewStyle().Foreground(colorBot)
	styleAsk    = lipgloss.NewStyle().Foreground(colorAsk).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
)

// palette renders styled text, or plain text when output is not a terminal.
type palette struct {
	color bool
}

func (p palette) render(style lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return style.Render(text)
}

// Terminal is a line-oriented conversation over a reader and a writer.
type Terminal struct {
	id    string
	out   io.Writer
	p     palette
	ctx   context.Context
	lines chan string
	done  chan struct{}
	start sync.Once
	stop  sync.Once
	in    io.Reader
}

// NewTerminal creates a conversation on in and out. Ask returns ctx.Err()
// once ctx is cancelled, even while waiting for input.
func NewTerminal(ctx context.Context, in io.Reader, out io.Writer, color bool) *Terminal {
	return &Terminal{
		id:    uuid.NewString(),
		out:   out,
		p:     palette{color: color},
		ctx:   ctx,
		lines: make(chan string),
		done:  make(chan struct{}),
		in:    in,
	}
}

func (t *Terminal) ID() string { return t.id }

func (t *Terminal) Say(text string) error {
	_, err := fmt.Fprintln(t.out, t.p.render(styleBot, text))
	return err
}

func (t *Terminal) Ask(prompt string) (string, error) {
	if _, err := fmt.Fprintf(t.out, "%s\n%s", t.p.render(styleAsk, prompt), t.p.render(styleDim, "> ")); err != nil {
		return "", err
	}
	t.start.Do(func() { go t.read() })

	select {
	case <-t.ctx.Done():
		return "", t.ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimRight(line, "\r"), nil
	}
}

// Close stops the input reader once it is unblocked.
func (t *Terminal) Close() {
	t.stop.Do(func() { close(t.done) })
}

func (t *Terminal) read() {
	defer close(t.lines)
	sc := bufio.NewScanner(t.in)
	for sc.Scan() {
		select {
		case t.lines <- sc.Text():
		case <-t.done:
			return
		}
	}
	if err := sc.Err(); err != nil {
		slog.Warn("reading input", "error", err)
	}
}
