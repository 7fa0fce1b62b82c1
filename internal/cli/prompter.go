package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Prompter asks yes/no questions and shows notices on the terminal.
type Prompter struct {
	writer io.Writer
	reader *AnswerReader
	mu     sync.Mutex
}

// NewPrompter creates a prompter with the given reader and writer.
// Nil arguments fall back to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewAnswerReader(reader),
		writer: writer,
	}
}

// Confirm asks prompt and waits for y/yes or n/no. An empty answer or end of
// input declines. Anything else re-asks.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if _, err := fmt.Fprintf(p.writer, "%s[y/N] ", FormatPrompt(prompt)); err != nil {
			return false, fmt.Errorf("failed to write prompt: %w", err)
		}

		answer, eof, err := p.reader.ReadAnswer(ctx)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}

		if eof {
			return false, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Please answer y or n.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}

// Notify prints a message. Multi-line messages are rendered in a box under
// their first line.
func (p *Prompter) Notify(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := FormatInfo(message)
	if title, body, ok := strings.Cut(message, "\n"); ok {
		out = RenderBox(title, body)
	}

	if _, err := fmt.Fprintln(p.writer, out); err != nil {
		slog.Warn("Failed to write notice", "error", err)
	}
}

// AutoConfirm answers every confirmation with Answer without prompting.
// It backs the --yes flag.
type AutoConfirm struct {
	Answer bool
}

// Confirm returns the fixed answer unless ctx is done.
func (a AutoConfirm) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	slog.Debug("Auto-answered confirmation", "prompt", prompt, "answer", a.Answer)
	return a.Answer, nil
}
