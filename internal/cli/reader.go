package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when a read is abandoned because its context ended.
var ErrInputCancelled = errors.New("input canceled")

// AnswerReader reads one trimmed line per question and gives up when the
// context ends. An abandoned read finishes in the background and its line is
// dropped.
type AnswerReader struct {
	buf *bufio.Reader
	mu  sync.Mutex
}

// NewAnswerReader wraps r. It panics on a nil reader.
func NewAnswerReader(r io.Reader) *AnswerReader {
	if r == nil {
		panic("cli: nil answer reader")
	}
	return &AnswerReader{buf: bufio.NewReader(r)}
}

type answer struct {
	text string
	eof  bool
	err  error
}

// ReadAnswer returns the next line without surrounding whitespace. eof is set
// once the input is exhausted, possibly together with a final unterminated line.
func (r *AnswerReader) ReadAnswer(ctx context.Context) (text string, eof bool, err error) {
	if ctx.Err() != nil {
		return "", false, ErrInputCancelled
	}

	done := make(chan answer, 1)
	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		line, err := r.buf.ReadString('\n')
		a := answer{text: strings.TrimSpace(line)}
		switch {
		case errors.Is(err, io.EOF):
			a.eof = true
		case err != nil:
			a.err = err
		}
		done <- a
	}()

	select {
	case <-ctx.Done():
		return "", false, ErrInputCancelled
	case a := <-done:
		return a.text, a.eof, a.err
	}
}
