package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ExitInterrupted is the conventional exit status after SIGINT.
const ExitInterrupted = 130

// DefaultInterruptNote tells the user what an interruption leaves behind.
// Every change is persisted as one write, so nothing is half applied.
const DefaultInterruptNote = "Changes that finished before the interrupt are saved; nothing partial was written."

// InterruptHandler cancels a context on the first SIGINT or SIGTERM and
// explains what happened to the work in flight. It stops listening after
// that, so a second signal terminates the process the default way.
type InterruptHandler struct {
	writer      io.Writer
	cancel      context.CancelFunc
	note        string
	mu          sync.Mutex
	interrupted bool
}

// NewInterruptHandler creates a handler writing to w, or stderr when w is nil.
func NewInterruptHandler(w io.Writer) *InterruptHandler {
	if w == nil {
		w = os.Stderr
	}
	return &InterruptHandler{writer: w, note: DefaultInterruptNote}
}

// SetNote replaces the line shown under "Interrupted!". An empty note hides it.
func (h *InterruptHandler) SetNote(note string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.note = note
}

// HandleInterrupts returns a child of ctx that is canceled on interrupt.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			h.interrupt()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) interrupt() {
	h.mu.Lock()
	first := !h.interrupted
	h.interrupted = true
	note := h.note
	h.mu.Unlock()

	if first {
		h.report(note)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *InterruptHandler) report(note string) {
	msg := "\n" + FormatWarning("Interrupted!") + "\n"
	if note != "" {
		msg += FormatInfo(note) + "\n"
	}
	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted reports whether a signal canceled the context.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
