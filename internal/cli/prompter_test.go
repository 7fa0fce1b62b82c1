package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
		prompts  int
	}{
		{name: "yes", input: "y\n", expected: true, prompts: 1},
		{name: "yes word mixed case", input: "  YeS \n", expected: true, prompts: 1},
		{name: "no", input: "n\n", expected: false, prompts: 1},
		{name: "empty answer declines", input: "\n", expected: false, prompts: 1},
		{name: "end of input declines", input: "", expected: false, prompts: 1},
		{name: "unterminated yes", input: "y", expected: true, prompts: 1},
		{name: "invalid then yes", input: "maybe\ny\n", expected: true, prompts: 2},
		{name: "invalid then end of input", input: "maybe\n", expected: false, prompts: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			ok, err := p.Confirm(context.Background(), "Replace everything?")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.Equal(t, tt.prompts, strings.Count(out.String(), "[y/N]"))
			assert.Contains(t, out.String(), "Replace everything?")
		})
	}
}

func TestPrompter_ConfirmCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pr.Close() }()
	defer func() { _ = pw.Close() }()

	p := NewPrompter(pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ok, err := p.Confirm(ctx, "Continue?")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestPrompter_Notify(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		var out bytes.Buffer
		NewPrompter(strings.NewReader(""), &out).Notify("Imported 3 expenses from CSV.")
		assert.Contains(t, out.String(), "Imported 3 expenses from CSV.")
	})

	t.Run("multi line renders a box", func(t *testing.T) {
		var out bytes.Buffer
		NewPrompter(strings.NewReader(""), &out).Notify("CSV Import Issues:\nfirst problem\nsecond problem")
		s := out.String()
		assert.Contains(t, s, "CSV Import Issues:")
		assert.Contains(t, s, "first problem")
		assert.Contains(t, s, "second problem")
		assert.Contains(t, s, "╭")
	})
}

func TestAutoConfirm(t *testing.T) {
	ok, err := AutoConfirm{Answer: true}.Confirm(context.Background(), "Sure?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AutoConfirm{}.Confirm(context.Background(), "Sure?")
	require.NoError(t, err)
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AutoConfirm{Answer: true}.Confirm(ctx, "Sure?")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProgress(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out, 3, "Importing files...")

	p.Step()
	p.Step()
	assert.Equal(t, 2, p.Done())

	p.Step()
	p.Step() // past the end is ignored
	assert.Equal(t, 3, p.Done())

	p.Finish()
	assert.Equal(t, 3, p.Done())
}

func TestFormatCategory(t *testing.T) {
	assert.Contains(t, FormatCategory("🍔", "Food", "#ef4444"), "🍔 Food")
	assert.Contains(t, FormatCategory("", "Food", "not-a-color"), "Food")
	assert.Contains(t, FormatCategory("📦", "Other", ""), "📦 Other")
}
