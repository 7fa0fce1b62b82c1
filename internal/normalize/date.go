package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/xpense/internal/model"
)

// DefaultDateFormats is the ordered list of layouts tried when no explicit list
// is configured. Month-first slash dates win over day-first ones; configure
// import.date_formats to change that.
var DefaultDateFormats = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon, 2 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// DateParser parses date text using an ordered list of accepted layouts.
type DateParser struct {
	formats []string
}

// NewDateParser creates a parser trying formats in order. An empty list means DefaultDateFormats.
func NewDateParser(formats []string) *DateParser {
	cleaned := make([]string, 0, len(formats))
	for _, f := range formats {
		if f = strings.TrimSpace(f); f != "" {
			cleaned = append(cleaned, f)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultDateFormats...)
	}
	return &DateParser{formats: cleaned}
}

// Formats returns the layouts in priority order.
func (p *DateParser) Formats() []string {
	out := make([]string, len(p.formats))
	copy(out, p.formats)
	return out
}

// Normalize returns raw as a YYYY-MM-DD calendar date. Time of day and zone
// are discarded: the date is the one written in the input, not its UTC instant.
func (p *DateParser) Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyValue
	}

	for _, layout := range p.formats {
		if t, err := time.Parse(layout, s); err == nil {
			return model.FormatDate(t), nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
