package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// amountSymbols are removed before parsing. Thousands separators go with them.
var amountSymbols = strings.NewReplacer("₹", "", "$", "", ",", "")

// Amount parses raw as a decimal number after stripping currency symbols,
// commas, and whitespace. Sign is preserved; positivity is the caller's concern.
func Amount(raw string) (decimal.Decimal, error) {
	s := amountSymbols.Replace(strings.TrimSpace(raw))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if s == "" {
		return decimal.Zero, ErrEmptyValue
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return d, nil
}
