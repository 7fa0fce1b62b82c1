package csvimport

import "strings"

// SplitRow splits one physical line into trimmed fields on commas. Double
// quotes toggle a span in which commas are literal; the quote characters are
// consumed and never appear in field content. Embedded newlines are not
// supported. The result always holds at least one field.
func SplitRow(line string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return append(fields, strings.TrimSpace(current.String()))
}
