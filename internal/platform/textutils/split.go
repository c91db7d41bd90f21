// Package textutils provides text chunking helpers for size-capped
// message delivery.
package textutils

import "strings"

// SplitMessage splits text into parts of at most limit runes, preferring
// line boundaries. A single line longer than the limit is hard-cut.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
		length  int
	)

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			length = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)

		for len(runes) > limit {
			flush()
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}

		// +1 for the newline separator.
		if length > 0 && length+1+len(runes) > limit {
			flush()
		}

		if length > 0 {
			current.WriteByte('\n')
			length++
		}

		current.WriteString(string(runes))
		length += len(runes)
	}

	flush()

	if len(parts) == 0 {
		return []string{""}
	}

	return parts
}
