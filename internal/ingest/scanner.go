package ingest

import (
	"iter"
	"strings"
)

// Lines yields (1-based physical line number, trimmed line) for every line of
// text that is non-empty after trimming. Both "\n" and "\r\n" terminate a
// line. The sequence can be ranged over any number of times.
func Lines(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		n := 0
		for line := range strings.Lines(text) {
			n++
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if !yield(n, line) {
				return
			}
		}
	}
}
