package xiter

import (
	"bytes"
	"iter"
)

// Lines yields every line of data together with its 1-based number.
//
// The "\n" or "\r\n" terminator is stripped. Unlike bufio.Scanner there is
// no limit on the line length.
func Lines(data []byte) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		lineno := 0
		for line := range bytes.Lines(data) {
			lineno++

			line = bytes.TrimSuffix(line, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))
			if !yield(lineno, string(line)) {
				return
			}
		}
	}
}
