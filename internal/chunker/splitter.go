// Package chunker implements a recursive character splitter: text is
// cut at the largest natural boundary (paragraph, then line, then
// sentence, then space) that fits inside the configured size, falling
// back to a hard cut. Each span carries the exact character start
// offset in the source text, since that offset is part of the chunk id.
package chunker

import "strings"

// separators are tried in order, largest structural boundary first,
// mirroring the original's RecursiveCharacterTextSplitter(chunk_size,
// chunk_overlap, add_start_index=True) preference list.
var separators = []string{"\n\n", "\n", ". ", " "}

// Service is the recursive character splitter.
type Service struct{}

// New constructs a Service.
func New() *Service {
	return &Service{}
}

// TextSpan is one output of Split: a substring of the input plus its
// starting character offset in that input.
type TextSpan struct {
	Text       string
	StartIndex int
}

// Split divides text into spans of at most size characters (best
// effort; a span may exceed size only when a single unbreakable run of
// non-separator characters is longer than size), each overlapping the
// previous span's tail by overlap characters.
func (s *Service) Split(text string, size, overlap int) []TextSpan {
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	total := len(runes)

	var spans []TextSpan
	cursor := 0
	for cursor < total {
		end := s.boundaryEnd(runes, cursor, size)
		spanText := strings.TrimRight(string(runes[cursor:end]), " \t\r\n")
		if spanText != "" {
			spans = append(spans, TextSpan{Text: spanText, StartIndex: cursor})
		}

		if end >= total {
			break
		}
		next := end - overlap
		if next <= cursor {
			next = end
		}
		cursor = next
	}
	return spans
}

// boundaryEnd finds the end of the next chunk starting at cursor: the
// furthest separator boundary within (cursor, cursor+size], falling
// back to a hard cut at cursor+size when no separator fits. Works in
// rune offsets throughout so StartIndex stays a character offset even
// for multi-byte text.
func (s *Service) boundaryEnd(runes []rune, cursor, size int) int {
	total := len(runes)
	limit := cursor + size
	if limit >= total {
		return total
	}

	window := runes[cursor:limit]
	for _, sep := range separators {
		sepRunes := []rune(sep)
		if idx := lastIndexRunes(window, sepRunes); idx > 0 {
			return cursor + idx + len(sepRunes)
		}
	}
	return limit
}

// lastIndexRunes returns the rune offset of the last occurrence of sep
// in s, or -1 if sep does not occur.
func lastIndexRunes(s, sep []rune) int {
	if len(sep) == 0 || len(sep) > len(s) {
		return -1
	}
	for i := len(s) - len(sep); i >= 0; i-- {
		if runesEqual(s[i:i+len(sep)], sep) {
			return i
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
