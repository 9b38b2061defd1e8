package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_RespectsSizeAndOverlap(t *testing.T) {
	s := New()
	text := strings.Repeat("word ", 400) // 2000 chars
	spans := s.Split(text, 300, 50)

	require.GreaterOrEqual(t, len(spans), 2)
	for i, span := range spans {
		assert.NotEmptyf(t, span.Text, "span %d is empty", i)
		assert.LessOrEqualf(t, len([]rune(span.Text)), 300+10, "span %d exceeds size", i)
	}
}

func TestSplit_StartIndexesAreIncreasingAndExact(t *testing.T) {
	s := New()
	text := "Alpha paragraph one.\n\nBeta paragraph two.\n\nGamma paragraph three."
	spans := s.Split(text, 30, 5)

	prev := -1
	runes := []rune(text)
	for _, span := range spans {
		require.Greater(t, span.StartIndex, prev, "start indexes must strictly increase")
		prev = span.StartIndex
		got := string(runes[span.StartIndex : span.StartIndex+len([]rune(span.Text))])
		assert.Equal(t, span.Text, got)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	s := New()
	assert.Nil(t, s.Split("", 100, 10))
}

func TestSplit_OverlapEqualToSizeIsIgnored(t *testing.T) {
	s := New()
	text := strings.Repeat("x", 500)
	spans := s.Split(text, 100, 100) // invalid overlap, should not infinite-loop
	assert.NotEmpty(t, spans)
}

func TestSplit_ShortTextSingleSpan(t *testing.T) {
	s := New()
	spans := s.Split("hello world", 1000, 100)
	require.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].StartIndex)
	assert.Equal(t, "hello world", spans[0].Text)
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	s := New()
	text := "First paragraph here is short.\n\nSecond paragraph follows after the break."
	spans := s.Split(text, 40, 0)
	require.GreaterOrEqual(t, len(spans), 2)
	assert.True(t, strings.HasSuffix(spans[0].Text, "."))
}
