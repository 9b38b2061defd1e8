package pdfextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlank(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"whitespace only", "   \n\t  ", true},
		{"has content", "hello", false},
		{"content with surrounding whitespace", "  hello  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBlank(tt.text))
		})
	}
}

func TestExtract_MissingFile(t *testing.T) {
	e := New()
	_, err := e.Extract("/nonexistent/path/to/file.pdf")
	assert.Error(t, err)
}
