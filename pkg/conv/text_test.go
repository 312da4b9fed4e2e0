package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "plain text untouched",
			input:    "  납기일은 다음 주 화요일입니다  ",
			contains: []string{"납기일은 다음 주 화요일입니다"},
		},
		{
			name:     "comparison is not a tag",
			input:    "price < 100 and > 50",
			contains: []string{"price < 100 and > 50"},
		},
		{
			name:     "paragraphs flattened",
			input:    "<p>안녕하세요</p><p><b>견적</b> 첨부합니다</p>",
			contains: []string{"안녕하세요", "견적", "첨부합니다"},
			excludes: []string{"<p>", "<b>"},
		},
		{
			name:     "links reduced to text",
			input:    `<a href="https://example.com/po/42">발주서 보기</a>`,
			contains: []string{"발주서 보기"},
			excludes: []string{"https://example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLToText(tt.input)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, bad := range tt.excludes {
				assert.NotContains(t, got, bad)
			}
		})
	}
}
