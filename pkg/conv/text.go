package conv

import (
	"strings"

	"github.com/inbucket/html2text"
)

// HTMLToText flattens an HTML fragment (an email body) into plain text.
// Links are dropped; only their anchor text is kept.
func HTMLToText(body string) (string, error) {
	if !LooksLikeHTML(body) {
		return strings.TrimSpace(body), nil
	}
	text, err := html2text.FromString(body, html2text.Options{OmitLinks: true})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// LooksLikeHTML reports whether s contains something shaped like a tag.
func LooksLikeHTML(s string) bool {
	open := strings.IndexByte(s, '<')
	if open < 0 || open+1 >= len(s) {
		return false
	}
	next := s[open+1]
	isLetter := (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z') || next == '/' || next == '!'
	return isLetter && strings.IndexByte(s[open:], '>') > 0
}
