package conv

import "strings"

// FirstJSONObject returns the first balanced {...} object in content, or ""
// when there is none. Markdown code fences and surrounding prose are
// skipped; braces inside JSON strings do not count.
func FirstJSONObject(content string) string {
	start := strings.IndexByte(content, '{')
	for start != -1 {
		if end := matchBrace(content[start:]); end != -1 {
			return content[start : start+end+1]
		}
		next := strings.IndexByte(content[start+1:], '{')
		if next == -1 {
			return ""
		}
		start += next + 1
	}
	return ""
}

func matchBrace(s string) int {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
