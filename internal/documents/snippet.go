package documents

import "unicode"

// SnippetLength is the window of content shown around a keyword match.
const SnippetLength = 150

const ellipsis = "..."

// Snippet returns an excerpt of content centred on the first case-insensitive
// occurrence of keyword. Positions count runes of the original content.
func Snippet(content, keyword string) string {
	if keyword == "" {
		return ""
	}
	text := []rune(content)
	needle := []rune(keyword)

	idx := indexFold(text, needle)
	if idx < 0 {
		if len(text) <= SnippetLength {
			return content
		}
		return string(text[:SnippetLength]) + ellipsis
	}

	start := max(0, idx-SnippetLength/2)
	end := min(len(text), idx+len(needle)+SnippetLength/2)

	out := string(text[start:end])
	if start > 0 {
		out = ellipsis + out
	}
	if end < len(text) {
		out += ellipsis
	}
	return out
}

// indexFold finds needle in text comparing runes by their lower-case form.
func indexFold(text, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(text) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(text); i++ {
		for j, r := range needle {
			if unicode.ToLower(text[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}
