package util

import "strings"

// FallbackFileName replaces names that leave nothing usable after sanitizing.
const FallbackFileName = "file"

// SanitizeFileName reduces a client-supplied name to a single path element.
// Separators become underscores; a blank or all-dot name becomes FallbackFileName.
func SanitizeFileName(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if strings.Trim(s, ".") == "" {
		return FallbackFileName
	}
	return s
}
