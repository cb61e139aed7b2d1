package utils

import "strings"

var invalidFilenameChars = []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}

// SanitizeFilename makes a series or chapter name usable as a single path element.
func SanitizeFilename(name string) string {
	result := name
	for _, char := range invalidFilenameChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	if result == "" {
		return "_"
	}
	return result
}
