package utils

import "strings"

// IsEmpty reports whether the string is empty or only whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
