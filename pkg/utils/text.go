// Package utils provides shared utilities for text, math, and logging.
package utils

// Truncate returns s cut to maxLen runes with marker appended when anything was removed.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int, marker string) string {
	if maxLen <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + marker
		}
		n++
	}
	return s
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
