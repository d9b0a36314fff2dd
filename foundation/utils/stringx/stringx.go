// File: stringx.go
// Title: String Utility Functions
// Description: Small Unicode-aware string helpers shared by the command
//              engine, the CLI and the terminal grid view.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core utilities
// - 2026-10-15 v0.2.0: Reduced to the helpers in use, padding shares one path

// Package stringx provides string helpers that the standard library lacks.
package stringx

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsBlank returns true if the string is empty or contains only whitespace
func IsBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// IsNotBlank is the inverse of IsBlank
func IsNotBlank(s string) bool {
	return !IsBlank(s)
}

// Truncate shortens s to maxLen runes, ending in ellipsis when cut.
// Multi-byte characters are never split.
func Truncate(s string, maxLen int, ellipsis string) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	ellipsisLen := utf8.RuneCountInString(ellipsis)
	if ellipsisLen >= maxLen {
		return string([]rune(s)[:maxLen])
	}
	return string([]rune(s)[:maxLen-ellipsisLen]) + ellipsis
}

// PadLeft pads s on the left to width runes
func PadLeft(s string, width int, pad rune) string {
	return strings.Repeat(string(pad), missing(s, width)) + s
}

// PadRight pads s on the right to width runes
func PadRight(s string, width int, pad rune) string {
	return s + strings.Repeat(string(pad), missing(s, width))
}

// Center pads s on both sides to width runes, the extra rune going right
func Center(s string, width int, pad rune) string {
	n := missing(s, width)
	return strings.Repeat(string(pad), n/2) + s + strings.Repeat(string(pad), n-n/2)
}

func missing(s string, width int) int {
	if n := width - utf8.RuneCountInString(s); n > 0 {
		return n
	}
	return 0
}

// SplitLines splits s on \n, \r\n and \r
func SplitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// FirstNonBlank returns the first argument that is not blank
func FirstNonBlank(values ...string) string {
	for _, s := range values {
		if IsNotBlank(s) {
			return s
		}
	}
	return ""
}
