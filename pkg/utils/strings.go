package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile("[^a-z0-9 -]+")
	slugHyphenRuns   = regexp.MustCompile("-+")
)

// GenerateSlug converts a string into a URL-friendly slug.
// e.g. "Men's Panjabi (Eid)" -> "mens-panjabi-eid"
func GenerateSlug(input string) string {
	s := strings.ToLower(input)

	// Keep a-z, 0-9, space, hyphen
	s = slugInvalidChars.ReplaceAllString(s, "")

	s = strings.ReplaceAll(s, " ", "-")
	s = slugHyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	return s
}

// ParseInt parses a string to int with a fallback default value
func ParseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}
