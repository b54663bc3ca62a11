package common

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseLeadingInt reads an optionally signed run of leading decimal digits after trimming
// whitespace, ignoring whatever follows ("12px" is 12, "3.9" is 3). Input without leading
// digits yields fallback.
func ParseLeadingInt(value string, fallback int) int {
	value = strings.TrimLeftFunc(value, unicode.IsSpace)
	end := 0
	if end < len(value) && (value[end] == '+' || value[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return fallback
	}
	parsed, err := strconv.Atoi(value[:end])
	if err != nil {
		return fallback
	}
	return parsed
}
