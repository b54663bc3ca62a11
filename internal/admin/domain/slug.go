package domain

import (
	"regexp"
	"strings"
)

const maxSlugLength = 80

const (
	DefaultPollSlug     = "poll"
	DefaultQuestionSlug = "question"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases input, collapses every run of non-alphanumerics to one hyphen, trims
// hyphens from both ends and keeps at most 80 characters. An empty result yields fallback.
func Slugify(input, fallback string) string {
	slug := nonSlugChars.ReplaceAllString(strings.TrimSpace(strings.ToLower(input)), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	if slug == "" {
		return fallback
	}
	return slug
}
