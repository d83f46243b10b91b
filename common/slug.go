package common

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

func Slugify(input, fallback string) (string, error) {
	slug := slugify(input)
	if slug == "" {
		slug = slugify(fallback)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

// ReportFilename derives a download filename from a research topic,
// e.g. "Renewable Energy" -> "renewable_energy_report.md".
func ReportFilename(topic string) string {
	slug, err := Slugify(topic, "research")
	if err != nil {
		slug = "research"
	}
	return slug + "_report.md"
}

// Underscore separator: report filenames keep the underscore style the API
// has always served.
func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := nonSlugChars.ReplaceAllString(lower, "_")
	return strings.Trim(slug, "_")
}
