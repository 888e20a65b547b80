package utils

import (
	"regexp"
	"strings"
)

var (
	matchFirstCap  = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap    = regexp.MustCompile("([a-z0-9])([A-Z])")
	unsafeFileName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

func ToSnakeCase(string string) string {
	snake := matchFirstCap.ReplaceAllString(string, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

// SanitizeFilename replaces runs of characters outside [A-Za-z0-9._-] with
// an underscore and trims leading and trailing dots and underscores.
func SanitizeFilename(name string) string {
	safe := strings.Trim(unsafeFileName.ReplaceAllString(name, "_"), "._")
	if safe == "" {
		return "tag"
	}
	return safe
}
