package helpers

import (
	"errors"
	"net/url"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// LastPathSegment returns the last non-empty path segment of a URL.
// "https://site/dress-01/" and "https://site/dress-01" both yield "dress-01".
func LastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.Trim(rawURL, "/")
	}

	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}

	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

// TrimmedPath returns a URL's path with leading and trailing slashes removed.
// Listing links on the site are root-relative ("/dress-01/"), so this is how
// product codes are derived from them.
func TrimmedPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.Trim(rawURL, "/")
	}
	if u.Path == "" {
		return strings.Trim(rawURL, "/")
	}
	return strings.Trim(u.Path, "/")
}
