package utils

import (
	"net/url"
	"strings"
)

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}

// HasExtension reports whether rawURL, with its query string and fragment cut
// off, ends with one of exts. The comparison ignores case.
func HasExtension(rawURL string, exts []string) bool {
	s := rawURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(s)
	for _, ext := range exts {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}
