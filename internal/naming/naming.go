// Package naming derives deterministic output filenames for product images.
package naming

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const defaultExt = ".jpg"

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Derive maps a product reference, an image URL and the image's position in
// the candidate list to a filename. Position 0 gets no suffix, position n gets
// "_<n+1>".
func Derive(reference, imageURL string, position int) string {
	name := SanitizeReference(reference)
	ext := extension(imageURL)
	if position == 0 {
		return name + ext
	}
	return name + "_" + strconv.Itoa(position+1) + ext
}

// OutputPath joins outDir with the derived filename.
func OutputPath(outDir, reference, imageURL string, position int) string {
	return filepath.Join(outDir, Derive(reference, imageURL, position))
}

// SanitizeReference replaces every character outside [A-Za-z0-9_.-] with "-".
func SanitizeReference(reference string) string {
	return unsafeChars.ReplaceAllString(reference, "-")
}

func extension(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	if ext := strings.ToLower(path.Ext(p)); ext != "" {
		return ext
	}
	return defaultExt
}
