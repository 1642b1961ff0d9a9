package records

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const slugMaxLen = 71

var (
	slugStrip   = regexp.MustCompile(`[^-A-Za-z0-9_]+`)
	slugHyphens = regexp.MustCompile(`-{2,}`)
)

// FileSlug derives a filesystem-safe slug from a record name. Accented
// characters are folded to ASCII, anything else outside [-A-Za-z0-9_] is
// dropped, and the result is capped at 71 characters. If taken reports the
// slug as in use, a numeric suffix is appended until it is free.
func FileSlug(name string, taken func(slug string) bool) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = foldASCII(slug)
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	if len(slug) > slugMaxLen {
		slug = slug[:slugMaxLen]
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "untitled"
	}
	return dedupeSlug(slug, taken)
}

// CrosswalkSlug derives a slug for a crosswalk from the slugs of its input
// and output schemes.
func CrosswalkSlug(inputSlug, outputSlug string, taken func(slug string) bool) string {
	slug := slugHead(inputSlug) + "_TO_" + outputSlug
	if len(slug) > slugMaxLen {
		slug = slug[:slugMaxLen]
	}
	return dedupeSlug(slug, taken)
}

// slugHead keeps the first three hyphen-separated parts of a slug.
func slugHead(slug string) string {
	parts := strings.Split(slug, "-")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, "-")
}

func dedupeSlug(slug string, taken func(slug string) bool) string {
	if taken == nil || !taken(slug) {
		return slug
	}
	for i := 2; ; i++ {
		candidate := slug + "-" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// foldASCII decomposes accented characters and strips the combining marks,
// then drops any remaining non-ASCII runes.
func foldASCII(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) || r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
