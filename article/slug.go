package article

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 220

// FallbackSlug is used when a title has nothing slug-worthy in it.
const FallbackSlug = "article"

// Slugify converts s to a lowercase kebab-case ASCII slug. Diacritics are
// stripped; every other run of non alphanumeric characters becomes a single
// dash. The result may be empty.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// TagSlug derives the slug of a tag name. Names without any ASCII letters or
// digits (CJK tags, emoji) get a stable hash based slug so distinct names do
// not collapse onto the same tag.
func TagSlug(name string) string {
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return fmt.Sprintf("tag-%08x", uint32(xxhash.Sum64String(strings.TrimSpace(name))))
}

// SlugBase picks the slug candidate for a payload: the explicit slug when
// given, the slugified title otherwise.
func SlugBase(p MutationPayload) string {
	if p.Slug != "" {
		return p.Slug
	}
	if slug := Slugify(p.Title); slug != "" {
		return slug
	}
	return FallbackSlug
}

// EstimateReadingMinutes returns ceil(words / WordsPerMinute), at least 1.
func EstimateReadingMinutes(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
