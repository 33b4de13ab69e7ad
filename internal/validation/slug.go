package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength bounds post and category slugs.
const MaxSlugLength = 200

var (
	slugRegex      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugRunes   = regexp.MustCompile(`[^a-z0-9]+`)
	reservedSlugs  = map[string]struct{}{"archived": {}, "search": {}, "slug": {}, "me": {}, "new": {}, "drafts": {}}
	errEmptySlug   = errors.New("slug is required")
	errSlugTooLong = errors.New("slug must not exceed 200 characters")
)

// ValidateSlug checks that slug is lowercase letters, digits and single
// hyphens between them, and is not a reserved route segment.
func ValidateSlug(slug string) error {
	if slug == "" {
		return errEmptySlug
	}
	if len(slug) > MaxSlugLength {
		return errSlugTooLong
	}
	if !slugRegex.MatchString(slug) {
		return errors.New("slug may only contain lowercase letters, numbers, and single hyphens between them")
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return errors.New("slug is reserved")
	}
	return nil
}

// Slugify turns a title into a URL-safe slug: accents are folded to their
// base letters and everything else that is not a letter or digit becomes a
// hyphen. The result may be empty when title has no usable characters.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	slug := nonSlugRunes.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		slug += "-post"
	}
	return slug
}
