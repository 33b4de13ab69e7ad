package validation

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSlugify(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Crème brûlée, déjà vu!  ", "creme-brulee-deja-vu"},
		{"Go 1.22: what's new?", "go-1-22-what-s-new"},
		{"---", ""},
		{"Archived", "archived-post"},
		{"Ñandú über Straße", "nandu-uber-stra-e"},
	}

	for _, tt := range tests {
		c.Run(tt.title, func(c *qt.C) {
			c.Assert(Slugify(tt.title), qt.Equals, tt.want)
		})
	}
}

func TestSlugifyTruncates(t *testing.T) {
	c := qt.New(t)

	slug := Slugify(strings.Repeat("ab ", 150))
	c.Assert(len(slug) <= MaxSlugLength, qt.IsTrue)
	c.Assert(strings.HasSuffix(slug, "-"), qt.IsFalse)
	c.Assert(ValidateSlug(slug), qt.IsNil)
}

func TestValidateSlug(t *testing.T) {
	c := qt.New(t)

	c.Assert(ValidateSlug("my-first-post"), qt.IsNil)
	c.Assert(ValidateSlug("2025"), qt.IsNil)

	c.Assert(ValidateSlug(""), qt.ErrorMatches, "slug is required")
	c.Assert(ValidateSlug("Upper"), qt.ErrorMatches, "slug may only contain.*")
	c.Assert(ValidateSlug("double--hyphen"), qt.IsNotNil)
	c.Assert(ValidateSlug("-edge"), qt.IsNotNil)
	c.Assert(ValidateSlug("search"), qt.ErrorMatches, "slug is reserved")
	c.Assert(ValidateSlug(strings.Repeat("a", MaxSlugLength+1)), qt.ErrorMatches, "slug must not exceed 200 characters")
}
