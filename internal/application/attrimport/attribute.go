// Package attrimport loads product attributes from exported spreadsheets
// and publishes them to the storefront admin API.
package attrimport

import (
	"context"
	"regexp"
	"strings"
)

// Storefront attribute input types, one per workbook kind.
const (
	InputTypeRichText = "RICH_TEXT"
	InputTypeBoolean  = "BOOLEAN"
	InputTypeDropdown = "DROPDOWN"
)

// ErrorPolicyRejectEverything aborts the whole bulk mutation when any
// entry is invalid.
const ErrorPolicyRejectEverything = "REJECT_EVERYTHING"

// externalRefSuffix marks entities migrated from the legacy catalog.
const externalRefSuffix = "-tdh-old"

// FileRef is an image attached to an attribute value.
type FileRef struct {
	URL string `json:"url"`
}

// Value is one choice of a dropdown-style attribute.
type Value struct {
	ExternalReference string   `json:"externalReference"`
	Name              string   `json:"name"`
	File              *FileRef `json:"file,omitempty"`
}

// Attribute is one parsed attribute ready for publishing. The JSON shape
// doubles as the fixture file format.
type Attribute struct {
	Name              string  `json:"name"`
	ExternalReference string  `json:"externalReference"`
	InputType         string  `json:"inputType"`
	Slug              string  `json:"slug"`
	Values            []Value `json:"values,omitempty"`
}

// Publisher sends parsed attributes to the storefront.
type Publisher interface {
	PublishAttributes(ctx context.Context, attrs []Attribute, errorPolicy string) (int, error)
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
	slugTrim     = regexp.MustCompile(`^-+|-+$`)
)

// slugify turns a display name into a URL-safe slug.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return slugTrim.ReplaceAllString(s, "")
}
