package sync

import (
	"sort"
	"strings"

	"github.com/draheim/zoho-sync/internal/domain/accounting"
	"github.com/draheim/zoho-sync/internal/domain/commerce"
)

// brandSlug is the variant attribute that names the manufacturer. It is
// routed to the vendor field instead of the attribute map.
const brandSlug = "brand"

// ExtractLineAttributes flattens the product- and variant-level attribute
// assignments of one order line into a single map, pulling the brand out
// separately. Variant values win over product values for the same slug.
// Assignments with no values are omitted; exactly one value collapses to a
// scalar, two or more stay a list.
func ExtractLineAttributes(line commerce.OrderLine) (accounting.AttributeMap, accounting.AttributeValue) {
	attributes := accounting.AttributeMap{}
	var brand accounting.AttributeValue

	for _, assignment := range line.Variant.Product.Attributes {
		if value, ok := collapse(assignment.Values); ok {
			attributes[assignment.Slug] = value
		}
	}
	for _, assignment := range line.Variant.Attributes {
		value, ok := collapse(assignment.Values)
		if !ok {
			continue
		}
		if assignment.Slug == brandSlug {
			brand = value
			continue
		}
		attributes[assignment.Slug] = value
	}

	return attributes, brand
}

func collapse(values []string) (accounting.AttributeValue, bool) {
	switch len(values) {
	case 0:
		return accounting.AttributeValue{}, false
	case 1:
		return accounting.One(values[0]), true
	default:
		return accounting.Many(values), true
	}
}

// describeItem renders the attribute map into the item description body,
// one "slug: value" line per attribute in slug order, followed by the
// product description.
func describeItem(attributes accounting.AttributeMap, description string) string {
	slugs := make([]string, 0, len(attributes))
	for slug := range attributes {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	var b strings.Builder
	for _, slug := range slugs {
		b.WriteString(slug)
		b.WriteString(": ")
		b.WriteString(attributes[slug].String())
		b.WriteString("\n")
	}
	b.WriteString(description)
	return b.String()
}
