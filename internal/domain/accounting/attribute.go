package accounting

import "strings"

// AttributeValue is the value of a single product or variant attribute as it
// appears on an order line: either one string or an ordered list of strings.
// The zero value is "no value".
type AttributeValue struct {
	values []string
}

// One returns a single-valued attribute value.
func One(v string) AttributeValue {
	return AttributeValue{values: []string{v}}
}

// Many returns a multi-valued attribute value. The slice is copied.
func Many(vs []string) AttributeValue {
	cp := make([]string, len(vs))
	copy(cp, vs)
	return AttributeValue{values: cp}
}

// IsZero reports whether the attribute carries no value at all.
func (v AttributeValue) IsZero() bool {
	return len(v.values) == 0
}

// IsOne reports whether the attribute carries exactly one value.
func (v AttributeValue) IsOne() bool {
	return len(v.values) == 1
}

// Values returns all values in order.
func (v AttributeValue) Values() []string {
	cp := make([]string, len(v.values))
	copy(cp, v.values)
	return cp
}

// First returns the first value, or "" when empty.
func (v AttributeValue) First() string {
	if len(v.values) == 0 {
		return ""
	}
	return v.values[0]
}

// String renders the value the way it is written into item descriptions:
// a single value as-is, multiple values comma-separated.
func (v AttributeValue) String() string {
	return strings.Join(v.values, ", ")
}

// AttributeMap maps an attribute slug to its value for one order line.
// It is derived per line and never persisted.
type AttributeMap map[string]AttributeValue
