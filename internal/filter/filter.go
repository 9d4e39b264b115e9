// Package filter keeps list filters in step with a page location and
// turns them into the query the list endpoints expect.
package filter

import (
	"errors"
	"net/url"
	"strings"
)

// ErrUnknownCategory is returned when a value is added to a category the
// filter set does not know.
var ErrUnknownCategory = errors.New("unknown filter category")

// BuildKeys are the categories the builds list accepts.
var BuildKeys = []string{
	"project", "branch", "pipeline", "change", "patchset", "ref",
	"newrev", "result", "job_name", "voting", "node_name", "uuid",
	"held", "complete",
}

// BuildsetKeys are the categories the buildsets list accepts.
var BuildsetKeys = []string{
	"project", "branch", "pipeline", "change", "patchset", "ref",
	"newrev", "result", "uuid", "complete",
}

// Filters is an ordered set of categories, each with an ordered list of
// distinct values.
type Filters struct {
	keys   []string
	values map[string][]string
}

// New returns empty filters over keys.
func New(keys ...string) Filters {
	f := Filters{
		keys:   append([]string(nil), keys...),
		values: make(map[string][]string, len(keys)),
	}
	for _, key := range keys {
		f.values[key] = nil
	}
	return f
}

// Parse reads the categories in keys from query. Other parameters are
// ignored, as are empty and repeated values.
func Parse(keys []string, query url.Values) Filters {
	f := New(keys...)
	for _, key := range keys {
		for _, value := range query[key] {
			_ = f.Add(key, value)
		}
	}
	return f
}

// Keys returns the categories in their canonical order.
func (f Filters) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Has reports whether key is a known category.
func (f Filters) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Values returns the values of one category.
func (f Filters) Values(key string) []string {
	return append([]string(nil), f.values[key]...)
}

// Add appends value to a category unless it is empty or already present.
func (f *Filters) Add(key, value string) error {
	current, ok := f.values[key]
	if !ok {
		return ErrUnknownCategory
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, existing := range current {
		if existing == value {
			return nil
		}
	}
	f.values[key] = append(current, value)
	return nil
}

// Set replaces the values of one category.
func (f *Filters) Set(key string, values ...string) error {
	if !f.Has(key) {
		return ErrUnknownCategory
	}
	f.values[key] = nil
	for _, value := range values {
		if err := f.Add(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Reset empties every category.
func (f *Filters) Reset() {
	for key := range f.values {
		f.values[key] = nil
	}
}

// IsEmpty reports whether no category has a value.
func (f Filters) IsEmpty() bool {
	for _, values := range f.values {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Query converts the filters to repeated key=value parameters.
func (f Filters) Query() url.Values {
	query := url.Values{}
	for _, key := range f.keys {
		for _, value := range f.values[key] {
			query.Add(key, value)
		}
	}
	return query
}

// Encode renders the filters as a query string. Categories follow the key
// order and values keep their insertion order.
func (f Filters) Encode() string {
	var b strings.Builder
	for _, key := range f.keys {
		for _, value := range f.values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(value))
		}
	}
	return b.String()
}

// Equal compares two filter states category by category.
func (f Filters) Equal(other Filters) bool {
	if len(f.keys) != len(other.keys) {
		return false
	}
	for i, key := range f.keys {
		if other.keys[i] != key {
			return false
		}
		a, b := f.values[key], other.values[key]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}
