package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
)

// Attributes is a decoded JSON object from the configuration-inventory
// service. Every accessor is safe on missing keys and on values of an
// unexpected type: both report absence instead of panicking.
type Attributes map[string]any

// AsAttributes converts a decoded JSON value into Attributes when it is an
// object.
func AsAttributes(v any) (Attributes, bool) {
	switch m := v.(type) {
	case Attributes:
		return m, true
	case map[string]any:
		return Attributes(m), true
	default:
		return nil, false
	}
}

// Lookup walks path through nested objects and returns the value found.
func (a Attributes) Lookup(path ...string) (any, bool) {
	var cur any = a
	for _, key := range path {
		m, ok := AsAttributes(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether path resolves to a non-null value.
func (a Attributes) Has(path ...string) bool {
	v, ok := a.Lookup(path...)
	return ok && v != nil
}

// String returns the value at path as a string. Numbers are rendered in their
// original JSON form.
func (a Attributes) String(path ...string) (string, bool) {
	v, ok := a.Lookup(path...)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Bool returns the value at path as a boolean. The strings "true" and
// "false" are accepted because some services encode flags that way.
func (a Attributes) Bool(path ...string) (bool, bool) {
	v, ok := a.Lookup(path...)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, false
		}
		return parsed, true
	default:
		return false, false
	}
}

// Map returns the object at path.
func (a Attributes) Map(path ...string) (Attributes, bool) {
	v, ok := a.Lookup(path...)
	if !ok {
		return nil, false
	}
	return AsAttributes(v)
}

// List returns the array at path.
func (a Attributes) List(path ...string) ([]any, bool) {
	v, ok := a.Lookup(path...)
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}

// Tag is one {key, value} pair of a resource's tag list.
type Tag struct {
	Key   string
	Value string
}

// ConfigResource is one raw record returned by the configuration-inventory
// query. It is read-only input to mapping.
type ConfigResource struct {
	Attributes
}

// DecodeConfigResource parses one query result string. Numbers are kept as
// json.Number so identifiers and version strings are not rounded.
func DecodeConfigResource(raw string) (ConfigResource, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return ConfigResource{}, fmt.Errorf("decode config resource: %w", err)
	}
	if m == nil {
		return ConfigResource{}, fmt.Errorf("decode config resource: not a JSON object")
	}
	return ConfigResource{Attributes: Attributes(m)}, nil
}

// NewConfigResource wraps an already-decoded object.
func NewConfigResource(m map[string]any) ConfigResource {
	return ConfigResource{Attributes: Attributes(m)}
}

// Type returns the resourceType discriminator, or "" when absent.
func (r ConfigResource) Type() string {
	s, _ := r.String("resourceType")
	return s
}

// Tags returns the ordered tag list. Entries without a key are skipped; a
// missing or malformed list yields no tags.
func (r ConfigResource) Tags() []Tag {
	raw, ok := r.List("tags")
	if !ok {
		return nil
	}
	tags := make([]Tag, 0, len(raw))
	for _, item := range raw {
		m, ok := AsAttributes(item)
		if !ok {
			continue
		}
		key, ok := m.String("key")
		if !ok {
			continue
		}
		value, _ := m.String("value")
		tags = append(tags, Tag{Key: key, Value: value})
	}
	return tags
}

// TagValue returns the value of the first tag whose key matches name under
// Unicode case folding, or "" when there is none.
func (r ConfigResource) TagValue(name string) string {
	fold := cases.Fold()
	want := fold.String(name)
	for _, t := range r.Tags() {
		if fold.String(t.Key) == want {
			return t.Value
		}
	}
	return ""
}
