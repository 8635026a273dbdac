package sqlcomment

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedTag is returned by ParseTags when an item is not a key=value pair.
var ErrMalformedTag = errors.New("sqlcomment: malformed tag")

// Tag is a single key/value attribute carried in a SQL comment.
type Tag struct {
	Key   string
	Value string
}

// Tags is an ordered set of tags. Keys are unique: setting an existing key
// replaces its value but keeps its position.
//
// The zero value is an empty set ready to use.
type Tags struct {
	list []Tag
}

// NewTags builds Tags from alternating key/value strings.
// A trailing key without a value is ignored.
//
// Example:
//
//	tags := sqlcomment.NewTags("application", "billing", "db_driver", "pgx")
func NewTags(kv ...string) Tags {
	var t Tags
	for i := 0; i+1 < len(kv); i += 2 {
		t.Set(kv[i], kv[i+1])
	}
	return t
}

// Set adds key with value, or replaces the value of an existing key in place.
func (t *Tags) Set(key, value string) {
	for i := range t.list {
		if t.list[i].Key == key {
			t.list[i].Value = value
			return
		}
	}
	t.list = append(t.list, Tag{Key: key, Value: value})
}

// Get returns the value for key.
func (t Tags) Get(key string) (string, bool) {
	for _, tag := range t.list {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Len returns the number of tags.
func (t Tags) Len() int {
	return len(t.list)
}

// All returns a copy of the tags in insertion order.
func (t Tags) All() []Tag {
	out := make([]Tag, len(t.list))
	copy(out, t.list)
	return out
}

// Merge sets every tag of o on t, in o's order.
func (t *Tags) Merge(o Tags) {
	for _, tag := range o.list {
		t.Set(tag.Key, tag.Value)
	}
}

// Map returns the tags as a map. Ordering is lost.
func (t Tags) Map() map[string]string {
	m := make(map[string]string, len(t.list))
	for _, tag := range t.list {
		m[tag.Key] = tag.Value
	}
	return m
}

// Encode serializes the tags as space separated key=value pairs in insertion
// order. Values are percent-encoded with EncodeValue; keys are written as-is
// and are expected to be identifiers made of letters, digits, '_' and '.'.
//
// Example:
//
//	sqlcomment.NewTags("a", "b c", "file", "app/db.go").Encode()
//	// a=b%20c file=app%2Fdb.go
func (t Tags) Encode() string {
	if len(t.list) == 0 {
		return ""
	}

	var b strings.Builder
	for i, tag := range t.list {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tag.Key)
		b.WriteByte('=')
		b.WriteString(EncodeValue(tag.Value))
	}
	return b.String()
}

// EncodeValue percent-encodes every byte of v outside the RFC 3986 unreserved
// set (letters, digits, '-', '_', '.', '~'). Space becomes %20, so an encoded
// value never holds a separator, '=', '*', '/' or a control character.
func EncodeValue(v string) string {
	// QueryEscape only leaves the unreserved set literal, apart from
	// spaces which it turns into '+'. A literal '+' is already %2B.
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// ParseTags is the inverse of Tags.Encode.
func ParseTags(s string) (Tags, error) {
	var t Tags
	if strings.TrimSpace(s) == "" {
		return t, nil
	}

	for _, item := range strings.Split(s, " ") {
		if item == "" {
			continue
		}
		key, raw, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			return Tags{}, fmt.Errorf("%w: %q", ErrMalformedTag, item)
		}
		value, err := url.PathUnescape(raw)
		if err != nil {
			return Tags{}, fmt.Errorf("%w: %q: %v", ErrMalformedTag, item, err)
		}
		t.Set(key, value)
	}
	return t, nil
}
