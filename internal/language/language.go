// Package language holds the closed table of syntax-highlighting languages a
// paste can be tagged with.
//
// A Tag is an opaque value: the only way to obtain one is from the table
// (the exported variables, All, or Parse), so a Tag can never carry a value
// outside the enumeration. The zero Tag is PlainText.
package language

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tag identifies one entry of the language table.
type Tag struct {
	i uint8
}

// Entry pairs a tag with its human-readable label.
type Entry struct {
	Tag   Tag    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

var table = [...]struct {
	value string
	label string
}{
	{"plaintext", "Plain Text"},
	{"javascript", "JavaScript"},
	{"python", "Python"},
	{"java", "Java"},
	{"cpp", "C++"},
	{"csharp", "C#"},
	{"php", "PHP"},
	{"ruby", "Ruby"},
	{"go", "Go"},
	{"rust", "Rust"},
}

// Table entries, in display order.
var (
	PlainText  = Tag{0}
	JavaScript = Tag{1}
	Python     = Tag{2}
	Java       = Tag{3}
	Cpp        = Tag{4}
	CSharp     = Tag{5}
	PHP        = Tag{6}
	Ruby       = Tag{7}
	Go         = Tag{8}
	Rust       = Tag{9}
)

// Default is the tag a new draft starts with.
var Default = PlainText

// All returns the table in display order. The slice is a fresh copy.
func All() []Entry {
	entries := make([]Entry, len(table))
	for i, row := range table {
		entries[i] = Entry{Tag: Tag{uint8(i)}, Label: row.label}
	}
	return entries
}

// Values returns the wire values in display order.
func Values() []string {
	values := make([]string, len(table))
	for i, row := range table {
		values[i] = row.value
	}
	return values
}

// Parse maps a wire value to its tag. Matching is exact: the wire value is
// what the persistence boundary stores, so "Go" or " go" are rejected.
func Parse(value string) (Tag, error) {
	for i, row := range table {
		if row.value == value {
			return Tag{uint8(i)}, nil
		}
	}
	return Tag{}, &UnknownError{Value: value}
}

// MustParse is like Parse but panics on unknown values. Intended for
// constants in tests and package-level tables.
func MustParse(value string) Tag {
	tag, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return tag
}

// String returns the wire value.
func (t Tag) String() string {
	return table[t.i].value
}

// Label returns the display label.
func (t Tag) Label() string {
	return table[t.i].label
}

// MarshalText encodes the tag as its wire value.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts only wire values from the table.
func (t *Tag) UnmarshalText(text []byte) error {
	tag, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// MarshalYAML encodes the tag as its wire value.
func (t Tag) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

var _ json.Marshaler = Entry{}

// MarshalJSON keeps the entry shape stable for the languages endpoint.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}{e.Tag.String(), e.Label})
}

// UnknownError reports a value outside the table.
type UnknownError struct {
	Value string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown language %q (expected one of %s)", e.Value, strings.Join(Values(), ", "))
}
