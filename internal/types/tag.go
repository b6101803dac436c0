package types

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// Tag is the format-agnostic metadata model.
//
// Every format reader populates a Tag and every format writer consumes one.
// A Tag never aliases the buffer it was parsed from: all strings and blobs
// are owned copies, so the source buffer may be reused after parsing.
//
// The zero values of the well-known fields mean "absent": an empty string,
// a zero year, a zero track. Writers skip absent fields.
type Tag struct {
	Title   string
	Artist  string
	Album   string
	Comment string
	Genre   string
	Year    int
	Track   int

	props    map[string]string
	Pictures []Picture
}

// NewTag creates an empty Tag.
func NewTag() *Tag {
	return &Tag{}
}

// SetProperty stores an extended property. Keys are normalized to uppercase;
// setting a key twice overwrites the earlier value.
func (t *Tag) SetProperty(key, value string) {
	if t.props == nil {
		t.props = make(map[string]string)
	}
	t.props[strings.ToUpper(key)] = value
}

// Property retrieves an extended property. Lookup is case-insensitive.
// Returns the empty string for unset keys.
func (t *Tag) Property(key string) string {
	return t.props[strings.ToUpper(key)]
}

// HasProperty reports whether the key is set, case-insensitively.
func (t *Tag) HasProperty(key string) bool {
	_, ok := t.props[strings.ToUpper(key)]
	return ok
}

// DeleteProperty removes an extended property, case-insensitively.
func (t *Tag) DeleteProperty(key string) {
	delete(t.props, strings.ToUpper(key))
}

// Properties returns an iterator over the extended property map in sorted
// key order. Deterministic order keeps serialized output stable.
func (t *Tag) Properties() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, key := range slices.Sorted(maps.Keys(t.props)) {
			if !yield(key, t.props[key]) {
				return
			}
		}
	}
}

// PropertyCount returns the number of extended properties set.
func (t *Tag) PropertyCount() int {
	return len(t.props)
}

// AddPicture appends a picture attachment. Insertion order is preserved
// through serialization.
func (t *Tag) AddPicture(p Picture) {
	t.Pictures = append(t.Pictures, p.Clone())
}

// Clone creates a deep copy of the Tag.
func (t *Tag) Clone() *Tag {
	if t == nil {
		return nil
	}
	clone := &Tag{
		Title:   t.Title,
		Artist:  t.Artist,
		Album:   t.Album,
		Comment: t.Comment,
		Genre:   t.Genre,
		Year:    t.Year,
		Track:   t.Track,
	}
	if t.props != nil {
		clone.props = maps.Clone(t.props)
	}
	if t.Pictures != nil {
		clone.Pictures = make([]Picture, len(t.Pictures))
		for i, p := range t.Pictures {
			clone.Pictures[i] = p.Clone()
		}
	}
	return clone
}

// Equal reports whether two Tags carry the same fields, properties, and
// pictures.
func (t *Tag) Equal(other *Tag) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Title != other.Title ||
		t.Artist != other.Artist ||
		t.Album != other.Album ||
		t.Comment != other.Comment ||
		t.Genre != other.Genre ||
		t.Year != other.Year ||
		t.Track != other.Track {
		return false
	}
	if !maps.Equal(t.props, other.props) {
		return false
	}
	if len(t.Pictures) != len(other.Pictures) {
		return false
	}
	for i := range t.Pictures {
		if !t.Pictures[i].Equal(other.Pictures[i]) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the tag carries no fields, properties, or pictures.
func (t *Tag) IsEmpty() bool {
	return t.Title == "" && t.Artist == "" && t.Album == "" &&
		t.Comment == "" && t.Genre == "" && t.Year == 0 && t.Track == 0 &&
		len(t.props) == 0 && len(t.Pictures) == 0
}

// TextSafe reports whether a value can be embedded in a text field without
// breaking container framing. NUL bytes and C0 control characters other than
// tab and newline are rejected by every writer.
func TextSafe(s string) bool {
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' {
			return false
		}
	}
	return true
}
