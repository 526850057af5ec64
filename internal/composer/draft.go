package composer

import (
	"github.com/textvault/textvault/internal/language"
)

// Draft is the in-progress paste.
type Draft struct {
	Title    string
	Language language.Tag
	Content  string
}

// Payload is the record handed to the persistence boundary. It has exactly
// three fields, each a verbatim copy of the draft.
type Payload struct {
	Title    string       `json:"title" yaml:"title"`
	Language language.Tag `json:"language" yaml:"language"`
	Content  string       `json:"content" yaml:"content"`
}

// Draft converts the payload back to the draft it was built from.
func (p Payload) Draft() Draft {
	return Draft{Title: p.Title, Language: p.Language, Content: p.Content}
}

// Snapshot is what a render sees: the draft plus presentation state.
type Snapshot struct {
	Draft
	// Ready is false while the placeholder covers the editor.
	Ready bool
	// EditorTheme is the theme identifier last forwarded to the surface.
	EditorTheme string
}

// Placeholder reports whether the loading placeholder is shown.
func (s Snapshot) Placeholder() bool {
	return !s.Ready
}
