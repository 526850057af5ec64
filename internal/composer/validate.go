package composer

import (
	"strings"
	"unicode/utf8"

	verrors "github.com/textvault/textvault/internal/errors"
)

// Limits applied by Validate.
const (
	MaxTitleRunes   = 256
	MaxContentBytes = 512 * 1024
)

// Verdict is the result of validating a draft: valid when it lists no
// problems.
type Verdict struct {
	Problems []*verrors.FieldValidationError
}

// Valid reports whether the draft passed.
func (v Verdict) Valid() bool {
	return len(v.Problems) == 0
}

// Reasons returns the problems as messages.
func (v Verdict) Reasons() []string {
	reasons := make([]string, len(v.Problems))
	for i, p := range v.Problems {
		reasons[i] = p.Error()
	}
	return reasons
}

// Validate is the optional submission policy. It is pure: the draft is only
// read. The language needs no check because a Tag is always a table member.
func Validate(d Draft) Verdict {
	var v Verdict

	if strings.TrimSpace(d.Content) == "" {
		v.Problems = append(v.Problems, &verrors.FieldValidationError{
			FieldName:    "content",
			ErrorMessage: "must not be empty",
		})
	}
	if len(d.Content) > MaxContentBytes {
		v.Problems = append(v.Problems, &verrors.FieldValidationError{
			FieldName:    "content",
			FieldValue:   len(d.Content),
			ErrorMessage: "exceeds 512 KiB",
		})
	}
	if utf8.RuneCountInString(d.Title) > MaxTitleRunes {
		v.Problems = append(v.Problems, &verrors.FieldValidationError{
			FieldName:    "title",
			FieldValue:   utf8.RuneCountInString(d.Title),
			ErrorMessage: "exceeds 256 characters",
		})
	}

	return v
}
