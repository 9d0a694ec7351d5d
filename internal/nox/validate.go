package nox

import "regexp"

// Field names reported for rejected input.
const (
	FieldSession = "session name"
	FieldTag     = "tag"
)

// namePattern is the allow-list for session names and tags.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidName reports whether s is a non-empty string made only of ASCII
// letters, digits, '-' and '_'.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// ValidateNames checks every value and returns an ErrInvalidInput error for
// the first one that is not a valid name.
func ValidateNames(op, field string, values []string) error {
	for _, v := range values {
		if !ValidName(v) {
			return &Error{Op: op, Kind: ErrInvalidInput, Field: field, Value: v}
		}
	}
	return nil
}
