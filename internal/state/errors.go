package state

import (
	"errors"
	"strings"
)

var (
	// ErrNoShape is returned when raw input matches none of the accepted collection shapes.
	ErrNoShape = errors.New("no recognizable shape")
	// ErrEmpty is returned for an empty collection when empty collections are not allowed.
	ErrEmpty = errors.New("collection is empty")
	// ErrInvalidState is returned when caller-held conversation state fails validation.
	ErrInvalidState = errors.New("invalid conversation state")
)

// FieldError pins a single violation to a location in the raw input,
// e.g. "items[2].geo_coordinate.lat: must be a number".
type FieldError struct {
	Path   string
	Reason string

	err error
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return e.err
}

// violations accumulates every problem found while walking raw input.
// Strict parsing reports the first one, lenient validation reports all.
type violations struct {
	list []*FieldError
}

func (v *violations) add(path, reason string) {
	v.list = append(v.list, &FieldError{Path: path, Reason: reason})
}

func (v *violations) addSentinel(reason string, err error) {
	v.list = append(v.list, &FieldError{Reason: reason, err: err})
}

func (v *violations) len() int {
	return len(v.list)
}

func (v *violations) first() error {
	if len(v.list) == 0 {
		return nil
	}
	return v.list[0]
}

func (v *violations) messages() []string {
	out := make([]string, 0, len(v.list))
	for _, fe := range v.list {
		out = append(out, fe.Error())
	}
	return out
}

func joinMessages(msgs []string) string {
	return strings.Join(msgs, "; ")
}
