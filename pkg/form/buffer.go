package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/carshop/pkg/car"
)

// ErrUnknownField is returned when a field name is not one of car.Fields.
var ErrUnknownField = errors.New("unknown field")

// RequiredError lists the fields that were blank at submit time.
type RequiredError struct {
	Fields []string
}

func (e *RequiredError) Error() string {
	return "required: " + strings.Join(e.Fields, ", ")
}

// Buffer is the draft shared by the add and edit dialogs.
type Buffer struct {
	draft car.Draft
}

// Draft returns a copy of the buffered values.
func (b *Buffer) Draft() car.Draft {
	return b.draft
}

// Get returns the value of field name.
func (b *Buffer) Get(name string) (string, error) {
	v, ok := b.draft.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return v, nil
}

// Set stores value under field name as given.
func (b *Buffer) Set(name, value string) error {
	if !b.draft.Set(name, value) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Load replaces every field with the values of d.
func (b *Buffer) Load(d car.Draft) {
	b.draft = d
}

// Reset clears every field.
func (b *Buffer) Reset() {
	b.draft = car.Draft{}
}

// Check returns a *RequiredError when any field is blank.
func (b *Buffer) Check() error {
	if missing := b.draft.Missing(); len(missing) > 0 {
		return &RequiredError{Fields: missing}
	}
	return nil
}

// NumericFilter drops runes that cannot appear in a number input.
func NumericFilter(s string) string {
	return strings.Map(func(r rune) rune {
		if allowedNumericRune(r) {
			return r
		}
		return -1
	}, s)
}

// allowedNumericRune reports whether r may be typed into a number field.
func allowedNumericRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == '+', r == 'e', r == 'E':
		return true
	}
	return false
}
