package partial

import (
	"errors"
	"fmt"
)

// ErrRequiredContent matches every *RequiredError through errors.Is.
var ErrRequiredContent = errors.New("required content missing")

// RequiredError reports a required section that has no content.
type RequiredError struct {
	Slot string
}

func (e *RequiredError) Error() string {
	return fmt.Sprintf("partial: required content for %q is missing", e.Slot)
}

// Is makes errors.Is(err, ErrRequiredContent) hold.
func (e *RequiredError) Is(target error) bool {
	return target == ErrRequiredContent
}

// SlotName returns the missing slot.
func (e *RequiredError) SlotName() string {
	return e.Slot
}
