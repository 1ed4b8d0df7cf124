package embodiedcarbon

import (
	"fmt"
)

// Building is the flat view of a structural model: its levels and its
// elements, one per level fragment.
type Building struct {
	Name     string
	Levels   LevelTable
	Elements []Element
	// Errors lists the elements that could not be read. They are skipped
	// and never stop the estimation.
	Errors []error
}

// ElementErr reports an element that failed to be read.
type ElementErr struct {
	ElementID string
	Operation string
	Err       error
}

func (elementErr *ElementErr) Error() string {
	return fmt.Sprintf("element %s skipped (op: %s): %s", elementErr.ElementID, elementErr.Operation, elementErr.Err.Error())
}

func (elementErr *ElementErr) Unwrap() error {
	return elementErr.Err
}
