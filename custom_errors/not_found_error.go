package custom_errors

import "fmt"

// NotFoundError is returned when an entity is missing or is not visible to the caller.
type NotFoundError struct {
	Entity string
	ID     any
}

func NewNotFoundError(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}
