package custom_errors

import "fmt"

// StateError is returned when an entity's current status does not allow the requested action.
type StateError struct {
	Entity string
	ID     any
	Status string
	Action string
}

func NewStateError(entity string, id any, status, action string) *StateError {
	return &StateError{Entity: entity, ID: id, Status: status, Action: action}
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %v: status is %s", e.Action, e.Entity, e.ID, e.Status)
}
