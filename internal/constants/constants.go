package constants

import "time"

const (
	MigrationLock = iota + 1
	RecoveryLock
)

var Locks = []int{
	MigrationLock,
	RecoveryLock,
}

const (
	// MaxDetailItems caps the items returned with an operation's details.
	MaxDetailItems = 100

	// SchedulingHorizon is how far ahead the bulk scheduler searches for slots.
	SchedulingHorizon = 30 * 24 * time.Hour

	// MaxSuggestedAlternatives is the number of resolutions proposed for an unresolved conflict.
	MaxSuggestedAlternatives = 3

	SlotStep = time.Hour

	Schema = "gohire_schema"
)
