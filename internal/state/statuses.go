package state

type OperationStatus string

const (
	OperationPending    OperationStatus = "pending"
	OperationProcessing OperationStatus = "processing"
	OperationCompleted  OperationStatus = "completed"
	OperationFailed     OperationStatus = "failed"
	OperationCancelled  OperationStatus = "cancelled"
)

func (s OperationStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed from s.
func (s OperationStatus) IsTerminal() bool {
	return s == OperationCompleted || s == OperationFailed || s == OperationCancelled
}

var AllOperationStatuses = []OperationStatus{
	OperationPending,
	OperationProcessing,
	OperationCompleted,
	OperationFailed,
	OperationCancelled,
}

type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemProcessing ItemStatus = "processing"
	ItemCompleted  ItemStatus = "completed"
	ItemFailed     ItemStatus = "failed"
	ItemSkipped    ItemStatus = "skipped"
)

func (s ItemStatus) String() string {
	return string(s)
}

var AllItemStatuses = []ItemStatus{
	ItemPending,
	ItemProcessing,
	ItemCompleted,
	ItemFailed,
	ItemSkipped,
}

type Transition[S ~string] struct {
	From S
	To   S
}

var ValidOperationTransitions = []Transition[OperationStatus]{
	{From: OperationPending, To: OperationProcessing},
	{From: OperationPending, To: OperationCancelled},
	{From: OperationPending, To: OperationFailed},
	{From: OperationProcessing, To: OperationCompleted},
	{From: OperationProcessing, To: OperationFailed},
	{From: OperationProcessing, To: OperationCancelled},
}

var ValidItemTransitions = []Transition[ItemStatus]{
	{From: ItemPending, To: ItemProcessing},
	{From: ItemPending, To: ItemSkipped},
	{From: ItemProcessing, To: ItemCompleted},
	{From: ItemProcessing, To: ItemFailed},
	// recovery of an item whose executor died mid-flight
	{From: ItemProcessing, To: ItemPending},
}

func IsValidOperationTransition(from, to OperationStatus) bool {
	return isValid(ValidOperationTransitions, from, to)
}

func IsValidItemTransition(from, to ItemStatus) bool {
	return isValid(ValidItemTransitions, from, to)
}

func isValid[S ~string](transitions []Transition[S], from, to S) bool {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}
