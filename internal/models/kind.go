package models

// Kind classifies an input the core recovered from instead of rejecting.
// None of these are errors: the operation clamps or does nothing.
type Kind string

const (
	// KindInvalidQuantityInput: non-numeric or sub-1 quantity, clamped to 1.
	KindInvalidQuantityInput Kind = "InvalidQuantityInput"

	// KindUnknownRowReference: an operation named a row id that does not exist.
	KindUnknownRowReference Kind = "UnknownRowReference"

	// KindMissingItemContext: AddRow was called with no active item.
	KindMissingItemContext Kind = "MissingItemContext"

	// KindUnknownField: a field name that the row or address does not have.
	KindUnknownField Kind = "UnknownField"
)
